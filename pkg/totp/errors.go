package totp

import "errors"

// Errors returned by the engine.
var (
	// ErrInvalidSecret indicates the secret decoded to zero usable bytes.
	ErrInvalidSecret = errors.New("totp: invalid secret")
	// ErrInvalidTimeStep indicates a time step of zero or less.
	ErrInvalidTimeStep = errors.New("totp: time step must be greater than zero")
	// ErrEmptyKey indicates an HMAC was requested with a zero-length key.
	ErrEmptyKey = errors.New("totp: empty key")
	// ErrInvalidDigest indicates a digest too short for dynamic truncation.
	ErrInvalidDigest = errors.New("totp: digest too short")
	// ErrInvalidEpoch indicates a time before the Unix epoch.
	ErrInvalidEpoch = errors.New("totp: time before unix epoch")
)
