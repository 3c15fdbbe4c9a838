package totp

import (
	"fmt"
	"time"
)

// DefaultTimeStep is the standard TOTP window in seconds.
const DefaultTimeStep int64 = 30

// Result is a generated code together with its validity window.
type Result struct {
	// Code is the 6 digit one-time code.
	Code string `json:"code"`
	// Remaining is the number of seconds until the next code, in [1, step].
	Remaining int64 `json:"remaining_seconds"`
	// Counter is the time counter the code was derived from.
	Counter uint64 `json:"-"`
}

// Generate returns the code for secret at the current wall-clock time.
func Generate(secret string, step int64) (Result, error) {
	return GenerateAt(secret, step, time.Now())
}

// GenerateAt returns the code for secret at the given time.
//
// The secret is normalized and decoded permissively (see DecodeBase32). A
// secret that decodes to no bytes yields ErrInvalidSecret, which also
// matches ErrEmptyKey.
func GenerateAt(secret string, step int64, at time.Time) (Result, error) {
	epoch := at.Unix()

	counter, err := CounterAt(epoch, step)
	if err != nil {
		return Result{}, err
	}

	remaining, err := Remaining(epoch, step)
	if err != nil {
		return Result{}, err
	}

	code, err := HOTP(DecodeSecret(secret), counter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}

	return Result{
		Code:      code,
		Remaining: remaining,
		Counter:   counter,
	}, nil
}
