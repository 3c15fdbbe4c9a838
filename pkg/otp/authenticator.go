package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"

	"github.com/jeremyhahn/go-totp/pkg/totp"
)

// Type represents the OTP algorithm type.
type Type string

const (
	// TypeTOTP represents Time-based OTP (RFC 6238).
	TypeTOTP Type = "totp"
	// TypeHOTP represents Counter-based OTP (RFC 4226).
	TypeHOTP Type = "hotp"
)

// Common errors returned by the OTP authenticator.
var (
	// ErrInvalidCode indicates the provided OTP code is invalid.
	ErrInvalidCode = errors.New("otp: invalid code")
	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("otp: invalid configuration")
	// ErrNilAuthenticator indicates a nil authenticator was used.
	ErrNilAuthenticator = errors.New("otp: authenticator is nil")
	// ErrUnsupported indicates a provisioning URI asks for parameters this
	// package does not generate (only SHA1 with 6 digits is supported).
	ErrUnsupported = errors.New("otp: unsupported parameters")
)

// Config holds OTP authenticator configuration.
type Config struct {
	// Type specifies the OTP type (TOTP or HOTP).
	Type Type
	// Secret is the base32-encoded shared secret key (required).
	// It is decoded permissively, see totp.DecodeSecret.
	Secret string
	// Issuer is the name of the issuing organization (e.g., "MyApp").
	Issuer string
	// AccountName is the account identifier (e.g., "user@example.com").
	AccountName string
	// Period specifies the time step in seconds for TOTP.
	// Default: 30
	Period int64
	// Counter specifies the counter value checked by Authenticate for HOTP.
	// Default: 0
	Counter uint64
	// Skew specifies the number of time steps to check before and after
	// the current one for TOTP validation.
	// Default: 1
	Skew uint
	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// validate checks that the configuration is valid.
func (c Config) validate() error {
	if c.Type != TypeTOTP && c.Type != TypeHOTP {
		return fmt.Errorf("%w: type must be 'totp' or 'hotp'", ErrInvalidConfig)
	}

	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("%w: secret must not be empty", ErrInvalidConfig)
	}

	if len(totp.DecodeSecret(c.Secret)) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, totp.ErrInvalidSecret)
	}

	if c.Period < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, totp.ErrInvalidTimeStep)
	}

	return nil
}

// Authenticator generates and validates OTP codes for a single secret.
// It is safe for concurrent use.
type Authenticator struct {
	cfg Config
	key []byte
}

// NewAuthenticator creates a new OTP authenticator.
// The configuration is validated and an error is returned if invalid.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Period == 0 {
		cfg.Period = totp.DefaultTimeStep
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Authenticator{
		cfg: cfg,
		key: totp.DecodeSecret(cfg.Secret),
	}, nil
}

// Authenticate validates an OTP code.
// For TOTP, it validates against the current time with skew tolerance.
// For HOTP, it validates against the configured counter value.
func (a *Authenticator) Authenticate(ctx context.Context, code string) error {
	if a == nil {
		return ErrNilAuthenticator
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code must not be empty", ErrInvalidCode)
	}
	if len(code) != totp.Digits {
		return fmt.Errorf("%w: code must have %d digits", ErrInvalidCode, totp.Digits)
	}

	if a.cfg.Type == TypeHOTP {
		return a.match(code, a.cfg.Counter)
	}

	current, err := totp.CounterAt(a.cfg.Now().Unix(), a.cfg.Period)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	skew := uint64(a.cfg.Skew)
	first := uint64(0)
	if current > skew {
		first = current - skew
	}
	for c := first; c <= current+skew; c++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.match(code, c) == nil {
			return nil
		}
	}

	return ErrInvalidCode
}

// ValidateCounter validates an HOTP code and returns the new counter value.
// This method is only valid for HOTP authenticators.
// The returned counter should be stored and used for the next validation.
func (a *Authenticator) ValidateCounter(ctx context.Context, code string, counter uint64) (uint64, error) {
	if a == nil {
		return 0, ErrNilAuthenticator
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if a.cfg.Type != TypeHOTP {
		return 0, fmt.Errorf("%w: ValidateCounter is only valid for HOTP", ErrInvalidConfig)
	}

	if strings.TrimSpace(code) == "" {
		return 0, fmt.Errorf("%w: code must not be empty", ErrInvalidCode)
	}

	if err := a.match(strings.TrimSpace(code), counter); err != nil {
		return 0, err
	}

	return counter + 1, nil
}

// Generate generates an OTP code.
// For TOTP, it generates the code for the current time.
// For HOTP, a counter value must be provided.
func (a *Authenticator) Generate(counter ...uint64) (string, error) {
	if a == nil {
		return "", ErrNilAuthenticator
	}

	if a.cfg.Type == TypeTOTP {
		res, err := a.Current()
		if err != nil {
			return "", err
		}
		return res.Code, nil
	}

	if len(counter) == 0 {
		return "", fmt.Errorf("otp: counter required for HOTP generation")
	}

	code, err := totp.HOTP(a.key, counter[0])
	if err != nil {
		return "", fmt.Errorf("otp: failed to generate HOTP code: %w", err)
	}

	return code, nil
}

// Current returns the TOTP code and countdown for the current time.
func (a *Authenticator) Current() (totp.Result, error) {
	if a == nil {
		return totp.Result{}, ErrNilAuthenticator
	}

	if a.cfg.Type != TypeTOTP {
		return totp.Result{}, fmt.Errorf("%w: Current is only valid for TOTP", ErrInvalidConfig)
	}

	res, err := totp.GenerateAt(a.cfg.Secret, a.cfg.Period, a.cfg.Now())
	if err != nil {
		return totp.Result{}, fmt.Errorf("otp: failed to generate TOTP code: %w", err)
	}

	return res, nil
}

func (a *Authenticator) match(code string, counter uint64) error {
	want, err := totp.HOTP(a.key, counter)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

// GetProvisioningURI returns the otpauth:// URI for QR code generation.
// This URI can be encoded as a QR code and scanned by authenticator apps.
func (a *Authenticator) GetProvisioningURI() string {
	if a == nil {
		return ""
	}

	v := url.Values{}
	v.Set("secret", totp.NormalizeSecret(a.cfg.Secret))
	if a.cfg.Issuer != "" {
		v.Set("issuer", a.cfg.Issuer)
	}
	v.Set("algorithm", otp.AlgorithmSHA1.String())
	v.Set("digits", strconv.Itoa(totp.Digits))

	label := a.cfg.AccountName
	if a.cfg.Issuer != "" {
		label = a.cfg.Issuer + ":" + a.cfg.AccountName
	}
	label = url.PathEscape(label)

	if a.cfg.Type == TypeTOTP {
		v.Set("period", strconv.FormatInt(a.cfg.Period, 10))
		return fmt.Sprintf("otpauth://totp/%s?%s", label, v.Encode())
	}

	v.Set("counter", strconv.FormatUint(a.cfg.Counter, 10))
	return fmt.Sprintf("otpauth://hotp/%s?%s", label, v.Encode())
}

// ParseURI reads an otpauth:// provisioning URI into a Config.
// URIs that request an algorithm other than SHA1 or a code length other
// than 6 return ErrUnsupported.
func ParseURI(raw string) (Config, error) {
	raw = strings.TrimSpace(raw)
	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "otpauth" {
		return Config{}, fmt.Errorf("%w: scheme must be otpauth, got %q", ErrInvalidConfig, u.Scheme)
	}

	q := u.Query()
	if key.Algorithm() != otp.AlgorithmSHA1 {
		return Config{}, fmt.Errorf("%w: algorithm %s", ErrUnsupported, key.Algorithm())
	}
	if d := q.Get("digits"); d != "" && d != strconv.Itoa(totp.Digits) {
		return Config{}, fmt.Errorf("%w: %s digits", ErrUnsupported, d)
	}

	cfg := Config{
		Type:        Type(strings.ToLower(key.Type())),
		Secret:      key.Secret(),
		Issuer:      key.Issuer(),
		AccountName: key.AccountName(),
	}

	switch cfg.Type {
	case TypeTOTP:
		period := key.Period()
		if period == 0 || period > uint64(1<<31) {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, totp.ErrInvalidTimeStep)
		}
		cfg.Period = int64(period)
	case TypeHOTP:
		if c := q.Get("counter"); c != "" {
			n, err := strconv.ParseUint(c, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%w: counter: %v", ErrInvalidConfig, err)
			}
			cfg.Counter = n
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSecret generates a cryptographically random 160-bit secret and
// returns it base32-encoded together with its TOTP provisioning URI.
func GenerateSecret(issuer, accountName string) (secret, uri string, err error) {
	key, err := pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      uint(totp.DefaultTimeStep),
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("otp: failed to generate secret: %w", err)
	}

	return key.Secret(), key.String(), nil
}
