package otp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/go-totp/pkg/totp"
)

const testSecret = "JBSWY3DPEHPK3PXP"

// Codes for testSecret by counter.
const (
	codeCounter0 = "282760"
	codeCounter1 = "996554"
	codeCounter2 = "602287"
	codeCounter3 = "143627"
)

// sameConfig compares every field except the clock.
func sameConfig(a, b Config) bool {
	return a.Type == b.Type &&
		a.Secret == b.Secret &&
		a.Issuer == b.Issuer &&
		a.AccountName == b.AccountName &&
		a.Period == b.Period &&
		a.Counter == b.Counter &&
		a.Skew == b.Skew
}

func fixedClock(epoch int64) func() time.Time {
	return func() time.Time { return time.Unix(epoch, 0) }
}

// TestNewAuthenticator tests authenticator construction
func TestNewAuthenticator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid TOTP config",
			cfg: Config{
				Type:        TypeTOTP,
				Secret:      testSecret,
				Issuer:      "TestApp",
				AccountName: "user@example.com",
				Period:      30,
				Skew:        1,
			},
		},
		{
			name: "valid HOTP config",
			cfg: Config{
				Type:    TypeHOTP,
				Secret:  testSecret,
				Counter: 0,
			},
		},
		{
			name: "messy secret is accepted",
			cfg: Config{
				Type:   TypeTOTP,
				Secret: "jbsw y3dp ehpk 3pxp====",
			},
		},
		{
			name:    "missing secret",
			cfg:     Config{Type: TypeTOTP},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "invalid type",
			cfg:     Config{Type: "invalid", Secret: testSecret},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "secret without base32 characters",
			cfg:     Config{Type: TypeTOTP, Secret: "@@@@!!!!"},
			wantErr: totp.ErrInvalidSecret,
		},
		{
			name:    "negative period",
			cfg:     Config{Type: TypeTOTP, Secret: testSecret, Period: -30},
			wantErr: totp.ErrInvalidTimeStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := NewAuthenticator(tt.cfg)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.wantErr)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if auth == nil {
				t.Fatal("expected authenticator, got nil")
			}
		})
	}
}

// TestAuthenticateTOTP tests TOTP validation
func TestAuthenticateTOTP(t *testing.T) {
	auth, err := NewAuthenticator(Config{
		Type:   TypeTOTP,
		Secret: testSecret,
		Period: 30,
		Skew:   1,
		Now:    fixedClock(59),
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	tests := []struct {
		name    string
		ctx     context.Context
		code    string
		wantErr error
	}{
		{name: "current code", ctx: context.Background(), code: codeCounter1},
		{name: "previous step within skew", ctx: context.Background(), code: codeCounter0},
		{name: "next step within skew", ctx: context.Background(), code: codeCounter2},
		{name: "surrounding whitespace", ctx: context.Background(), code: " " + codeCounter1 + "\n"},
		{name: "nil context", ctx: nil, code: codeCounter1},
		{name: "outside skew", ctx: context.Background(), code: codeCounter3, wantErr: ErrInvalidCode},
		{name: "invalid code", ctx: context.Background(), code: "000000", wantErr: ErrInvalidCode},
		{name: "empty code", ctx: context.Background(), code: "", wantErr: ErrInvalidCode},
		{name: "wrong length code", ctx: context.Background(), code: "12345", wantErr: ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authenticate(tt.ctx, tt.code)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.wantErr)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestAuthenticateTOTPWithSkew tests TOTP time skew tolerance
func TestAuthenticateTOTPWithSkew(t *testing.T) {
	auth, err := NewAuthenticator(Config{
		Type:   TypeTOTP,
		Secret: testSecret,
		Skew:   2,
		Now:    fixedClock(90),
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	// Counter 3 is current; 1 through 5 are accepted.
	for _, code := range []string{codeCounter1, codeCounter2, codeCounter3} {
		if err := auth.Authenticate(context.Background(), code); err != nil {
			t.Errorf("expected %s to be accepted: %v", code, err)
		}
	}
	if err := auth.Authenticate(context.Background(), codeCounter0); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected counter 0 code to be rejected, got %v", err)
	}
}

// TestAuthenticateTOTPAtFirstWindow checks the skew window does not wrap
// below counter zero.
func TestAuthenticateTOTPAtFirstWindow(t *testing.T) {
	auth, err := NewAuthenticator(Config{
		Type:   TypeTOTP,
		Secret: testSecret,
		Skew:   3,
		Now:    fixedClock(0),
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if err := auth.Authenticate(context.Background(), codeCounter0); err != nil {
		t.Errorf("expected counter 0 code to be accepted: %v", err)
	}
	if err := auth.Authenticate(context.Background(), codeCounter3); err != nil {
		t.Errorf("expected counter 3 code to be accepted: %v", err)
	}
}

// TestAuthenticateHOTP tests HOTP validation
func TestAuthenticateHOTP(t *testing.T) {
	auth, err := NewAuthenticator(Config{
		Type:    TypeHOTP,
		Secret:  testSecret,
		Counter: 2,
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if err := auth.Authenticate(context.Background(), codeCounter2); err != nil {
		t.Errorf("expected configured counter code to be accepted: %v", err)
	}
	if err := auth.Authenticate(context.Background(), codeCounter1); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}

	code, err := auth.Generate(0)
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}
	if code != codeCounter0 {
		t.Errorf("expected %s, got %s", codeCounter0, code)
	}

	newCounter, err := auth.ValidateCounter(context.Background(), code, 0)
	if err != nil {
		t.Errorf("failed to validate counter: %v", err)
	}
	if newCounter != 1 {
		t.Errorf("expected new counter 1, got %d", newCounter)
	}

	// Test with wrong counter
	if _, err := auth.ValidateCounter(context.Background(), code, 5); err == nil {
		t.Error("expected error validating with wrong counter")
	}
}

// TestValidateCounter tests HOTP counter validation
func TestValidateCounter(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	tests := []struct {
		name        string
		counter     uint64
		wantCounter uint64
	}{
		{name: "valid counter 0", counter: 0, wantCounter: 1},
		{name: "valid counter 5", counter: 5, wantCounter: 6},
		{name: "valid counter 100", counter: 100, wantCounter: 101},
		{name: "counter above 32 bits", counter: 1 << 40, wantCounter: 1<<40 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := auth.Generate(tt.counter)
			if err != nil {
				t.Fatalf("failed to generate code: %v", err)
			}

			newCounter, err := auth.ValidateCounter(context.Background(), code, tt.counter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if newCounter != tt.wantCounter {
				t.Errorf("expected counter %d, got %d", tt.wantCounter, newCounter)
			}
		})
	}
}

// TestGenerate tests code generation
func TestGenerate(t *testing.T) {
	t.Run("TOTP", func(t *testing.T) {
		auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret, Now: fixedClock(59)})
		if err != nil {
			t.Fatalf("failed to create authenticator: %v", err)
		}

		code, err := auth.Generate()
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}
		if code != codeCounter1 {
			t.Errorf("expected %s, got %s", codeCounter1, code)
		}
	})

	t.Run("HOTP", func(t *testing.T) {
		auth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
		if err != nil {
			t.Fatalf("failed to create authenticator: %v", err)
		}

		code, err := auth.Generate(3)
		if err != nil {
			t.Fatalf("failed to generate code: %v", err)
		}
		if code != codeCounter3 {
			t.Errorf("expected %s, got %s", codeCounter3, code)
		}
	})
}

// TestCurrent tests the code and countdown for the current window
func TestCurrent(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret, Now: fixedClock(75)})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	res, err := auth.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != codeCounter2 {
		t.Errorf("expected %s, got %s", codeCounter2, res.Code)
	}
	if res.Remaining != 15 {
		t.Errorf("expected 15 seconds remaining, got %d", res.Remaining)
	}

	hotpAuth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}
	if _, err := hotpAuth.Current(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGetProvisioningURI(t *testing.T) {
	t.Run("TOTP", func(t *testing.T) {
		auth, err := NewAuthenticator(Config{
			Type:        TypeTOTP,
			Secret:      "jbsw y3dp ehpk 3pxp",
			Issuer:      "Test App",
			AccountName: "user@example.com",
			Period:      60,
		})
		if err != nil {
			t.Fatalf("failed to create authenticator: %v", err)
		}

		uri := auth.GetProvisioningURI()
		if !strings.HasPrefix(uri, "otpauth://totp/Test%20App:user@example.com?") {
			t.Fatalf("unexpected URI prefix: %s", uri)
		}

		u, err := url.Parse(uri)
		if err != nil {
			t.Fatalf("failed to parse URI: %v", err)
		}
		q := u.Query()
		want := map[string]string{
			"secret":    testSecret,
			"issuer":    "Test App",
			"algorithm": "SHA1",
			"digits":    "6",
			"period":    "60",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("expected %s=%s, got %s", k, v, got)
			}
		}
	})

	t.Run("HOTP", func(t *testing.T) {
		auth, err := NewAuthenticator(Config{
			Type:        TypeHOTP,
			Secret:      testSecret,
			AccountName: "token",
			Counter:     42,
		})
		if err != nil {
			t.Fatalf("failed to create authenticator: %v", err)
		}

		uri := auth.GetProvisioningURI()
		if !strings.HasPrefix(uri, "otpauth://hotp/token?") {
			t.Fatalf("unexpected URI prefix: %s", uri)
		}
		if !strings.Contains(uri, "counter=42") {
			t.Errorf("expected counter in URI: %s", uri)
		}
	})
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Config
		wantErr error
	}{
		{
			name: "totp with period",
			uri:  "otpauth://totp/ACME:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=ACME&period=60",
			want: Config{Type: TypeTOTP, Secret: testSecret, Issuer: "ACME", AccountName: "alice@example.com", Period: 60},
		},
		{
			name: "totp default period",
			uri:  "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP",
			want: Config{Type: TypeTOTP, Secret: testSecret, AccountName: "alice", Period: 30},
		},
		{
			name: "hotp with counter",
			uri:  "otpauth://hotp/ACME:bob?secret=JBSWY3DPEHPK3PXP&issuer=ACME&counter=7",
			want: Config{Type: TypeHOTP, Secret: testSecret, Issuer: "ACME", AccountName: "bob", Counter: 7},
		},
		{
			name:    "sha256",
			uri:     "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&algorithm=SHA256",
			wantErr: ErrUnsupported,
		},
		{
			name:    "eight digits",
			uri:     "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&digits=8",
			wantErr: ErrUnsupported,
		},
		{
			name:    "wrong scheme",
			uri:     "https://example.com/totp?secret=JBSWY3DPEHPK3PXP",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing secret",
			uri:     "otpauth://totp/alice?issuer=ACME",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown type",
			uri:     "otpauth://motp/alice?secret=JBSWY3DPEHPK3PXP",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad counter",
			uri:     "otpauth://hotp/alice?secret=JBSWY3DPEHPK3PXP&counter=-1",
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sameConfig(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseURIRoundTrip(t *testing.T) {
	auth, err := NewAuthenticator(Config{
		Type:        TypeTOTP,
		Secret:      testSecret,
		Issuer:      "ACME",
		AccountName: "carol@example.com",
		Period:      45,
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	cfg, err := ParseURI(auth.GetProvisioningURI())
	if err != nil {
		t.Fatalf("failed to parse URI: %v", err)
	}
	if cfg.Secret != testSecret || cfg.Period != 45 || cfg.Issuer != "ACME" || cfg.AccountName != "carol@example.com" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestGenerateSecret(t *testing.T) {
	secret, uri, err := GenerateSecret("TestApp", "user@example.com")
	if err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}

	// 20 bytes encode to 32 base32 characters
	if len(secret) != 32 {
		t.Errorf("expected 32 character secret, got %d: %s", len(secret), secret)
	}
	if got := len(totp.DecodeSecret(secret)); got != 20 {
		t.Errorf("expected 20 decoded bytes, got %d", got)
	}

	cfg, err := ParseURI(uri)
	if err != nil {
		t.Fatalf("failed to parse generated URI: %v", err)
	}
	if cfg.Secret != secret {
		t.Errorf("expected URI secret %s, got %s", secret, cfg.Secret)
	}

	other, _, err := GenerateSecret("TestApp", "user@example.com")
	if err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}
	if other == secret {
		t.Error("expected distinct secrets")
	}

	if _, _, err := GenerateSecret("", "user@example.com"); err == nil {
		t.Error("expected error without issuer")
	}
}

// TestContextCancellation tests context cancellation
func TestContextCancellation(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret, Now: fixedClock(59)})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := auth.Authenticate(ctx, codeCounter1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	hotpAuth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}
	if _, err := hotpAuth.ValidateCounter(ctx, codeCounter0, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// cancelAfter reports cancellation once Err has been called n times.
type cancelAfter struct {
	context.Context
	n     int
	calls int
}

func (c *cancelAfter) Err() error {
	c.calls++
	if c.calls > c.n {
		return context.Canceled
	}
	return nil
}

func TestAuthenticateStopsWhenCancelledMidWindow(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret, Skew: 5, Now: fixedClock(59)})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	// codeCounter3 sits inside the window, but the context is cancelled
	// before that step is reached.
	ctx := &cancelAfter{Context: context.Background(), n: 2}
	if err := auth.Authenticate(ctx, codeCounter3); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ctx.calls != 3 {
		t.Errorf("expected 3 context checks, got %d", ctx.calls)
	}

	if err := auth.Authenticate(context.Background(), codeCounter3); err != nil {
		t.Errorf("expected code to validate without cancellation, got %v", err)
	}
}

func TestNilAuthenticator(t *testing.T) {
	var auth *Authenticator

	t.Run("Authenticate", func(t *testing.T) {
		if err := auth.Authenticate(context.Background(), "123456"); !errors.Is(err, ErrNilAuthenticator) {
			t.Errorf("expected ErrNilAuthenticator, got %v", err)
		}
	})

	t.Run("ValidateCounter", func(t *testing.T) {
		if _, err := auth.ValidateCounter(context.Background(), "123456", 0); !errors.Is(err, ErrNilAuthenticator) {
			t.Errorf("expected ErrNilAuthenticator, got %v", err)
		}
	})

	t.Run("Generate", func(t *testing.T) {
		if _, err := auth.Generate(); !errors.Is(err, ErrNilAuthenticator) {
			t.Errorf("expected ErrNilAuthenticator, got %v", err)
		}
	})

	t.Run("Current", func(t *testing.T) {
		if _, err := auth.Current(); !errors.Is(err, ErrNilAuthenticator) {
			t.Errorf("expected ErrNilAuthenticator, got %v", err)
		}
	})

	t.Run("GetProvisioningURI", func(t *testing.T) {
		if uri := auth.GetProvisioningURI(); uri != "" {
			t.Errorf("expected empty URI, got %s", uri)
		}
	})
}

func TestDefaults(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if auth.cfg.Period != 30 {
		t.Errorf("expected default period 30, got %d", auth.cfg.Period)
	}
	if auth.cfg.Skew != 1 {
		t.Errorf("expected default skew 1, got %d", auth.cfg.Skew)
	}
	if auth.cfg.Now == nil {
		t.Error("expected default clock")
	}
}

func TestHOTPWithoutCounter(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if _, err := auth.Generate(); err == nil {
		t.Error("expected error when generating HOTP without counter")
	}
}

func TestTOTPValidateCounterError(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeTOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if _, err := auth.ValidateCounter(context.Background(), "123456", 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateCounterWithEmptyCode(t *testing.T) {
	auth, err := NewAuthenticator(Config{Type: TypeHOTP, Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	if _, err := auth.ValidateCounter(context.Background(), "  ", 0); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}
