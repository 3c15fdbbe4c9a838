// Package totp generates Google Authenticator compatible one-time codes
// (RFC 4226 HOTP keyed by the RFC 6238 time counter, HMAC-SHA1, 6 digits).
//
// Every function is pure given its inputs. Nothing is cached and no state is
// shared, so the package is safe for concurrent use.
//
// # Generating a Code
//
//	res, err := totp.GenerateAt("JBSWY3DPEHPK3PXP", totp.DefaultTimeStep, time.Now())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (%ds left)\n", res.Code, res.Remaining)
//
// Generate is a shorthand that reads the wall clock itself. Tests should use
// GenerateAt with a fixed time.
//
// # Secrets
//
// Secrets are base32 (RFC 4648). Whitespace is stripped, letters are
// upper-cased, and any remaining byte outside A-Z2-7 (such as '=' padding)
// is skipped. A secret that decodes to zero bytes is rejected with
// ErrInvalidSecret instead of being used as an empty HMAC key.
//
// # Batch Mode
//
// GenerateBatch accepts newline separated secrets and reports one Entry per
// non-empty line:
//
//	entries, err := totp.GenerateBatch(ctx, input, 30, time.Now())
//	if err != nil {
//	    return err // invalid step or cancelled context
//	}
//	for _, e := range entries {
//	    fmt.Println(e.Line, e.Message()) // code or "Invalid secret"
//	}
//
// # Refreshing
//
// The package has no timer. A display that refreshes every second should call
// GenerateAt again on every tick with the current time.
package totp
