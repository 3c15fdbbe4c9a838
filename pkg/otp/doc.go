// Package otp provides TOTP (RFC 6238) and HOTP (RFC 4226) verification and
// provisioning on top of the code generator in package totp.
//
// Codes are always HMAC-SHA1 with 6 digits, the parameters understood by
// Google Authenticator and compatible apps.
//
// # TOTP Example
//
//	config := otp.Config{
//	    Type:        otp.TypeTOTP,
//	    Secret:      "JBSWY3DPEHPK3PXP",
//	    Issuer:      "MyApp",
//	    AccountName: "user@example.com",
//	    Period:      30,
//	    Skew:        1, // Allow 1 period of clock skew
//	}
//
//	auth, err := otp.NewAuthenticator(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Validate a code from user's authenticator app
//	err = auth.Authenticate(ctx, "123456")
//	if err != nil {
//	    log.Printf("Authentication failed: %v", err)
//	}
//
//	// Current code and seconds until it rotates
//	res, _ := auth.Current()
//	fmt.Println(res.Code, res.Remaining)
//
// # HOTP Example
//
//	auth, err := otp.NewAuthenticator(otp.Config{
//	    Type:   otp.TypeHOTP,
//	    Secret: "JBSWY3DPEHPK3PXP",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	newCounter, err := auth.ValidateCounter(ctx, "123456", currentCounter)
//	if err == nil {
//	    currentCounter = newCounter
//	}
//
// # Provisioning
//
// GenerateSecret returns a random 160-bit secret and its otpauth:// URI.
// ParseURI reads such a URI back into a Config; URIs asking for SHA256,
// SHA512 or 8 digits are rejected with ErrUnsupported.
//
//	secret, uri, err := otp.GenerateSecret("MyApp", "user@example.com")
//
// # Thread Safety
//
// The Authenticator type is safe for concurrent use. Multiple goroutines
// can call its methods simultaneously.
package otp
