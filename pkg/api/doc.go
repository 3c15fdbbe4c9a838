// Package api exposes code generation and verification over HTTP.
//
// Routes:
//
//	POST /v1/totp/codes   {"secrets": "A\nB" | ["A","B"], "time_step": 30}
//	POST /v1/otp/verify   {"secret": "...", "code": "123456", "skew": 1}
//	GET  /healthz
//	GET  /metrics
//
// Every line of a codes request gets its own result: either a code with
// remaining_seconds, or {"error": "Invalid secret"}. A bad line never fails
// the request.
package api
