package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyhahn/go-totp/pkg/otp"
	"github.com/jeremyhahn/go-totp/pkg/totp"
)

var (
	// ErrMissingSecret indicates a verify request without a secret.
	ErrMissingSecret = errors.New("api: secret is required")
	// ErrMissingCode indicates a verify request without a code.
	ErrMissingCode = errors.New("api: code is required")
	// ErrSkewTooLarge indicates a skew above Config.MaxSkew.
	ErrSkewTooLarge = errors.New("api: skew too large")
)

// DefaultMaxSkew is the largest skew a verify request may ask for.
const DefaultMaxSkew uint = 10

// Config configures a Service.
type Config struct {
	// TimeStep is used when a request does not set one.
	// Default: 30
	TimeStep int64
	// Workers bounds concurrent evaluation of batch lines.
	// Default: totp.DefaultWorkers
	Workers int
	// Skew is used by Verify when a request does not set one.
	// Default: 1
	Skew uint
	// MaxSkew bounds the skew a verify request may set.
	// Default: DefaultMaxSkew
	MaxSkew uint
	// Now returns the current time. Default: time.Now
	Now func() time.Time
	// Logger receives request logs. Default: no-op
	Logger *zap.Logger
	// Metrics records outcomes. Default: metrics on a private registry
	Metrics *Metrics
}

// Service generates and verifies codes on behalf of HTTP callers.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	cfg Config
}

// NewService builds a Service from the supplied configuration.
func NewService(cfg Config) (*Service, error) {
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("api: %w", totp.ErrInvalidTimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = totp.DefaultTimeStep
	}
	if cfg.Workers <= 0 {
		cfg.Workers = totp.DefaultWorkers
	}
	if cfg.MaxSkew == 0 {
		cfg.MaxSkew = DefaultMaxSkew
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.Skew > cfg.MaxSkew {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrSkewTooLarge, cfg.Skew, cfg.MaxSkew)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	return &Service{cfg: cfg}, nil
}

// Secrets is newline separated secret input. In JSON it may be a single
// string or an array of strings.
type Secrets string

// UnmarshalJSON accepts either a string or an array of strings.
func (s *Secrets) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = Secrets(one)
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("api: secrets must be a string or an array of strings")
	}
	*s = Secrets(strings.Join(many, "\n"))
	return nil
}

// CodesRequest asks for the current code of every secret.
type CodesRequest struct {
	Secrets  Secrets `json:"secrets"`
	TimeStep int64   `json:"time_step,omitempty"`
}

// CodeResult is the outcome for one secret. Exactly one of Code or Error
// is set.
type CodeResult struct {
	Line             int    `json:"line"`
	Code             string `json:"code,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	Error            string `json:"error,omitempty"`
}

// NewCodeResult converts a batch entry to its wire form.
func NewCodeResult(e totp.Entry) CodeResult {
	if !e.OK() {
		return CodeResult{Line: e.Line, Error: e.Message()}
	}
	return CodeResult{Line: e.Line, Code: e.Code, RemainingSeconds: e.Remaining}
}

// CodesResponse lists results in input order.
type CodesResponse struct {
	TimeStep int64        `json:"time_step"`
	Counter  uint64       `json:"counter"`
	Results  []CodeResult `json:"results"`
}

// Codes generates the current code for every non-empty line of the request.
func (s *Service) Codes(ctx context.Context, req CodesRequest) (CodesResponse, error) {
	if s == nil {
		return CodesResponse{}, errors.New("api: service is nil")
	}
	return s.CodesAt(ctx, req, s.cfg.Now())
}

// CodesAt is Codes evaluated at a caller supplied instant.
func (s *Service) CodesAt(ctx context.Context, req CodesRequest, now time.Time) (CodesResponse, error) {
	if s == nil {
		return CodesResponse{}, errors.New("api: service is nil")
	}

	step := req.TimeStep
	if step == 0 {
		step = s.cfg.TimeStep
	}

	entries, err := totp.GenerateBatch(ctx, string(req.Secrets), step, now, totp.WithWorkers(s.cfg.Workers))
	if err != nil {
		return CodesResponse{}, err
	}
	counter, err := totp.CounterAt(now.Unix(), step)
	if err != nil {
		return CodesResponse{}, err
	}

	resp := CodesResponse{
		TimeStep: step,
		Counter:  counter,
		Results:  make([]CodeResult, 0, len(entries)),
	}
	invalid := 0
	for _, e := range entries {
		if !e.OK() {
			invalid++
		}
		resp.Results = append(resp.Results, NewCodeResult(e))
	}

	s.cfg.Metrics.observeCodes(len(entries)-invalid, invalid)
	if invalid > 0 {
		s.cfg.Logger.Debug("batch contained invalid secrets",
			zap.Int("lines", len(entries)),
			zap.Int("invalid", invalid))
	}

	return resp, nil
}

// VerifyRequest checks a code against a secret.
type VerifyRequest struct {
	Secret   string `json:"secret"`
	Code     string `json:"code"`
	TimeStep int64  `json:"time_step,omitempty"`
	Skew     uint   `json:"skew,omitempty"`
}

// VerifyResponse reports whether the code matched.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// Verify checks a code within the configured skew of the current step.
// A mismatched code is not an error; it yields Valid == false.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResponse, error) {
	if s == nil {
		return VerifyResponse{}, errors.New("api: service is nil")
	}
	if strings.TrimSpace(req.Secret) == "" {
		return VerifyResponse{}, ErrMissingSecret
	}
	if strings.TrimSpace(req.Code) == "" {
		return VerifyResponse{}, ErrMissingCode
	}

	step := req.TimeStep
	if step == 0 {
		step = s.cfg.TimeStep
	}
	skew := req.Skew
	if skew == 0 {
		skew = s.cfg.Skew
	}
	if skew > s.cfg.MaxSkew {
		return VerifyResponse{}, fmt.Errorf("%w: %d exceeds %d", ErrSkewTooLarge, skew, s.cfg.MaxSkew)
	}

	auth, err := otp.NewAuthenticator(otp.Config{
		Type:   otp.TypeTOTP,
		Secret: req.Secret,
		Period: step,
		Skew:   skew,
		Now:    s.cfg.Now,
	})
	if err != nil {
		return VerifyResponse{}, err
	}

	err = auth.Authenticate(ctx, req.Code)
	switch {
	case err == nil:
		s.cfg.Metrics.observeVerify(true)
		return VerifyResponse{Valid: true}, nil
	case errors.Is(err, otp.ErrInvalidCode):
		s.cfg.Metrics.observeVerify(false)
		return VerifyResponse{Valid: false}, nil
	default:
		return VerifyResponse{}, err
	}
}
