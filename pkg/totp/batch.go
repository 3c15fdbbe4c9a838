package totp

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// InvalidSecretMessage is the marker reported for a batch line that could
// not produce a code.
const InvalidSecretMessage = "Invalid secret"

// DefaultWorkers bounds the number of lines evaluated concurrently.
const DefaultWorkers = 8

// Line is a non-empty, trimmed input line.
type Line struct {
	// Number is the one based line number in the original input.
	Number int
	// Secret is the trimmed line content.
	Secret string
}

// Entry is the outcome for a single batch line.
type Entry struct {
	// Index is the zero based position among non-empty lines.
	Index int
	// Line is the one based line number in the original input.
	Line int
	Result
	// Err is set when the line failed; it wraps ErrInvalidSecret.
	Err error
}

// OK reports whether the entry carries a code.
func (e Entry) OK() bool {
	return e.Err == nil
}

// Message returns the code, or the invalid secret marker for a failed entry.
func (e Entry) Message() string {
	if e.Err != nil {
		return InvalidSecretMessage
	}
	return e.Code
}

type batchOptions struct {
	workers int
}

// BatchOption configures GenerateBatch.
type BatchOption func(*batchOptions)

// WithWorkers sets the number of lines evaluated concurrently.
// Values below one fall back to DefaultWorkers.
func WithWorkers(n int) BatchOption {
	return func(o *batchOptions) {
		o.workers = n
	}
}

// SplitSecrets splits newline separated input into trimmed, non-empty lines.
func SplitSecrets(input string) []Line {
	var lines []Line
	for i, raw := range strings.Split(input, "\n") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		lines = append(lines, Line{Number: i + 1, Secret: s})
	}
	return lines
}

// GenerateBatch generates a code for every non-empty line of input at the
// given time. Lines are independent: a bad secret is reported on its own
// Entry and never aborts the others. Entries are returned in input order.
//
// The call itself fails only when step or at is invalid, or when ctx is
// cancelled.
func GenerateBatch(ctx context.Context, input string, step int64, at time.Time, opts ...BatchOption) ([]Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := CounterAt(at.Unix(), step); err != nil {
		return nil, err
	}

	o := batchOptions{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = DefaultWorkers
	}

	lines := SplitSecrets(input)
	entries := make([]Entry, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := GenerateAt(line.Secret, step, at)
			if err != nil && !errors.Is(err, ErrInvalidSecret) {
				return err
			}
			entries[i] = Entry{Index: i, Line: line.Number, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}
