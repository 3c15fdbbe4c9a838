// Package refresh re-invokes a callback on a fixed interval.
//
// Every tick reads the clock again; nothing is carried over from the
// previous tick, so delayed or dropped ticks correct themselves.
package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the tick used when Loop.Interval is not set.
const DefaultInterval = time.Second

// Func is invoked with the current time on every tick.
// Returning an error stops the loop.
type Func func(ctx context.Context, now time.Time) error

// Loop drives a Func from a ticker until its context is done.
type Loop struct {
	// Interval between invocations. Default: DefaultInterval
	Interval time.Duration
	// Now returns the current time. Default: time.Now
	Now func() time.Time
	// Log receives tick diagnostics. Default: no-op
	Log *zap.Logger
}

// Run invokes fn immediately and then on every tick. It returns nil when
// ctx is cancelled, or the first error returned by fn.
func (l Loop) Run(ctx context.Context, fn Func) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	return l.run(ctx, ticker.C, fn)
}

func (l Loop) run(ctx context.Context, ticks <-chan time.Time, fn Func) error {
	if fn == nil {
		return errors.New("refresh: nil func")
	}
	now := l.Now
	if now == nil {
		now = time.Now
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}

	if err := fn(ctx, now()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("refresh loop stopped", zap.Error(ctx.Err()))
			return nil
		case <-ticks:
			t := now()
			if err := fn(ctx, t); err != nil {
				log.Debug("refresh callback failed", zap.Time("at", t), zap.Error(err))
				return err
			}
		}
	}
}
