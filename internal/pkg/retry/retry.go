// Package retry wraps exponential backoff for connecting to infrastructure
// at startup.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxElapsed     time.Duration
}

// Startup is used when dialling databases and brokers.
var Startup = Policy{MaxRetries: 5, InitialBackoff: 500 * time.Millisecond, MaxElapsed: 30 * time.Second}

// Do calls fn until it succeeds, ctx is done, or the policy is exhausted.
// It returns the last error of fn.
func Do(ctx context.Context, name string, p Policy, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		bo.InitialInterval = p.InitialBackoff
	}
	bo.MaxElapsedTime = p.MaxElapsed

	var b backoff.BackOff = bo
	if p.MaxRetries > 0 {
		b = backoff.WithMaxRetries(b, p.MaxRetries)
	}

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err != nil {
			slog.Warn("connect attempt failed", "target", name, "attempt", attempt, "error", err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// Value is Do for functions returning a value.
func Value[T any](ctx context.Context, name string, p Policy, fn func() (T, error)) (T, error) {
	var v T
	err := Do(ctx, name, p, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}
