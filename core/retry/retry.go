package retry

import (
	"context"

	"github.com/cenkalti/backoff/v5"
)

// Do runs op until it succeeds, returns a permanent error, or the attempts run out.
//
// Every attempt gets its own deadline derived from ctx. The delay between attempts
// doubles from InitialIntervalMs up to MaxIntervalMs, without jitter, so the schedule
// is the same for every caller.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.initialInterval()
	b.MaxInterval = cfg.maxInterval()
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := func() (T, error) {
		actx, cancel := context.WithTimeout(ctx, cfg.timeout())
		defer cancel()
		return op(actx)
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.attempts()),
		backoff.WithMaxElapsedTime(0),
	)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Permanent marks err as not worth retrying. Do returns the unwrapped err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
