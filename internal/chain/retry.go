package chain

import (
	"context"
	"errors"
	"time"
)

// maxBackoff caps the doubling delay between RPC attempts.
const maxBackoff = 5 * time.Second

// withRetry re-runs an RPC call until it succeeds or the attempt budget
// runs out. A call that failed with a canceled context is not re-run: the
// scan that wanted the result is already gone.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if delay < maxBackoff {
			delay *= 2
		}
	}
}
