// Package poll implements waiting for the Connect API's asynchronous jobs
// (asset uploads, autofills, exports) to complete.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Polling tuning. Jobs usually finish within a few seconds; the budget
// bounds how long a request handler can stay blocked on one.
const (
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	budget          = 2 * time.Minute
)

// errPending signals that the job is still running and polling should
// continue.
var errPending = errors.New("job still in progress")

// Until polls op with exponential backoff until it reports completion, the
// budget is exhausted or the context is cancelled. op returns done=false
// while the job is in progress; any error from op aborts polling
// immediately.
func Until[T any](ctx context.Context, op func(context.Context) (T, bool, error)) (T, error) {
	return until(ctx, op, initialInterval, budget)
}

func until[T any](ctx context.Context, op func(context.Context) (T, bool, error), initial time.Duration, elapsed time.Duration) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval

	return backoff.Retry(ctx, func() (T, error) {
		result, done, err := op(ctx)
		if err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		if !done {
			var zero T
			return zero, errPending
		}
		return result, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(elapsed))
}
