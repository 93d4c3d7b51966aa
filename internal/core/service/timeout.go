package service

import (
	"context"
	"errors"
	"time"

	"github.com/partnerdesk/console/internal/core/domain"
)

// Default budgets for backend calls.
const (
	DefaultSessionTimeout    = 10 * time.Second
	DefaultProfileTimeout    = 10 * time.Second
	DefaultSuperAdminTimeout = 5 * time.Second
	DefaultBrandingTimeout   = 10 * time.Second
)

// withTimeout races fn against d. When the timer wins the result of fn is
// dropped and a *domain.TimeoutError naming op is returned. A cancelled parent
// context is reported as-is.
func withTimeout[V any](ctx context.Context, op string, d time.Duration, fn func(context.Context) (V, error)) (V, error) {
	if d <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   V
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(tctx)
		ch <- result{v, err}
	}()

	var zero V
	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, &domain.TimeoutError{Op: op, After: d}
		}
		return r.v, r.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &domain.TimeoutError{Op: op, After: d}
	}
}
