package gateway

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryingGateway repeats transient failures with exponential backoff.
// Every attempt reuses the caller's idempotency key. Permanent rejections
// are returned at once.
type RetryingGateway struct {
	next        Gateway
	maxAttempts uint
	baseDelay   time.Duration
}

func NewRetryingGateway(next Gateway, maxAttempts int, baseDelay time.Duration) *RetryingGateway {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingGateway{next: next, maxAttempts: uint(maxAttempts), baseDelay: baseDelay}
}

func (g *RetryingGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	policy := backoff.NewExponentialBackOff()
	if g.baseDelay > 0 {
		policy.InitialInterval = g.baseDelay
	}

	return backoff.Retry(ctx, func() (*RefundResult, error) {
		res, err := g.next.Refund(ctx, req)
		if err != nil && IsPermanent(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(g.maxAttempts))
}
