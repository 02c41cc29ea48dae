package llm

import (
	"context"
	"errors"
	"time"

	"github.com/liliang-cn/captainclaw/internal/domain"
)

// RetryPolicy decides whether a failed provider call is attempted again
type RetryPolicy interface {
	Do(ctx context.Context, call func(ctx context.Context) error) error
}

// NoRetry runs the call exactly once
type NoRetry struct{}

func (NoRetry) Do(ctx context.Context, call func(ctx context.Context) error) error {
	return call(ctx)
}

// BackoffRetry retries rate-limited and unavailable calls up to Attempts
// extra times, doubling Delay after each failure.
type BackoffRetry struct {
	Attempts int
	Delay    time.Duration
}

func (b BackoffRetry) Do(ctx context.Context, call func(ctx context.Context) error) error {
	delay := b.Delay
	err := call(ctx)
	for attempt := 0; attempt < b.Attempts && retryable(err); attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
		err = call(ctx)
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUnavailable)
}

// NewRetryPolicy returns NoRetry when attempts is zero
func NewRetryPolicy(attempts int, delay time.Duration) RetryPolicy {
	if attempts <= 0 {
		return NoRetry{}
	}
	return BackoffRetry{Attempts: attempts, Delay: delay}
}
