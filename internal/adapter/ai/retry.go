package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arturoeanton/storyline/internal/port"
	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds provider calls. Each attempt gets its own Timeout.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// RetryingProvider wraps a provider and retries transient upstream errors
// with exponential backoff and jitter. Other errors are returned at once.
type RetryingProvider struct {
	next   port.AIProvider
	policy RetryPolicy
}

// WithRetry decorates p with policy.
func WithRetry(p port.AIProvider, policy RetryPolicy) *RetryingProvider {
	if policy.MaxDelay == 0 {
		policy.MaxDelay = 30 * time.Second
	}
	return &RetryingProvider{next: p, policy: policy}
}

// ModelName returns the wrapped provider's model.
func (r *RetryingProvider) ModelName() string {
	return r.next.ModelName()
}

// Embed retries the wrapped Embed.
func (r *RetryingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return retry(ctx, r.policy, "embed", func(ctx context.Context) ([]float32, error) {
		return r.next.Embed(ctx, text)
	})
}

// Complete retries the wrapped Complete.
func (r *RetryingProvider) Complete(ctx context.Context, instructions, input string) (string, error) {
	return retry(ctx, r.policy, "complete", func(ctx context.Context) (string, error) {
		return r.next.Complete(ctx, instructions, input)
	})
}

// Chat retries the wrapped Chat.
func (r *RetryingProvider) Chat(ctx context.Context, messages []port.ChatTurn) (string, error) {
	return retry(ctx, r.policy, "chat", func(ctx context.Context) (string, error) {
		return r.next.Chat(ctx, messages)
	})
}

func retry[T any](ctx context.Context, policy RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.25

	attempt := 0
	operation := func() (T, error) {
		attempt++
		callCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}

		v, err := fn(callCtx)
		if err == nil {
			return v, nil
		}

		var ue *port.UpstreamError
		if errors.As(err, &ue) && ue.Retryable() && ctx.Err() == nil {
			return v, err
		}
		return v, backoff.Permanent(err)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("provider call failed, retrying", "op", op, "attempt", attempt, "next_in", next, "error", err)
		}),
	)
}
