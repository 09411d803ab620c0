package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/arturoeanton/storyline/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failures []error
	calls    int
}

func (f *flakyProvider) next() error {
	f.calls++
	if len(f.failures) == 0 {
		return nil
	}
	err := f.failures[0]
	f.failures = f.failures[1:]
	return err
}

func (f *flakyProvider) ModelName() string { return "fake" }

func (f *flakyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	return []float32{1, 0}, nil
}

func (f *flakyProvider) Complete(ctx context.Context, instructions, input string) (string, error) {
	if err := f.next(); err != nil {
		return "", err
	}
	return "paragraph", nil
}

func (f *flakyProvider) Chat(ctx context.Context, messages []port.ChatTurn) (string, error) {
	if err := f.next(); err != nil {
		return "", err
	}
	return "reply", nil
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Timeout: time.Second}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	fake := &flakyProvider{failures: []error{
		&port.UpstreamError{Provider: "fake", Op: "embed", StatusCode: http.StatusServiceUnavailable, Err: errors.New("busy")},
		&port.UpstreamError{Provider: "fake", Op: "embed", Err: context.DeadlineExceeded},
	}}

	vec, err := WithRetry(fake, fastPolicy(3)).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 3, fake.calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	fake := &flakyProvider{failures: []error{
		&port.UpstreamError{Provider: "fake", Op: "complete", StatusCode: http.StatusBadRequest, Err: errors.New("bad prompt")},
	}}

	_, err := WithRetry(fake, fastPolicy(3)).Complete(context.Background(), "i", "x")
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)

	var ue *port.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
}

func TestRetryDoesNotRetryNonUpstreamErrors(t *testing.T) {
	fake := &flakyProvider{failures: []error{errors.New("marshal payload")}}

	_, err := WithRetry(fake, fastPolicy(3)).Chat(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	transient := &port.UpstreamError{Provider: "fake", Op: "embed", StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
	fake := &flakyProvider{failures: []error{transient, transient, transient, transient, transient}}

	_, err := WithRetry(fake, fastPolicy(2)).Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls)
	assert.ErrorIs(t, err, transient)
}

func TestUpstreamErrorRetryable(t *testing.T) {
	cases := map[int]bool{0: true, 429: true, 500: true, 502: true, 400: false, 401: false, 404: false}
	for status, want := range cases {
		ue := &port.UpstreamError{StatusCode: status}
		assert.Equal(t, want, ue.Retryable(), "status %d", status)
	}

	assert.False(t, (&port.UpstreamError{Malformed: true}).Retryable())
}
