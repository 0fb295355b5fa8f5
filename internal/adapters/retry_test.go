package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Do(t *testing.T) {
	p := fastRetry(3)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_CustomPredicate(t *testing.T) {
	errFlaky := errors.New("flaky")
	p := fastRetry(5)
	p.Retryable = func(err error) bool { return errors.Is(err, errFlaky) }

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("wrapped: %w", errFlaky)
	})
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 5, calls)

	calls = 0
	err = p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("permanent")
	})
	require.EqualError(t, err, "permanent")
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ZeroValueMakesOneAttempt(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusInternalServerError}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	_ = NoRetry().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusInternalServerError}
	})
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 10, InitialBackoff: time.Hour}

	calls := 0
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return &StatusError{StatusCode: http.StatusInternalServerError}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyFromSettings(t *testing.T) {
	p := RetryPolicyFromSettings(config.DefaultSettings().Retry)
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.InitialBackoff)
	assert.Equal(t, 10*time.Second, p.MaxBackoff)
	require.NotNil(t, p.Retryable)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "429", err: &StatusError{StatusCode: 429}, want: true},
		{name: "408", err: &StatusError{StatusCode: 408}, want: true},
		{name: "503 wrapped", err: fmt.Errorf("x: %w", &StatusError{StatusCode: 503}), want: true},
		{name: "400", err: &StatusError{StatusCode: 400}, want: false},
		{name: "transport", err: fmt.Errorf("%w: dial", errTransport), want: true},
		{name: "plain", err: errors.New("decode"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
