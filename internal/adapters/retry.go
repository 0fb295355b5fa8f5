package adapters

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy is the retry schedule an adapter applies to each request.
// Attempts back off exponentially from InitialBackoff, capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Retryable reports whether a failed attempt should be retried. Nil
	// means IsTransient.
	Retryable func(error) bool
}

// RetryPolicyFromSettings converts the configured schedule into a policy
// that retries transient failures.
func RetryPolicyFromSettings(s config.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    s.MaxAttempts,
		InitialBackoff: s.InitialBackoff,
		MaxBackoff:     s.MaxBackoff,
		Retryable:      IsTransient,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The last error is returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.InitialBackoff
	if base <= 0 {
		base = time.Millisecond
	}

	backoff := retry.NewExponential(base)
	if p.MaxBackoff > 0 {
		backoff = retry.WithCappedDuration(p.MaxBackoff, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(attempts-1), backoff)

	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports whether err is worth retrying: transport failures,
// request timeouts, rate limiting and server errors. Caller cancellation is
// never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusRequestTimeout ||
			se.StatusCode == http.StatusTooManyRequests ||
			se.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, errTransport)
}

// errTransport marks request failures that happened before a response was
// received.
var errTransport = errors.New("transport error")
