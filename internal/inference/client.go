// Package inference talks to the language-model service used for schema
// inference, category standardization and classification. The service is a
// stateless prompt-in, text-out contract; callers extract JSON from the
// free-form reply with ExtractJSON.
package inference

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Client sends one prompt and returns the model's raw text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when the service replies with no text.
var ErrEmptyResponse = errors.New("empty response from inference service")

// Timeout bounds every call made through it.
type Timeout struct {
	next    Client
	timeout time.Duration
}

// WithTimeout wraps next so each call is cancelled after d. A non-positive
// d returns next unchanged.
func WithTimeout(next Client, d time.Duration) Client {
	if d <= 0 || next == nil {
		return next
	}
	return &Timeout{next: next, timeout: d}
}

// Complete forwards prompt with the per-request deadline applied.
func (t *Timeout) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}

// Limited applies a token-bucket rate limit in front of a Client.
type Limited struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit allows at most perMinute calls per minute with a burst of
// one. A non-positive perMinute returns next unchanged.
func WithRateLimit(next Client, perMinute int) Client {
	if perMinute <= 0 || next == nil {
		return next
	}
	every := time.Minute / time.Duration(perMinute)
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Complete waits for the rate limiter, then forwards prompt. Waiting
// stops when ctx is done.
func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Complete(ctx, prompt)
}
