/*
Package provider wraps the hosted language-model services the coach relays to.
Every service is reached through the same single-method capability so the caller
can walk an ordered chain of them and stop at the first one that answers.
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Shared sampling parameters for every provider.
const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 1024
	DefaultTimeout         = 30 * time.Second
	DefaultMaxRetries      = 2
	initialBackoff         = 500 * time.Millisecond
)

var (
	// ErrTimeout is returned when the provider did not answer before the call deadline.
	ErrTimeout = errors.New("provider did not respond in time")

	// ErrEmptyResponse is returned when the provider answered without any content.
	ErrEmptyResponse = errors.New("provider returned no content")
)

// Prompt is the assembled request handed to a provider.
type Prompt struct {
	// System carries the persona, mapping guide and catalog.
	System string

	// User carries the workout history block and the question.
	User string

	// JSON asks the provider for a single JSON object when it supports it.
	JSON bool
}

// Combined joins the system and user text for providers without separate roles.
func (p Prompt) Combined() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// Provider is one hosted model the coach can ask.
type Provider interface {
	// Name is the engine tag reported back to the client.
	Name() string

	// Generate returns the raw text the model produced.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// StatusError describes a non-200 answer from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Code, e.Body)
}

// Retryable reports whether the same request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// classifyContextErr maps a deadline on ctx, or a network timeout, into ErrTimeout.
func classifyContextErr(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// AttemptBudget is the longest a provider can take for one request when each of
// attempts calls runs into timeout and every retry waits its full backoff.
// Zero values fall back to DefaultTimeout and DefaultMaxRetries.
func AttemptBudget(timeout time.Duration, attempts int) time.Duration {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	budget := time.Duration(attempts) * timeout
	for i := 0; i < attempts-1; i++ {
		budget += backoff(i)
	}
	return budget
}

// backoff returns the wait before retry number attempt (0-based).
func backoff(attempt int) time.Duration {
	return initialBackoff * time.Duration(1<<uint(attempt))
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
