// Package llm provides the narrow completion interface the orchestrator
// calls into, plus the concrete backends and the retry/rate-limit wrapper
// shared by all of them.
package llm

import (
	"context"
	"sync"
	"time"

	"impactreview/internal/logging"
)

// Adapter is the narrow asynchronous interface every backend implements.
type Adapter interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
	CompleteStream(ctx context.Context, system, user string, temperature float64, maxTokens int, chunks chan<- string) error
}

// Policy wraps rate-limit spacing and retry around a backend's raw call.
type Policy struct {
	MinInterval time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewPolicy constructs a Policy with the given spacing and retry settings.
func NewPolicy(minInterval time.Duration, maxRetries int, retryDelay time.Duration) *Policy {
	return &Policy{MinInterval: minInterval, MaxRetries: maxRetries, RetryDelay: retryDelay}
}

// wait blocks until at least MinInterval has elapsed since the last call.
func (p *Policy) wait(ctx context.Context) {
	p.mu.Lock()
	elapsed := time.Since(p.lastCall)
	var sleep time.Duration
	if elapsed < p.MinInterval {
		sleep = p.MinInterval - elapsed
	}
	p.lastCall = time.Now().Add(sleep)
	p.mu.Unlock()

	if sleep <= 0 {
		return
	}
	select {
	case <-time.After(sleep):
	case <-ctx.Done():
	}
}

// Call runs fn under rate-limit spacing and linear-backoff retry. On final
// failure it returns the literal diagnostic string rather than an error —
// failures become visible content, never propagated (SPEC_FULL.md §4.7).
func (p *Policy) Call(ctx context.Context, fn func(ctx context.Context) (string, error)) string {
	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		p.wait(ctx)
		text, err := fn(ctx)
		if err == nil {
			return text
		}
		lastErr = err
		logging.LLMError("completion attempt %d/%d failed: %v", attempt, p.MaxRetries, err)
		if attempt == p.MaxRetries {
			break
		}
		delay := p.RetryDelay * time.Duration(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "[LLM error: " + ctx.Err().Error() + "]"
		}
	}
	return "[LLM error: " + lastErr.Error() + "]"
}

// DegradedAdapter is used when no provider is configured, construction
// fails, or an unrecognised provider name is given. Every call returns a
// fixed diagnostic; callers must treat the resulting review as
// completed-but-empty, never failed.
type DegradedAdapter struct{}

const degradedMessage = "[LLM error: no provider configured, running in degraded mode]"

func (DegradedAdapter) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	return degradedMessage, nil
}

func (DegradedAdapter) CompleteStream(ctx context.Context, system, user string, temperature float64, maxTokens int, chunks chan<- string) error {
	chunks <- degradedMessage
	close(chunks)
	return nil
}
