package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDegradedAdapterCompleteReturnsFixedDiagnostic(t *testing.T) {
	a := DegradedAdapter{}
	text, err := a.Complete(context.Background(), "sys", "usr", 0.2, 100)
	assert.NoError(t, err)
	assert.Contains(t, text, "degraded mode")
}

func TestDegradedAdapterCompleteStreamSendsOneChunkAndCloses(t *testing.T) {
	a := DegradedAdapter{}
	chunks := make(chan string, 1)
	err := a.CompleteStream(context.Background(), "sys", "usr", 0.2, 100, chunks)
	assert.NoError(t, err)
	chunk, ok := <-chunks
	assert.True(t, ok)
	assert.Contains(t, chunk, "degraded mode")
	_, ok = <-chunks
	assert.False(t, ok)
}

func TestPolicyCallReturnsResultOnFirstSuccess(t *testing.T) {
	p := NewPolicy(0, 3, time.Millisecond)
	calls := 0
	result := p.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestPolicyCallRetriesThenSucceeds(t *testing.T) {
	p := NewPolicy(0, 3, time.Millisecond)
	calls := 0
	result := p.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	})
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 2, calls)
}

func TestPolicyCallReturnsDiagnosticOnFinalFailure(t *testing.T) {
	p := NewPolicy(0, 2, time.Millisecond)
	calls := 0
	result := p.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("permanent failure")
	})
	assert.Equal(t, "[LLM error: permanent failure]", result)
	assert.Equal(t, 2, calls)
}

func TestPolicyEnforcesMinInterval(t *testing.T) {
	p := NewPolicy(30*time.Millisecond, 1, time.Millisecond)
	start := time.Now()
	p.Call(context.Background(), func(ctx context.Context) (string, error) { return "a", nil })
	p.Call(context.Background(), func(ctx context.Context) (string, error) { return "b", nil })
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
