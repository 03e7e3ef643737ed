package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/JoelJohnsonThomas/nexus-pipeline/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default deterministic behavior.
	SummarizeFunc func(ctx context.Context, title, text string) (*ai.SummaryResult, error)

	callCount atomic.Int64
}

// NewMockSummarizer creates a mock summarizer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a deterministic summary derived from the title.
func (m *MockSummarizer) Summarize(ctx context.Context, title, text string) (*ai.SummaryResult, error) {
	m.callCount.Add(1)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, title, text)
	}

	return &ai.SummaryResult{
		Summary: fmt.Sprintf("Summary of %q covering %d characters of content.", title, len(text)),
		KeyPoints: []string{
			fmt.Sprintf("First key point for %q.", title),
			fmt.Sprintf("Second key point for %q.", title),
		},
		Model: "mock-summarizer",
	}, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockSummarizer) Reset() {
	m.callCount.Store(0)
	m.SummarizeFunc = nil
}
