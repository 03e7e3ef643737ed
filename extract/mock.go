package extract

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// MockExtractor is a test double for Extractor.
// It allows custom behavior injection via a function field.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, uses default deterministic behavior.
	ExtractFunc func(ctx context.Context, item *core.Item) (*Result, error)

	callCount atomic.Int64
}

var _ Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with default deterministic behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract returns deterministic content derived from the item.
func (m *MockExtractor) Extract(ctx context.Context, item *core.Item) (*Result, error) {
	m.callCount.Add(1)

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, item)
	}

	return &Result{
		Content: fmt.Sprintf("Extracted content for item %d at %s. This mock body is long enough to pass content checks downstream of extraction in the processing pipeline.", item.Id, item.URL),
		Title:   item.Title,
		Method:  MethodMarkdown,
	}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractFunc = nil
}
