// Copyright 2026 Joel Johnson Thomas
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/JoelJohnsonThomas/nexus-pipeline/ai"

// MockProvider is a test double for ai.Provider bundling mock services.
type MockProvider struct {
	MockSummarizer *MockSummarizer
	MockEmbedder   *MockEmbedder
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockSummarizer: NewMockSummarizer(),
		MockEmbedder:   NewMockEmbedder(),
	}
}

// Summarizer returns the mock summarization service.
func (p *MockProvider) Summarizer() ai.Summarizer {
	return p.MockSummarizer
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
