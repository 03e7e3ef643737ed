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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// SummarizerHost is the base URL for the summarization service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	SummarizerHost string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// SummarizerModel is the model identifier to use for summarization.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	SummarizerModel string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// APIKey authenticates against the service. Local OpenAI-compatible
	// servers typically accept any value.
	APIKey string

	// EmbeddingDimensions is the expected embedding vector size.
	// A vector of any other size is rejected. Default: 384
	EmbeddingDimensions int

	// MaxRetries is the number of attempts for a model call.
	// Default: 3
	MaxRetries int

	// RetryBaseDelay is the delay before the first retry; it doubles on
	// each subsequent retry. Default: 2s
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the delay between retries. Default: 10s
	RetryMaxDelay time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithSummarizerHost sets the summarization service host URL.
func WithSummarizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummarizerHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both summarizer and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummarizerHost = host
		c.EmbeddingHost = host
	}
}

// WithSummarizerModel sets the summarization model identifier.
func WithSummarizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.SummarizerModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the service API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingDimensions sets the expected embedding vector size.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dims
	}
}

// WithMaxRetries sets the number of attempts for a model call.
func WithMaxRetries(retries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both summarizer and embedder use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		SummarizerHost:      defaultHost,
		EmbeddingHost:       defaultHost,
		SummarizerModel:     "qwen2.5:3b",
		EmbeddingModel:      "embeddinggemma",
		APIKey:              "none",
		EmbeddingDimensions: 384,
		MaxRetries:          3,
		RetryBaseDelay:      2 * time.Second,
		RetryMaxDelay:       10 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.SummarizerHost != "" && !strings.HasSuffix(c.SummarizerHost, "/v1") {
		c.SummarizerHost = strings.TrimSuffix(c.SummarizerHost, "/")
		c.SummarizerHost = c.SummarizerHost + "/v1"
	}
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.SummarizerHost == "" {
		return errors.New("ai config: SummarizerHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.SummarizerModel == "" {
		return errors.New("ai config: SummarizerModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return errors.New("ai config: retry delays must be positive and RetryMaxDelay >= RetryBaseDelay")
	}
	return nil
}
