package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 384, cfg.EmbeddingDimensions)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://localhost:9100"),
		WithSummarizerModel("gpt-4o-mini"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithEmbeddingDimensions(1536),
		WithAPIKey("secret"),
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:9100/v1", cfg.SummarizerHost)
	assert.Equal(t, "http://localhost:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "gpt-4o-mini", cfg.SummarizerModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestConfigNormalize(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.SummarizerHost)

	// Already normalized hosts stay untouched
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.SummarizerHost)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty summarizer model", func(c *Config) { c.SummarizerModel = "" }},
		{"empty embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"zero dimensions", func(c *Config) { c.EmbeddingDimensions = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"max delay below base", func(c *Config) { c.RetryMaxDelay = c.RetryBaseDelay / 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "abc", TruncateText("abc", 10))
	assert.Equal(t, "abc", TruncateText("abcdef", 3))
	assert.Equal(t, "abc", TruncateText("  abc  ", 10))

	long := strings.Repeat("x", MaxSummarizeChars+100)
	assert.Len(t, TruncateText(long, MaxSummarizeChars), MaxSummarizeChars)
}
