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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/JoelJohnsonThomas/nexus-pipeline/ai"
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client     llms.Model
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// summaryResponse is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type summaryResponse struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.SummarizerHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.SummarizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		client:     client,
		model:      config.SummarizerModel,
		maxRetries: config.MaxRetries,
		baseDelay:  config.RetryBaseDelay,
		maxDelay:   config.RetryMaxDelay,
		logger:     slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize produces a summary and key points for the given text.
// Oversized text is truncated before it reaches the model. Transient API
// failures and malformed responses are retried with exponential backoff.
func (s *Summarizer) Summarize(ctx context.Context, title, text string) (*ai.SummaryResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	text = ai.TruncateText(text, ai.MaxSummarizeChars)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSummaryPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Title: %s\n\n%s", title, text)),
			},
		},
	}

	var parsed summaryResponse
	err := ai.RetryWithBackoff(ctx, func() error {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return err
		}
		if len(response.Choices) < 1 {
			return ai.ErrMalformedResponse
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
			s.logger.Warn("error parsing summarizer response", "response", responseText, "err", err)
			return fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
		}
		if strings.TrimSpace(parsed.Summary) == "" {
			return fmt.Errorf("%w: empty summary", ai.ErrMalformedResponse)
		}
		return nil
	}, s.maxRetries, s.baseDelay, s.maxDelay)

	if err != nil {
		s.logger.Error("summarization failed", "title", title, "err", err)
		return nil, err
	}

	s.logger.Debug("summarized content", "title", title, "key_points", len(parsed.KeyPoints))
	return &ai.SummaryResult{
		Summary:   strings.TrimSpace(parsed.Summary),
		KeyPoints: parsed.KeyPoints,
		Model:     s.model,
	}, nil
}
