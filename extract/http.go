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


package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

const (
	defaultFetchTimeout     = 30 * time.Second
	defaultTranscriptTries  = 3
	maxResponseBytes        = 10 << 20 // 10 MiB
	defaultUserAgent        = "nexus-pipeline/1.0"
	youtubeWatchURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// HTTPExtractor implements Extractor over plain HTTP.
type HTTPExtractor struct {
	client          *http.Client
	converter       *md.Converter
	transcriptURL   string
	transcriptKey   string
	transcriptTries int
	logger          *slog.Logger
}

var _ Extractor = (*HTTPExtractor)(nil)

// HTTPOption configures an HTTPExtractor.
type HTTPOption func(*HTTPExtractor)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(e *HTTPExtractor) {
		if client != nil {
			e.client = client
		}
	}
}

// WithTranscriptAPI configures the transcript service for video items.
// Without it, video extraction returns ErrTranscriptUnavailable.
func WithTranscriptAPI(url, apiKey string) HTTPOption {
	return func(e *HTTPExtractor) {
		e.transcriptURL = url
		e.transcriptKey = apiKey
	}
}

// WithTranscriptRetries sets how many times a rate-limited transcript
// fetch is retried.
func WithTranscriptRetries(tries int) HTTPOption {
	return func(e *HTTPExtractor) {
		if tries > 0 {
			e.transcriptTries = tries
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(e *HTTPExtractor) {
		if logger != nil {
			e.logger = logger.With("component", "extractor")
		}
	}
}

// NewHTTPExtractor creates an extractor with default settings.
//
// Returns the Extractor interface to enforce abstraction.
func NewHTTPExtractor(opts ...HTTPOption) Extractor {
	e := &HTTPExtractor{
		client:          &http.Client{Timeout: defaultFetchTimeout},
		converter:       md.NewConverter("", true, nil),
		transcriptTries: defaultTranscriptTries,
		logger:          slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches and extracts the content for an item.
func (e *HTTPExtractor) Extract(ctx context.Context, item *core.Item) (*Result, error) {
	if item.IsVideo() {
		return e.extractTranscript(ctx, item.VideoID)
	}
	if strings.TrimSpace(item.URL) == "" {
		return nil, core.ErrEmptyURL
	}
	return e.extractPage(ctx, item.URL)
}

// extractPage fetches a page and extracts its text. Markdown conversion
// is the primary path; plain text from the parsed document is the fallback.
func (e *HTTPExtractor) extractPage(ctx context.Context, url string) (*Result, error) {
	body, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	content, convErr := e.converter.ConvertString(body)
	content = strings.TrimSpace(content)
	if convErr == nil && content != "" {
		return &Result{Content: content, Title: title, Method: MethodMarkdown}, nil
	}
	if convErr != nil {
		e.logger.Warn("markdown conversion failed, falling back to plain text", "url", url, "err", convErr)
	}

	content = extractPlainText(doc)
	if content == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, url)
	}
	return &Result{Content: content, Title: title, Method: MethodPlainText}, nil
}

// fetch retrieves a URL body, bounding the response size.
func (e *HTTPExtractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}

// extractTranscript fetches transcript text for a video, retrying
// rate-limited responses with growing delays.
func (e *HTTPExtractor) extractTranscript(ctx context.Context, videoID string) (*Result, error) {
	if e.transcriptURL == "" {
		return nil, ErrTranscriptUnavailable
	}

	var lastErr error
	for attempt := 0; attempt < e.transcriptTries; attempt++ {
		transcript, err := e.fetchTranscript(ctx, videoID)
		if err == nil {
			if strings.TrimSpace(transcript) == "" {
				return nil, fmt.Errorf("%w: empty transcript for video %s", ErrTranscriptUnavailable, videoID)
			}
			return &Result{Content: transcript, Method: MethodTranscript}, nil
		}
		lastErr = err

		httpErr, ok := err.(*HTTPError)
		if !ok || httpErr.StatusCode != http.StatusTooManyRequests {
			return nil, err
		}

		e.logger.Warn("transcript API rate limited, backing off", "video_id", videoID, "attempt", attempt+1)
		timer := time.NewTimer(time.Second * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("exceeded transcript retries: %w", lastErr)
}

func (e *HTTPExtractor) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.transcriptURL, nil)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Add("url", fmt.Sprintf(youtubeWatchURLTemplate, videoID))
	q.Add("api_key", e.transcriptKey)
	q.Add("text", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: e.transcriptURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// extractPlainText pulls readable text out of a parsed document,
// preferring semantic content containers over the whole body.
func extractPlainText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	for _, selector := range []string{"article", "main", "body"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := normalizeWhitespace(sel.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// normalizeWhitespace collapses runs of whitespace into single spaces
// while keeping paragraph breaks.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return b.String()
}
