package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
<article>
<h1>Test Article</h1>
<p>First paragraph with some <strong>bold</strong> text.</p>
<p>Second paragraph linking to <a href="https://example.com">a site</a>.</p>
</article>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	extractor := NewHTTPExtractor()
	result, err := extractor.Extract(context.Background(), &core.Item{Id: 1, Title: "Test", URL: server.URL})
	require.NoError(t, err)

	assert.Equal(t, MethodMarkdown, result.Method)
	assert.Equal(t, "Test Article", result.Title)
	assert.Contains(t, result.Content, "First paragraph")
	assert.Contains(t, result.Content, "**bold**")
}

func TestExtractHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor()
	_, err := extractor.Extract(context.Background(), &core.Item{Id: 1, URL: server.URL})
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestExtractEmptyURL(t *testing.T) {
	extractor := NewHTTPExtractor()
	_, err := extractor.Extract(context.Background(), &core.Item{Id: 1})
	assert.ErrorIs(t, err, core.ErrEmptyURL)
}

func TestExtractTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "watch?v=abc123")
		assert.Equal(t, "true", r.URL.Query().Get("text"))
		_, _ = w.Write([]byte("this is the transcript text"))
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(WithTranscriptAPI(server.URL, "key"))
	result, err := extractor.Extract(context.Background(), &core.Item{Id: 1, VideoID: "abc123"})
	require.NoError(t, err)

	assert.Equal(t, MethodTranscript, result.Method)
	assert.Equal(t, "this is the transcript text", result.Content)
}

func TestExtractTranscriptUnconfigured(t *testing.T) {
	extractor := NewHTTPExtractor()
	_, err := extractor.Extract(context.Background(), &core.Item{Id: 1, VideoID: "abc123"})
	assert.ErrorIs(t, err, ErrTranscriptUnavailable)
}

func TestExtractTranscriptRateLimitRetry(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("transcript after retry"))
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(WithTranscriptAPI(server.URL, "key"), WithTranscriptRetries(3))
	result, err := extractor.Extract(context.Background(), &core.Item{Id: 1, VideoID: "abc123"})
	require.NoError(t, err)

	assert.Equal(t, "transcript after retry", result.Content)
	assert.Equal(t, int64(2), calls.Load())
}

func TestExtractPlainTextFallback(t *testing.T) {
	doc := `<html><head><title>Plain</title></head><body>
<script>var x = 1;</script>
<main><p>Visible   text
here.</p></main>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doc))
	}))
	defer server.Close()

	extractor := NewHTTPExtractor()
	result, err := extractor.Extract(context.Background(), &core.Item{Id: 1, URL: server.URL})
	require.NoError(t, err)

	// The converter handles this page, but either path must exclude scripts
	assert.NotContains(t, result.Content, "var x")
	assert.Contains(t, result.Content, "Visible")
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "  line   one  \n\n\n line two \n"
	out := normalizeWhitespace(in)
	assert.Equal(t, "line one\nline two", out)
	assert.False(t, strings.Contains(out, "  "))
}
