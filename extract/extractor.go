package extract

import (
	"context"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// Extraction methods recorded on items.
const (
	// MethodMarkdown is HTML converted to markdown, the preferred path.
	MethodMarkdown = "html2md"

	// MethodPlainText is the plain-text fallback for pages the markdown
	// converter cannot handle.
	MethodPlainText = "plaintext"

	// MethodTranscript is transcript text fetched for video items.
	MethodTranscript = "transcript"
)

// Result holds the outcome of a content extraction.
type Result struct {
	// Content is the extracted text.
	Content string

	// Title is the page title, when one could be determined.
	Title string

	// Method records which extraction path produced the content.
	Method string
}

// Extractor extracts text content for an item.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract fetches and extracts the content for an item. Video items
	// are resolved to transcripts; everything else is fetched over HTTP.
	Extract(ctx context.Context, item *core.Item) (*Result, error)
}
