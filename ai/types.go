package ai

import "strings"

// SummaryResult is the structured output of a summarization call.
type SummaryResult struct {
	// Summary is a short prose summary of the content.
	Summary string

	// KeyPoints are the main takeaways, one short sentence each.
	KeyPoints []string

	// Model is the identifier of the model that produced the summary.
	Model string
}

// Input limits applied before sending content to models. Content beyond
// these limits adds cost without improving the output.
const (
	// MaxSummarizeChars caps the text sent to the summarization model.
	MaxSummarizeChars = 25000

	// MaxEmbedChars caps the text sent to the embedding model.
	MaxEmbedChars = 5000
)

// TruncateText truncates text to at most max runes.
func TruncateText(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}
