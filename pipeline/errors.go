package pipeline

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrStatusRepositoryRequired is returned when a status repository is not provided.
	ErrStatusRepositoryRequired = errors.New("status repository required")

	// ErrSummaryRepositoryRequired is returned when a summary repository is not provided.
	ErrSummaryRepositoryRequired = errors.New("summary repository required")

	// ErrEmbeddingRepositoryRequired is returned when an embedding repository is not provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository required")

	// ErrQueueRequired is returned when a job queue is not provided.
	ErrQueueRequired = errors.New("job queue required")

	// ErrExtractorRequired is returned when a content extractor is not provided.
	ErrExtractorRequired = errors.New("content extractor required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// Failure reasons persisted to processing records. These surface to
// operators through the record's error message, so they stay short and
// human-readable.
const (
	reasonItemNotFound        = "item not found"
	reasonItemLoadFailed      = "item lookup failed"
	reasonExtractionFailed    = "content extraction failed"
	reasonInsufficientContent = "insufficient content"
	reasonInsufficientText    = "insufficient text"
	reasonSummarizationFailed = "summarization failed"
	reasonEmbeddingFailed     = "embedding generation failed"
)

// Stage entry thresholds.
const (
	// minExtractedChars is the length above which existing extracted text
	// makes re-extraction unnecessary.
	minExtractedChars = 100

	// minSummarizeChars is the minimum content length worth summarizing.
	minSummarizeChars = 50

	// minEmbedChars is the minimum text length worth embedding.
	minEmbedChars = 10
)
