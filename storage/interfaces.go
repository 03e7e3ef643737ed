package storage

import (
	"context"
	"time"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe: stage workers on separate goroutines
// hit the same stores concurrently.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// ItemRepository provides operations for managing content items.
type ItemRepository interface {
	Repository

	// AddItems adds one or more items to storage.
	// For items with ID=0, derives a content-based ID from the URL, which
	// makes re-scraping the same URL a natural upsert.
	// Sets InsertedAt if not already set.
	// Returns the items with IDs and timestamps populated.
	AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// UpdateItems updates existing items in place.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// GetItemsByScrapedRange retrieves items scraped within a time range.
	// Returns items where start <= ScrapedAt < end, ordered by scrape time.
	GetItemsByScrapedRange(ctx context.Context, start, end time.Time) ([]*core.Item, error)
}

// StatusRepository is the single source of truth for pipeline state.
// One ProcessingRecord exists per item at any time.
type StatusRepository interface {
	Repository

	// RecordStatus upserts the processing record for an item.
	// If no record exists, one is created with the given status and stage.
	// Otherwise status is updated; stage is updated only when non-zero;
	// a non-empty errMsg additionally sets ErrorMessage and increments
	// RetryCount. The status value is validated before the write.
	// The write is atomic per record; concurrent writers to the same item
	// are last-writer-wins.
	RecordStatus(ctx context.Context, itemID core.ID, status core.Status, stage core.Stage, errMsg string) (*core.ProcessingRecord, error)

	// GetRecord retrieves the processing record for an item.
	// Returns ErrNotFound if no record exists.
	GetRecord(ctx context.Context, itemID core.ID) (*core.ProcessingRecord, error)

	// ListByStatus retrieves all records currently in the given status.
	ListByStatus(ctx context.Context, status core.Status) ([]*core.ProcessingRecord, error)

	// CountByStatus returns the number of records grouped by status.
	CountByStatus(ctx context.Context) (map[core.Status]int, error)
}

// SummaryRepository stores at most one summary per item.
type SummaryRepository interface {
	Repository

	// PutSummary stores a summary. Returns ErrDuplicateKey if a summary
	// already exists for the item; this uniqueness constraint is the
	// backstop behind the handlers' read-then-write idempotency checks.
	PutSummary(ctx context.Context, summary *core.Summary) (*core.Summary, error)

	// GetSummary retrieves the summary for an item.
	// Returns ErrNotFound if none exists.
	GetSummary(ctx context.Context, itemID core.ID) (*core.Summary, error)

	// HasSummary reports whether a summary exists for an item.
	HasSummary(ctx context.Context, itemID core.ID) (bool, error)
}

// EmbeddingRepository stores at most one embedding per item.
type EmbeddingRepository interface {
	Repository

	// PutEmbedding stores an embedding. Returns ErrDuplicateKey if an
	// embedding already exists for the item.
	PutEmbedding(ctx context.Context, embedding *core.Embedding) (*core.Embedding, error)

	// GetEmbedding retrieves the embedding for an item.
	// Returns ErrNotFound if none exists.
	GetEmbedding(ctx context.Context, itemID core.ID) (*core.Embedding, error)

	// HasEmbedding reports whether an embedding exists for an item.
	HasEmbedding(ctx context.Context, itemID core.ID) (bool, error)

	// FindSimilar finds item embeddings similar to the given vector.
	// Returns matches with similarity >= minSimilarity, up to limit,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error)
}
