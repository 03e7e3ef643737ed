package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or assigned by upstream scrapers.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content (e.g. the same item URL) produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Status is the processing state of an item in the pipeline.
// It is a closed enum validated at the storage boundary; the string form
// exists only for logging and reporting.
type Status int

const (
	// StatusPending indicates the item is waiting for its next stage.
	StatusPending Status = iota + 1
	// StatusExtracting indicates the extraction stage is in flight.
	StatusExtracting
	// StatusSummarizing indicates the summarization stage is in flight.
	StatusSummarizing
	// StatusEmbedding indicates the embedding stage is in flight.
	StatusEmbedding
	// StatusCompleted indicates all stages finished successfully.
	StatusCompleted
	// StatusFailed indicates a stage failed; the item is retry-eligible
	// until its retry count reaches the configured maximum.
	StatusFailed
)

var statusNames = map[Status]string{
	StatusPending:     "pending",
	StatusExtracting:  "extracting",
	StatusSummarizing: "summarizing",
	StatusEmbedding:   "embedding",
	StatusCompleted:   "completed",
	StatusFailed:      "failed",
}

// String returns the canonical lowercase name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the status is one of the defined enum values.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus converts a canonical status name back to its enum value.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, ErrInvalidStatus
}

// Stage identifies one queue/handler pair in the pipeline.
type Stage int

const (
	// StageExtraction pulls full text out of an item.
	StageExtraction Stage = iota + 1
	// StageSummarization condenses extracted text into a summary.
	StageSummarization
	// StageEmbedding turns the summary into a vector embedding.
	StageEmbedding
	// StageNotify is the downstream notification queue. Nothing in this
	// pipeline enqueues to it; it only shows up in queue statistics.
	StageNotify
)

var stageNames = map[Stage]string{
	StageExtraction:    "extraction",
	StageSummarization: "summarization",
	StageEmbedding:     "embedding",
	StageNotify:        "notify",
}

// String returns the canonical lowercase name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the stage is one of the defined enum values.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage converts a canonical stage name back to its enum value.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, ErrInvalidStage
}

// Stages lists the pipeline stages in processing order, excluding notify.
func Stages() []Stage {
	return []Stage{StageExtraction, StageSummarization, StageEmbedding}
}

// Item is a content unit (article or video) flowing through the pipeline.
// Scrapers insert items; the extraction stage enriches them with full text.
type Item struct {
	Id               ID
	Title            string
	URL              string
	VideoID          string // Non-empty for video items; selects the transcript path
	Description      string // Raw description or feed content from the scraper
	FullContent      string // Extracted full text (populated by the extraction stage)
	ExtractionMethod string // Tag of the extractor method that produced FullContent
	PublishedAt      time.Time
	ScrapedAt        time.Time // When the scraper discovered the item
	InsertedAt       time.Time
	UpdatedAt        time.Time
}

// IsVideo reports whether the item takes the transcript extraction path.
func (i *Item) IsVideo() bool {
	return i.VideoID != ""
}

// ProcessingRecord is the persisted state machine record for one item.
// Exactly one record exists per item; it is upserted in place by the
// stage handlers and never deleted by the pipeline.
type ProcessingRecord struct {
	ItemId       ID
	Status       Status
	CurrentStage Stage // Last attempted stage; informational, not used to resume
	RetryCount   int   // Incremented only on failure transitions
	ErrorMessage string
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// RetryEligible reports whether the record may be resubmitted by the
// orchestrator's bounded retry operation.
func (r *ProcessingRecord) RetryEligible(maxRetries int) bool {
	return r.Status == StatusFailed && r.RetryCount < maxRetries
}

// Summary holds the condensed text for one item. At most one exists per
// item; the summarization handler's existence check plus the store's
// uniqueness constraint keep it write-once.
type Summary struct {
	ItemId     ID
	Summary    string
	KeyPoints  []string
	Model      string // Identifier of the model that produced the summary
	InsertedAt time.Time
}

// Embedding holds the fixed-dimension vector for one item. At most one
// exists per item, same write-once discipline as Summary.
type Embedding struct {
	ItemId     ID
	Vector     []float32
	Model      string
	InsertedAt time.Time
}

// Job is one unit of queued work: run the named stage for one item.
type Job struct {
	Id         string // uuid assigned at enqueue time
	Stage      Stage
	ItemId     ID
	Timeout    time.Duration // Lease duration granted to the worker
	EnqueuedAt time.Time
}

// SimilarityMatch is an embedding match from vector similarity search.
type SimilarityMatch struct {
	ItemId ID
	Score  float32
}
