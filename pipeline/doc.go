// Package pipeline contains the stage handlers and orchestrator for the
// content processing pipeline.
//
// Each item moves through three chained stages: extraction, summarization,
// and embedding. A stage handler loads the item, performs its work through
// an external collaborator, persists the output, updates the item's
// processing record, and enqueues the next stage. Handlers never let an
// error escape: every exit path records a status and returns an explicit
// result. Handlers are idempotent, since the queue redelivers jobs whose
// lease expired.
//
// The Orchestrator is the batch-level entry point: submitting items,
// finding unprocessed items, retrying failed ones, and reporting aggregate
// status. Retry always re-enters the chain at extraction.
package pipeline
