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


package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// BatchResult reports the outcome of a batch submission.
type BatchResult struct {
	Enqueued int
	Failed   int
}

// SubmitNewResult reports the outcome of submitting newly scraped items.
type SubmitNewResult struct {
	Found    int
	Enqueued int
	Failed   int
}

// RetryResult reports the outcome of retrying failed items.
type RetryResult struct {
	Found   int
	Retried int
}

// PipelineStatus aggregates queue and record state for reporting.
type PipelineStatus struct {
	Queues  map[core.Stage]queue.Stats
	Records map[core.Status]int
}

// Orchestrator is the batch-level API over the pipeline: submitting
// items, retrying failures, and reporting aggregate status.
type Orchestrator struct {
	items    storage.ItemRepository
	statuses storage.StatusRepository
	queue    *queue.Queue
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	items storage.ItemRepository,
	statuses storage.StatusRepository,
	q *queue.Queue,
) (*Orchestrator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if statuses == nil {
		return nil, ErrStatusRepositoryRequired
	}
	if q == nil {
		return nil, ErrQueueRequired
	}
	return &Orchestrator{
		items:    items,
		statuses: statuses,
		queue:    q,
		logger:   slog.Default().With("component", "orchestrator"),
	}, nil
}

// Submit enqueues the extraction stage for one item. The item's
// processing record is created (or reset to Pending) before the enqueue,
// so a record exists even if the enqueue fails.
func (o *Orchestrator) Submit(ctx context.Context, itemID core.ID) error {
	if _, err := o.statuses.RecordStatus(ctx, itemID, core.StatusPending, core.StageExtraction, ""); err != nil {
		return err
	}
	if _, err := o.queue.Enqueue(ctx, core.StageExtraction, itemID); err != nil {
		o.logger.Error("failed to enqueue extraction", "item_id", itemID, "err", err)
		return err
	}
	return nil
}

// SubmitBatch submits each item, tallying enqueues and failures.
func (o *Orchestrator) SubmitBatch(ctx context.Context, itemIDs []core.ID) BatchResult {
	result := BatchResult{}
	for _, id := range itemIDs {
		if err := o.Submit(ctx, id); err != nil {
			result.Failed++
			continue
		}
		result.Enqueued++
	}
	o.logger.Info("batch submitted", "enqueued", result.Enqueued, "failed", result.Failed)
	return result
}

// SubmitNew finds items scraped within the window that are unprocessed
// (no processing record yet, or one in Pending or Failed) and submits them.
func (o *Orchestrator) SubmitNew(ctx context.Context, window time.Duration) (SubmitNewResult, error) {
	now := time.Now().UTC()
	items, err := o.items.GetItemsByScrapedRange(ctx, now.Add(-window), now.Add(time.Minute))
	if err != nil {
		return SubmitNewResult{}, err
	}

	var eligible []core.ID
	for _, item := range items {
		record, err := o.statuses.GetRecord(ctx, item.Id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				eligible = append(eligible, item.Id)
				continue
			}
			return SubmitNewResult{}, err
		}
		if record.Status == core.StatusPending || record.Status == core.StatusFailed {
			eligible = append(eligible, item.Id)
		}
	}

	batch := o.SubmitBatch(ctx, eligible)
	result := SubmitNewResult{
		Found:    len(eligible),
		Enqueued: batch.Enqueued,
		Failed:   batch.Failed,
	}
	o.logger.Info("submitted new items", "window", window.String(), "found", result.Found, "enqueued", result.Enqueued)
	return result, nil
}

// RetryFailed re-submits failed items whose retry count is still below
// maxRetries. Retried items always re-enter the chain at extraction.
func (o *Orchestrator) RetryFailed(ctx context.Context, maxRetries int) (RetryResult, error) {
	records, err := o.statuses.ListByStatus(ctx, core.StatusFailed)
	if err != nil {
		return RetryResult{}, err
	}

	result := RetryResult{}
	for _, record := range records {
		if !record.RetryEligible(maxRetries) {
			continue
		}
		result.Found++
		if err := o.Submit(ctx, record.ItemId); err != nil {
			o.logger.Error("failed to resubmit item", "item_id", record.ItemId, "err", err)
			continue
		}
		result.Retried++
	}
	o.logger.Info("retried failed items", "found", result.Found, "retried", result.Retried)
	return result, nil
}

// Status reports queue statistics plus record counts grouped by status.
func (o *Orchestrator) Status(ctx context.Context) (*PipelineStatus, error) {
	queues, err := o.queue.Stats(ctx)
	if err != nil {
		return nil, err
	}
	records, err := o.statuses.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &PipelineStatus{Queues: queues, Records: records}, nil
}

// ClearFailedJobs drains the failed-job registry. A zero stage clears
// every stage. Returns the number of jobs removed.
func (o *Orchestrator) ClearFailedJobs(ctx context.Context, stage core.Stage) (int, error) {
	if stage != 0 {
		return o.queue.ClearFailed(ctx, stage, 0)
	}

	total := 0
	for _, s := range core.Stages() {
		removed, err := o.queue.ClearFailed(ctx, s, 0)
		if err != nil {
			return total, err
		}
		total += removed
	}
	removed, err := o.queue.ClearFailed(ctx, core.StageNotify, 0)
	if err != nil {
		return total, err
	}
	return total + removed, nil
}
