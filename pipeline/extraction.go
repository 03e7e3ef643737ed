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
	"log/slog"
	"strings"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/extract"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// ExtractionHandler runs the extraction stage: fetch the item's content,
// persist it, and chain the summarization stage.
type ExtractionHandler struct {
	items     storage.ItemRepository
	statuses  storage.StatusRepository
	extractor extract.Extractor
	queue     *queue.Queue
	logger    *slog.Logger
}

var _ queue.Handler = (*ExtractionHandler)(nil)

// NewExtractionHandler creates the extraction stage handler.
func NewExtractionHandler(
	items storage.ItemRepository,
	statuses storage.StatusRepository,
	extractor extract.Extractor,
	q *queue.Queue,
) (*ExtractionHandler, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if statuses == nil {
		return nil, ErrStatusRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if q == nil {
		return nil, ErrQueueRequired
	}
	return &ExtractionHandler{
		items:     items,
		statuses:  statuses,
		extractor: extractor,
		queue:     q,
		logger:    slog.Default().With("component", "extraction-handler"),
	}, nil
}

// Handle processes one extraction job.
func (h *ExtractionHandler) Handle(ctx context.Context, job *core.Job) core.Result {
	logger := h.logger.With("item_id", job.ItemId)

	item, err := h.items.GetItem(ctx, job.ItemId)
	if err != nil {
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageExtraction, loadFailureReason(logger, err))
	}

	recordProgress(ctx, h.statuses, logger, job.ItemId, core.StatusExtracting, core.StageExtraction)

	// Already-extracted items skip straight to summarization.
	if len(item.FullContent) > minExtractedChars {
		logger.Debug("content already extracted, skipping extractor", "length", len(item.FullContent))
		return h.chainSummarization(ctx, logger, job.ItemId)
	}

	result, err := h.extractor.Extract(ctx, item)
	if err != nil || result == nil || strings.TrimSpace(result.Content) == "" {
		if err != nil {
			logger.Warn("extraction failed", "url", item.URL, "err", err)
		}
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageExtraction, reasonExtractionFailed)
	}

	item.FullContent = result.Content
	item.ExtractionMethod = result.Method
	if item.Title == "" && result.Title != "" {
		item.Title = result.Title
	}
	if _, err := h.items.UpdateItems(ctx, item); err != nil {
		logger.Error("failed to persist extracted content", "err", err)
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageExtraction, reasonExtractionFailed)
	}

	logger.Info("extracted content", "method", result.Method, "length", len(result.Content))
	return h.chainSummarization(ctx, logger, job.ItemId)
}

func (h *ExtractionHandler) chainSummarization(ctx context.Context, logger *slog.Logger, itemID core.ID) core.Result {
	recordProgress(ctx, h.statuses, logger, itemID, core.StatusPending, core.StageSummarization)
	chainNext(ctx, h.queue, logger, core.StageSummarization, itemID)
	return core.Success()
}
