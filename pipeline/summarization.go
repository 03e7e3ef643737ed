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
	"strings"

	"github.com/JoelJohnsonThomas/nexus-pipeline/ai"
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// SummarizationHandler runs the summarization stage: generate a structured
// summary of the item's content and chain the embedding stage.
type SummarizationHandler struct {
	items      storage.ItemRepository
	statuses   storage.StatusRepository
	summaries  storage.SummaryRepository
	summarizer ai.Summarizer
	queue      *queue.Queue
	logger     *slog.Logger
}

var _ queue.Handler = (*SummarizationHandler)(nil)

// NewSummarizationHandler creates the summarization stage handler.
func NewSummarizationHandler(
	items storage.ItemRepository,
	statuses storage.StatusRepository,
	summaries storage.SummaryRepository,
	summarizer ai.Summarizer,
	q *queue.Queue,
) (*SummarizationHandler, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if statuses == nil {
		return nil, ErrStatusRepositoryRequired
	}
	if summaries == nil {
		return nil, ErrSummaryRepositoryRequired
	}
	if summarizer == nil {
		return nil, ErrAIProviderRequired
	}
	if q == nil {
		return nil, ErrQueueRequired
	}
	return &SummarizationHandler{
		items:      items,
		statuses:   statuses,
		summaries:  summaries,
		summarizer: summarizer,
		queue:      q,
		logger:     slog.Default().With("component", "summarization-handler"),
	}, nil
}

// Handle processes one summarization job.
func (h *SummarizationHandler) Handle(ctx context.Context, job *core.Job) core.Result {
	logger := h.logger.With("item_id", job.ItemId)

	item, err := h.items.GetItem(ctx, job.ItemId)
	if err != nil {
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageSummarization, loadFailureReason(logger, err))
	}

	recordProgress(ctx, h.statuses, logger, job.ItemId, core.StatusSummarizing, core.StageSummarization)

	// A summary from an earlier delivery means this stage's work is done.
	exists, err := h.summaries.HasSummary(ctx, job.ItemId)
	if err != nil {
		logger.Error("failed to check for existing summary", "err", err)
	}
	if exists {
		logger.Debug("summary already exists, skipping summarizer")
		return h.chainEmbedding(ctx, logger, job.ItemId)
	}

	text := item.FullContent
	if strings.TrimSpace(text) == "" {
		text = item.Description
	}
	if len(text) < minSummarizeChars {
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageSummarization, reasonInsufficientContent)
	}

	result, err := h.summarizer.Summarize(ctx, item.Title, ai.TruncateText(text, ai.MaxSummarizeChars))
	if err != nil || result == nil || strings.TrimSpace(result.Summary) == "" {
		if err != nil {
			logger.Warn("summarization failed", "err", err)
		}
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageSummarization, reasonSummarizationFailed)
	}

	summary := &core.Summary{
		ItemId:    job.ItemId,
		Summary:   result.Summary,
		KeyPoints: result.KeyPoints,
		Model:     result.Model,
	}
	if _, err := h.summaries.PutSummary(ctx, summary); err != nil {
		// A concurrent delivery beat us to the write; the outcome stands.
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Debug("summary already written by concurrent delivery")
			return h.chainEmbedding(ctx, logger, job.ItemId)
		}
		logger.Error("failed to persist summary", "err", err)
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageSummarization, reasonSummarizationFailed)
	}

	logger.Info("summarized content", "model", result.Model, "key_points", len(result.KeyPoints))
	return h.chainEmbedding(ctx, logger, job.ItemId)
}

func (h *SummarizationHandler) chainEmbedding(ctx context.Context, logger *slog.Logger, itemID core.ID) core.Result {
	recordProgress(ctx, h.statuses, logger, itemID, core.StatusPending, core.StageEmbedding)
	chainNext(ctx, h.queue, logger, core.StageEmbedding, itemID)
	return core.Success()
}
