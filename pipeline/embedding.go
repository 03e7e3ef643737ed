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
	"github.com/JoelJohnsonThomas/nexus-pipeline/cache"
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// EmbeddingHandler runs the final stage: embed the item's summary and
// mark the item completed.
type EmbeddingHandler struct {
	items       storage.ItemRepository
	statuses    storage.StatusRepository
	summaries   storage.SummaryRepository
	embeddings  storage.EmbeddingRepository
	embedder    ai.Embedder
	invalidator cache.Invalidator
	logger      *slog.Logger
}

var _ queue.Handler = (*EmbeddingHandler)(nil)

// NewEmbeddingHandler creates the embedding stage handler.
// The invalidator may be nil when no listing cache is in use.
func NewEmbeddingHandler(
	items storage.ItemRepository,
	statuses storage.StatusRepository,
	summaries storage.SummaryRepository,
	embeddings storage.EmbeddingRepository,
	embedder ai.Embedder,
	invalidator cache.Invalidator,
) (*EmbeddingHandler, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if statuses == nil {
		return nil, ErrStatusRepositoryRequired
	}
	if summaries == nil {
		return nil, ErrSummaryRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrAIProviderRequired
	}
	return &EmbeddingHandler{
		items:       items,
		statuses:    statuses,
		summaries:   summaries,
		embeddings:  embeddings,
		embedder:    embedder,
		invalidator: invalidator,
		logger:      slog.Default().With("component", "embedding-handler"),
	}, nil
}

// Handle processes one embedding job.
func (h *EmbeddingHandler) Handle(ctx context.Context, job *core.Job) core.Result {
	logger := h.logger.With("item_id", job.ItemId)

	item, err := h.items.GetItem(ctx, job.ItemId)
	if err != nil {
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageEmbedding, loadFailureReason(logger, err))
	}

	recordProgress(ctx, h.statuses, logger, job.ItemId, core.StatusEmbedding, core.StageEmbedding)

	// An embedding from an earlier delivery means the whole chain is done.
	exists, err := h.embeddings.HasEmbedding(ctx, job.ItemId)
	if err != nil {
		logger.Error("failed to check for existing embedding", "err", err)
	}
	if exists {
		logger.Debug("embedding already exists, marking completed")
		recordProgress(ctx, h.statuses, logger, job.ItemId, core.StatusCompleted, core.StageEmbedding)
		return core.Success()
	}

	text := h.embeddableText(ctx, logger, item)
	if len(text) < minEmbedChars {
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageEmbedding, reasonInsufficientText)
	}

	vector, err := h.embedder.EmbedText(ctx, ai.TruncateText(text, ai.MaxEmbedChars))
	if err != nil || len(vector) == 0 {
		if err != nil {
			logger.Warn("embedding failed", "err", err)
		}
		return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageEmbedding, reasonEmbeddingFailed)
	}

	embedding := &core.Embedding{
		ItemId: job.ItemId,
		Vector: vector,
		Model:  h.embedder.Model(),
	}
	if _, err := h.embeddings.PutEmbedding(ctx, embedding); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Error("failed to persist embedding", "err", err)
			return recordFailure(ctx, h.statuses, logger, job.ItemId, core.StageEmbedding, reasonEmbeddingFailed)
		}
		logger.Debug("embedding already written by concurrent delivery")
	}

	recordProgress(ctx, h.statuses, logger, job.ItemId, core.StatusCompleted, core.StageEmbedding)
	h.invalidateListings(ctx, logger)

	logger.Info("pipeline completed for item", "dimensions", len(vector))
	return core.Success()
}

// embeddableText picks the text to embed: summary first, then extracted
// content, then the raw description.
func (h *EmbeddingHandler) embeddableText(ctx context.Context, logger *slog.Logger, item *core.Item) string {
	summary, err := h.summaries.GetSummary(ctx, item.Id)
	if err == nil && strings.TrimSpace(summary.Summary) != "" {
		return summary.Summary
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Error("failed to load summary for embedding", "err", err)
	}
	if strings.TrimSpace(item.FullContent) != "" {
		return item.FullContent
	}
	return item.Description
}

// invalidateListings drops the cached item listings after a completion.
func (h *EmbeddingHandler) invalidateListings(ctx context.Context, logger *slog.Logger) {
	if h.invalidator == nil {
		return
	}
	if err := h.invalidator.Invalidate(ctx, cache.KeyLatestItems, cache.KeyAllItems); err != nil {
		logger.Error("failed to invalidate listing caches", "err", err)
	}
}
