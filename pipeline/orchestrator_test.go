package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/extract"
)

func TestOrchestratorSubmitCreatesRecordAndJob(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	item := p.addItem(t, &core.Item{Title: "Submit me", URL: "https://example.com/submit"})
	require.NoError(t, p.orchestrator.Submit(ctx, item.Id))

	record := p.record(t, item.Id)
	assert.Equal(t, core.StatusPending, record.Status)
	assert.Equal(t, core.StageExtraction, record.CurrentStage)
	assert.Equal(t, 1, p.pendingCount(t, core.StageExtraction))
}

func TestOrchestratorSubmitBatch(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	var ids []core.ID
	for _, url := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		item := p.addItem(t, &core.Item{Title: url, URL: url})
		ids = append(ids, item.Id)
	}

	result := p.orchestrator.SubmitBatch(ctx, ids)
	assert.Equal(t, 3, result.Enqueued)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, p.pendingCount(t, core.StageExtraction))
}

func TestOrchestratorSubmitNewFiltering(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()
	now := time.Now().UTC()

	p.addItem(t, &core.Item{Title: "fresh", URL: "https://example.com/fresh", ScrapedAt: now})
	pending := p.addItem(t, &core.Item{Title: "pending", URL: "https://example.com/pending", ScrapedAt: now})
	failed := p.addItem(t, &core.Item{Title: "failed", URL: "https://example.com/failed", ScrapedAt: now})
	done := p.addItem(t, &core.Item{Title: "done", URL: "https://example.com/done", ScrapedAt: now})
	stale := p.addItem(t, &core.Item{Title: "stale", URL: "https://example.com/stale", ScrapedAt: now.Add(-48 * time.Hour)})

	_, err := p.repos.Statuses.RecordStatus(ctx, pending.Id, core.StatusPending, core.StageExtraction, "")
	require.NoError(t, err)
	_, err = p.repos.Statuses.RecordStatus(ctx, failed.Id, core.StatusFailed, core.StageSummarization, "summarization failed")
	require.NoError(t, err)
	_, err = p.repos.Statuses.RecordStatus(ctx, done.Id, core.StatusCompleted, core.StageEmbedding, "")
	require.NoError(t, err)

	result, err := p.orchestrator.SubmitNew(ctx, 24*time.Hour)
	require.NoError(t, err)

	// fresh (no record), pending, and failed qualify; done and stale do not
	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 3, result.Enqueued)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, p.pendingCount(t, core.StageExtraction))

	_, err = p.repos.Statuses.GetRecord(ctx, stale.Id)
	assert.Error(t, err)
}

func TestOrchestratorRetryFailedRespectsBound(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	eligible := p.addItem(t, &core.Item{Title: "eligible", URL: "https://example.com/eligible"})
	exhausted := p.addItem(t, &core.Item{Title: "exhausted", URL: "https://example.com/exhausted"})

	failTimes := func(id core.ID, n int) {
		_, err := p.repos.Statuses.RecordStatus(ctx, id, core.StatusPending, core.StageExtraction, "")
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			_, err := p.repos.Statuses.RecordStatus(ctx, id, core.StatusFailed, 0, "content extraction failed")
			require.NoError(t, err)
		}
	}
	failTimes(eligible.Id, 2)
	failTimes(exhausted.Id, 3)

	require.Equal(t, 2, p.record(t, eligible.Id).RetryCount)
	require.Equal(t, 3, p.record(t, exhausted.Id).RetryCount)

	result, err := p.orchestrator.RetryFailed(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Retried)

	// Retries always re-enter at the start of the chain
	record := p.record(t, eligible.Id)
	assert.Equal(t, core.StatusPending, record.Status)
	assert.Equal(t, core.StageExtraction, record.CurrentStage)
	assert.Equal(t, 1, p.pendingCount(t, core.StageExtraction))

	assert.Equal(t, core.StatusFailed, p.record(t, exhausted.Id).Status)
}

func TestOrchestratorRetriedItemCompletes(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	item := p.addItem(t, &core.Item{Title: "flaky", URL: "https://example.com/flaky"})

	attempts := 0
	p.extractor.ExtractFunc = func(ctx context.Context, it *core.Item) (*extract.Result, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient fetch error")
		}
		return &extract.Result{Content: strings.Repeat("recovered content. ", 20), Method: extract.MethodPlainText}, nil
	}

	require.NoError(t, p.orchestrator.Submit(ctx, item.Id))
	require.False(t, p.handleNext(t, core.StageExtraction).OK)
	require.Equal(t, core.StatusFailed, p.record(t, item.Id).Status)

	result, err := p.orchestrator.RetryFailed(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 1, result.Retried)

	require.True(t, p.handleNext(t, core.StageExtraction).OK)
	require.True(t, p.handleNext(t, core.StageSummarization).OK)
	require.True(t, p.handleNext(t, core.StageEmbedding).OK)

	assert.Equal(t, core.StatusCompleted, p.record(t, item.Id).Status)
}

func TestOrchestratorStatusAggregation(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	first := p.addItem(t, &core.Item{Title: "first", URL: "https://example.com/1"})
	second := p.addItem(t, &core.Item{Title: "second", URL: "https://example.com/2"})

	require.NoError(t, p.orchestrator.Submit(ctx, first.Id))
	require.NoError(t, p.orchestrator.Submit(ctx, second.Id))
	_, err := p.repos.Statuses.RecordStatus(ctx, second.Id, core.StatusFailed, 0, "content extraction failed")
	require.NoError(t, err)

	status, err := p.orchestrator.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, status.Queues[core.StageExtraction].Pending)
	assert.Equal(t, 0, status.Queues[core.StageSummarization].Pending)
	assert.Equal(t, 1, status.Records[core.StatusPending])
	assert.Equal(t, 1, status.Records[core.StatusFailed])
}

func TestOrchestratorClearFailedJobs(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	// Park two jobs in the failed registry via dequeue+fail
	for _, url := range []string{"https://example.com/f1", "https://example.com/f2"} {
		item := p.addItem(t, &core.Item{Title: url, URL: url})
		_, err := p.queue.Enqueue(ctx, core.StageExtraction, item.Id)
		require.NoError(t, err)
		job, err := p.queue.Dequeue(ctx, core.StageExtraction)
		require.NoError(t, err)
		require.NotNil(t, job)
		require.NoError(t, p.queue.Fail(ctx, job, "worker crashed"))
	}

	stats, err := p.queue.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats[core.StageExtraction].Failed)

	removed, err := p.orchestrator.ClearFailedJobs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err = p.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[core.StageExtraction].Failed)
}
