package queue

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage/badger"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	q, err := New(backend, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueueEnqueueDequeue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	jobID, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	job, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, jobID, job.Id)
	assert.Equal(t, core.StageExtraction, job.Stage)
	assert.Equal(t, core.ID(1), job.ItemId)
	assert.Equal(t, 5*time.Minute, job.Timeout)

	// Leased, not deliverable again
	next, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestQueueFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := q.Enqueue(ctx, core.StageSummarization, core.ID(i))
		require.NoError(t, err)
	}

	for i := 1; i <= 3; i++ {
		job, err := q.Dequeue(ctx, core.StageSummarization)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, core.ID(i), job.ItemId)
	}
}

func TestQueueEnqueueDeduplicatesPending(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[core.StageExtraction].Pending)

	// A different item still gets its own job
	third, err := q.Enqueue(ctx, core.StageExtraction, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestQueueStagesAreIsolated(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, core.StageEmbedding)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueueAck(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.Ack(ctx, job))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[core.StageExtraction].Pending)
	assert.Equal(t, 0, stats[core.StageExtraction].InFlight)

	// Second ack finds no lease
	assert.ErrorIs(t, q.Ack(ctx, job), ErrJobNotLeased)
}

func TestQueueLeaseExpiryRedelivers(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	base := time.Now().UTC()
	q.clock = func() time.Time { return base }

	jobID, err := q.Enqueue(ctx, core.StageExtraction, 1)
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	require.NotNil(t, job)

	// Lease still live
	next, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	assert.Nil(t, next)

	// Jump past the lease deadline
	q.clock = func() time.Time { return base.Add(6 * time.Minute) }

	redelivered, err := q.Dequeue(ctx, core.StageExtraction)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, jobID, redelivered.Id)

	require.NoError(t, q.Ack(ctx, redelivered))
}

func TestQueueFailedRegistry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, core.StageEmbedding, 1)
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, core.StageEmbedding)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.Fail(ctx, job, "no handler registered"))

	failed, err := q.ListFailed(ctx, core.StageEmbedding)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, job.Id, failed[0].Id)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[core.StageEmbedding].InFlight)
	assert.Equal(t, 1, stats[core.StageEmbedding].Failed)

	removed, err := q.ClearFailed(ctx, core.StageEmbedding, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	failed, err = q.ListFailed(ctx, core.StageEmbedding)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestQueueClearFailedRespectsLimit(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for itemID := core.ID(1); itemID <= 3; itemID++ {
		_, err := q.Enqueue(ctx, core.StageExtraction, itemID)
		require.NoError(t, err)
		job, err := q.Dequeue(ctx, core.StageExtraction)
		require.NoError(t, err)
		require.NotNil(t, job)
		require.NoError(t, q.Fail(ctx, job, "worker crashed"))
	}

	removed, err := q.ClearFailed(ctx, core.StageExtraction, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	failed, err := q.ListFailed(ctx, core.StageExtraction)
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	removed, err = q.ClearFailed(ctx, core.StageExtraction, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestQueueInvalidStage(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, core.Stage(99), 1)
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = q.Dequeue(ctx, core.Stage(99))
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestQueueStatsCoversAllStages(t *testing.T) {
	q := newTestQueue(t)

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)

	for _, stage := range []core.Stage{core.StageExtraction, core.StageSummarization, core.StageEmbedding, core.StageNotify} {
		_, ok := stats[stage]
		assert.True(t, ok, "missing stats for %s", stage)
	}
}
