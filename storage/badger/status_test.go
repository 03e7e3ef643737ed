package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

func TestRecordStatus_CreatesRecord(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	record, err := repos.Statuses.RecordStatus(ctx, 1, core.StatusPending, core.StageExtraction, "")
	require.NoError(t, err)

	assert.Equal(t, core.ID(1), record.ItemId)
	assert.Equal(t, core.StatusPending, record.Status)
	assert.Equal(t, core.StageExtraction, record.CurrentStage)
	assert.Equal(t, 0, record.RetryCount)
	assert.False(t, record.StartedAt.IsZero())
}

func TestRecordStatus_UpdatesExisting(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusPending, core.StageExtraction, "")
	require.NoError(t, err)

	record, err := repos.Statuses.RecordStatus(ctx, 1, core.StatusExtracting, 0, "")
	require.NoError(t, err)

	assert.Equal(t, core.StatusExtracting, record.Status)
	// Zero stage leaves the current stage untouched
	assert.Equal(t, core.StageExtraction, record.CurrentStage)
	assert.Equal(t, 0, record.RetryCount)
}

func TestRecordStatus_ErrorIncrementsRetryCount(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusExtracting, core.StageExtraction, "")
	require.NoError(t, err)

	record, err := repos.Statuses.RecordStatus(ctx, 1, core.StatusFailed, 0, "fetch failed: connection refused")
	require.NoError(t, err)
	assert.Equal(t, 1, record.RetryCount)
	assert.Equal(t, "fetch failed: connection refused", record.ErrorMessage)

	record, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusFailed, 0, "fetch failed: timeout")
	require.NoError(t, err)
	assert.Equal(t, 2, record.RetryCount)
	assert.Equal(t, "fetch failed: timeout", record.ErrorMessage)

	// Success transitions never touch the counter
	record, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusExtracting, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, record.RetryCount)
}

func TestRecordStatus_RejectsInvalidStatus(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = repos.Statuses.RecordStatus(context.Background(), 1, core.Status(99), 0, "")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestStatusIndex(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusPending, core.StageExtraction, "")
	require.NoError(t, err)
	_, err = repos.Statuses.RecordStatus(ctx, 2, core.StatusPending, core.StageExtraction, "")
	require.NoError(t, err)
	_, err = repos.Statuses.RecordStatus(ctx, 3, core.StatusCompleted, core.StageEmbedding, "")
	require.NoError(t, err)

	pending, err := repos.Statuses.ListByStatus(ctx, core.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// Moving a record out of pending must update the index
	_, err = repos.Statuses.RecordStatus(ctx, 1, core.StatusExtracting, 0, "")
	require.NoError(t, err)

	pending, err = repos.Statuses.ListByStatus(ctx, core.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, core.ID(2), pending[0].ItemId)

	counts, err := repos.Statuses.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.StatusPending])
	assert.Equal(t, 1, counts[core.StatusExtracting])
	assert.Equal(t, 1, counts[core.StatusCompleted])
}

func TestGetRecord_NotFound(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = repos.Statuses.GetRecord(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
