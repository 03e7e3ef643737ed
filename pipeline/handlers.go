package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// loadFailureReason maps an item-load error to a failure reason. A missing
// item is terminal; anything else is a storage fault and stays
// retry-eligible under its own reason.
func loadFailureReason(logger *slog.Logger, err error) string {
	if errors.Is(err, storage.ErrNotFound) {
		return reasonItemNotFound
	}
	logger.Error("failed to load item", "err", err)
	return reasonItemLoadFailed
}

// recordFailure writes a Failed status with a reason and returns the
// matching handler result. Status write errors are logged, not returned:
// the failure result must reach the runner regardless.
func recordFailure(ctx context.Context, statuses storage.StatusRepository, logger *slog.Logger, itemID core.ID, stage core.Stage, reason string) core.Result {
	if _, err := statuses.RecordStatus(ctx, itemID, core.StatusFailed, stage, reason); err != nil {
		logger.Error("failed to record failure status", "reason", reason, "err", err)
	}
	return core.Failure(reason)
}

// recordProgress writes a non-failure status transition. Errors are logged
// and swallowed; a missed progress write must not abort the stage.
func recordProgress(ctx context.Context, statuses storage.StatusRepository, logger *slog.Logger, itemID core.ID, status core.Status, stage core.Stage) {
	if _, err := statuses.RecordStatus(ctx, itemID, status, stage, ""); err != nil {
		logger.Error("failed to record status", "status", status.String(), "err", err)
	}
}

// chainNext enqueues the next stage for an item. An enqueue failure is
// logged only: the current stage's outcome stands, and the item may stall
// until resubmitted.
func chainNext(ctx context.Context, q *queue.Queue, logger *slog.Logger, stage core.Stage, itemID core.ID) {
	if _, err := q.Enqueue(ctx, stage, itemID); err != nil {
		logger.Error("failed to enqueue next stage", "stage", stage.String(), "err", err)
	}
}
