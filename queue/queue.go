package queue

import (
	"context"
	"log/slog"
	"slices"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage/badger"
)

const (
	// conflictRetries bounds optimistic transaction retries on dequeue.
	conflictRetries = 5
)

// stageTimeouts are the lease durations granted per stage. Summarization
// gets the longest lease since it waits on a remote model.
var stageTimeouts = map[core.Stage]time.Duration{
	core.StageExtraction:    5 * time.Minute,
	core.StageSummarization: 10 * time.Minute,
	core.StageEmbedding:     5 * time.Minute,
	core.StageNotify:        1 * time.Minute,
}

// Stats describes the state of one stage's queue.
type Stats struct {
	Pending  int
	InFlight int
	Failed   int
}

// Queue is a durable, stage-partitioned job queue backed by BadgerDB.
// Delivery is at-least-once: a dequeued job holds a lease for its stage
// timeout, and an unacknowledged lease expires back into circulation.
type Queue struct {
	backend *badger.Backend
	seq     *badgerdb.Sequence
	logger  *slog.Logger
	clock   func() time.Time
}

// New creates a Queue on the given storage backend.
func New(backend *badger.Backend, logger *slog.Logger) (*Queue, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	seq, err := backend.GetSequence(jobSeqName)
	if err != nil {
		return nil, err
	}

	return &Queue{
		backend: backend,
		seq:     seq,
		logger:  logger.With("component", "queue"),
		clock:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the job sequence.
func (q *Queue) Close() error {
	return q.seq.Release()
}

// Enqueue adds a job for the given stage and item. Returns the job ID.
// A pending job for the same stage and item is reused instead of
// duplicated, keeping at most one queued stage per item.
func (q *Queue) Enqueue(ctx context.Context, stage core.Stage, itemID core.ID) (string, error) {
	timeout, ok := stageTimeouts[stage]
	if !ok {
		return "", ErrInvalidStage
	}

	seq, err := q.seq.Next()
	if err != nil {
		return "", err
	}

	job := &core.Job{
		Id:         uuid.NewString(),
		Stage:      stage,
		ItemId:     itemID,
		Timeout:    timeout,
		EnqueuedAt: q.clock(),
	}

	err = q.backend.WithTx(func(tx *badgerdb.Txn) error {
		existing, err := q.findPendingForItem(tx, stage, itemID)
		if err != nil {
			return err
		}
		if existing != nil {
			job = existing
			return nil
		}
		if err := tx.Set(makePendingKey(stage, seq), storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}

	q.logger.Debug("enqueued job", "job_id", job.Id, "stage", stage.String(), "item_id", itemID)
	return job.Id, nil
}

// findPendingForItem returns the pending job for a stage and item, if any.
func (q *Queue) findPendingForItem(tx *badgerdb.Txn, stage core.Stage, itemID core.ID) (*core.Job, error) {
	prefix := makeStagePrefix(pendingPrefix, stage)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var job *core.Job
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			job, err = storage.UnmarshalJob(val)
			return err
		}); err != nil {
			return nil, err
		}
		if job.ItemId == itemID {
			return job, nil
		}
	}
	return nil, nil
}

// Dequeue returns the next job for a stage and leases it for the job's
// timeout. Expired leases are redelivered before fresh work. Returns
// (nil, nil) when the stage has nothing deliverable.
func (q *Queue) Dequeue(ctx context.Context, stage core.Stage) (*core.Job, error) {
	if _, ok := stageTimeouts[stage]; !ok {
		return nil, ErrInvalidStage
	}

	var job *core.Job
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		job, err = q.dequeueOnce(stage)
		if err != badgerdb.ErrConflict {
			break
		}
	}
	return job, err
}

func (q *Queue) dequeueOnce(stage core.Stage) (*core.Job, error) {
	var job *core.Job
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		now := q.clock()

		// Expired leases come first: leased keys sort by deadline, so the
		// first entry is the earliest expiry.
		expired, seq, err := q.firstExpiredLease(tx, stage, now)
		if err != nil {
			return err
		}
		if expired != nil {
			if err := q.lease(tx, expired, seq, now); err != nil {
				return err
			}
			job = expired
			return tx.Commit()
		}

		// Then FIFO from pending.
		pending, key, seq, err := q.firstPending(tx, stage)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := q.lease(tx, pending, seq, now); err != nil {
			return err
		}
		job = pending
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return job, nil
}

// lease writes the leased key for a job and its lookup entry.
func (q *Queue) lease(tx *badgerdb.Txn, job *core.Job, seq uint64, now time.Time) error {
	deadline := now.Add(job.Timeout)
	leasedKey := makeLeasedKey(job.Stage, deadline, seq)
	if err := tx.Set(leasedKey, storage.MarshalJob(job)); err != nil {
		return err
	}
	return tx.Set(makeLeaseIdxKey(job.Id), leasedKey)
}

// firstExpiredLease finds the earliest expired lease for a stage, removes
// it, and returns the job so the caller can re-lease it.
func (q *Queue) firstExpiredLease(tx *badgerdb.Txn, stage core.Stage, now time.Time) (*core.Job, uint64, error) {
	prefix := makeStagePrefix(leasedPrefix, stage)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	iter.Rewind()
	if !iter.Valid() {
		return nil, 0, nil
	}

	key := iter.Item().KeyCopy(nil)
	deadline, seq, ok := parseLeasedKey(key)
	if !ok || deadline.After(now) {
		return nil, 0, nil
	}

	var job *core.Job
	if err := iter.Item().Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	}); err != nil {
		return nil, 0, err
	}

	if err := tx.Delete(key); err != nil {
		return nil, 0, err
	}
	q.logger.Warn("redelivering expired job", "job_id", job.Id, "stage", stage.String(), "item_id", job.ItemId)
	return job, seq, nil
}

// firstPending finds the oldest pending job for a stage.
func (q *Queue) firstPending(tx *badgerdb.Txn, stage core.Stage) (*core.Job, []byte, uint64, error) {
	prefix := makeStagePrefix(pendingPrefix, stage)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	iter.Rewind()
	if !iter.Valid() {
		return nil, nil, 0, nil
	}

	key := iter.Item().KeyCopy(nil)
	var job *core.Job
	if err := iter.Item().Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	}); err != nil {
		return nil, nil, 0, err
	}

	// The sequence rides in the key tail; it carries over to the lease key.
	seqOffset := len(prefix)
	if len(key) < seqOffset+8 {
		return nil, nil, 0, storage.ErrTruncatedData
	}
	var seq uint64
	for _, b := range key[seqOffset:] {
		seq = seq<<8 | uint64(b)
	}
	return job, key, seq, nil
}

// Ack acknowledges a leased job, removing it from the queue permanently.
// Returns ErrJobNotLeased if the lease already expired and the job was
// redelivered or completed elsewhere.
func (q *Queue) Ack(ctx context.Context, job *core.Job) error {
	return q.backend.WithTx(func(tx *badgerdb.Txn) error {
		idxKey := makeLeaseIdxKey(job.Id)
		item, err := tx.Get(idxKey)
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return ErrJobNotLeased
			}
			return err
		}

		var leasedKey []byte
		if err := item.Value(func(val []byte) error {
			leasedKey = slices.Clone(val)
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Delete(leasedKey); err != nil {
			return err
		}
		if err := tx.Delete(idxKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Fail moves a job into the failed registry. Used only for jobs the
// runner could not hand to a working handler; handled failures are
// acknowledged normally and tracked through processing records.
func (q *Queue) Fail(ctx context.Context, job *core.Job, reason string) error {
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		idxKey := makeLeaseIdxKey(job.Id)
		item, err := tx.Get(idxKey)
		if err == nil {
			var leasedKey []byte
			if err := item.Value(func(val []byte) error {
				leasedKey = slices.Clone(val)
				return nil
			}); err != nil {
				return err
			}
			if err := tx.Delete(leasedKey); err != nil {
				return err
			}
			if err := tx.Delete(idxKey); err != nil {
				return err
			}
		} else if err != badgerdb.ErrKeyNotFound {
			return err
		}

		failedKey := makeFailedKey(job.Stage, job.Id)
		if err := tx.Set(failedKey, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return err
	}
	q.logger.Error("job moved to failed registry", "job_id", job.Id, "stage", job.Stage.String(), "item_id", job.ItemId, "reason", reason)
	return nil
}

// ListFailed returns the jobs in a stage's failed registry.
func (q *Queue) ListFailed(ctx context.Context, stage core.Stage) ([]*core.Job, error) {
	var jobs []*core.Job
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		prefix := makeStagePrefix(failedPrefix, stage)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.Job
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			}); err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	}, false)
	return jobs, err
}

// ClearFailed removes up to limit jobs from a stage's failed registry.
// A limit of 0 clears everything. Returns the number removed.
func (q *Queue) ClearFailed(ctx context.Context, stage core.Stage, limit int) (int, error) {
	removed := 0
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		prefix := makeStagePrefix(failedPrefix, stage)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(keys) >= limit {
				break
			}
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		// The iterator must be closed before the commit below.
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Stats returns per-stage queue statistics for every stage the queue serves.
func (q *Queue) Stats(ctx context.Context) (map[core.Stage]Stats, error) {
	result := make(map[core.Stage]Stats, len(stageTimeouts))
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		for stage := range stageTimeouts {
			stats := Stats{}
			var err error
			stats.Pending, err = countPrefix(tx, makeStagePrefix(pendingPrefix, stage))
			if err != nil {
				return err
			}
			stats.InFlight, err = countPrefix(tx, makeStagePrefix(leasedPrefix, stage))
			if err != nil {
				return err
			}
			stats.Failed, err = countPrefix(tx, makeStagePrefix(failedPrefix, stage))
			if err != nil {
				return err
			}
			result[stage] = stats
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// countPrefix counts keys under a prefix without reading values.
func countPrefix(tx *badgerdb.Txn, prefix []byte) (int, error) {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count, nil
}
