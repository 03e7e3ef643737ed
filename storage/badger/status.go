package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// StatusRepository implements storage.StatusRepository for BadgerDB.
type StatusRepository struct {
	backend *Backend
}

var _ storage.StatusRepository = (*StatusRepository)(nil)

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(backend *Backend) (*StatusRepository, error) {
	return &StatusRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *StatusRepository) Close() error {
	return nil
}

// RecordStatus upserts the processing record for an item.
// Creates the record if absent. On update, stage is only written when
// non-zero and an error message increments the retry counter.
func (r *StatusRepository) RecordStatus(ctx context.Context, itemID core.ID, status core.Status, stage core.Stage, errMsg string) (*core.ProcessingRecord, error) {
	var result *core.ProcessingRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		key := makeStatusKey(itemID)

		record, err := r.readRecord(tx, key)
		if err != nil {
			return err
		}

		if record == nil {
			record = &core.ProcessingRecord{
				ItemId:       itemID,
				Status:       status,
				CurrentStage: stage,
				ErrorMessage: errMsg,
				StartedAt:    now,
				UpdatedAt:    now,
			}
		} else {
			if record.Status != status {
				if err := tx.Delete(makeStatusIdxKey(record.Status, itemID)); err != nil {
					return err
				}
			}
			record.Status = status
			if stage != 0 {
				record.CurrentStage = stage
			}
			if errMsg != "" {
				record.ErrorMessage = errMsg
				record.RetryCount++
			}
			record.UpdatedAt = now
		}

		if err := core.ValidateRecord(record); err != nil {
			return err
		}

		if err := tx.Set(key, storage.MarshalProcessingRecord(record)); err != nil {
			return err
		}
		idxKey := makeStatusIdxKey(record.Status, itemID)
		if err := tx.Set(idxKey, storage.MarshalID(itemID)); err != nil {
			return err
		}

		result = record
		return tx.Commit()
	}, true)

	return result, err
}

// GetRecord retrieves the processing record for an item.
func (r *StatusRepository) GetRecord(ctx context.Context, itemID core.ID) (*core.ProcessingRecord, error) {
	var result *core.ProcessingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeStatusKey(itemID)
		var err error
		result, err = r.readRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListByStatus retrieves all records currently in the given status.
func (r *StatusRepository) ListByStatus(ctx context.Context, status core.Status) ([]*core.ProcessingRecord, error) {
	if !status.Valid() {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ProcessingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialStatusIdxKey(status)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := r.readRecord(tx, makeStatusKey(itemID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountByStatus returns the number of records grouped by status.
func (r *StatusRepository) CountByStatus(ctx context.Context) (map[core.Status]int, error) {
	counts := make(map[core.Status]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(statusIdxPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) <= len(prefix) {
				continue
			}
			status := core.Status(key[len(prefix)])
			counts[status]++
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return counts, nil
}

// readRecord reads a processing record from the transaction.
func (r *StatusRepository) readRecord(tx *badger.Txn, key []byte) (*core.ProcessingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ProcessingRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalProcessingRecord(val)
		return unmarshalErr
	})
	return record, err
}
