package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// SummaryRepository implements storage.SummaryRepository for BadgerDB.
type SummaryRepository struct {
	backend *Backend
}

var _ storage.SummaryRepository = (*SummaryRepository)(nil)

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(backend *Backend) (*SummaryRepository, error) {
	return &SummaryRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *SummaryRepository) Close() error {
	return nil
}

// PutSummary stores a summary. At most one summary exists per item;
// a second write for the same item returns ErrDuplicateKey.
func (r *SummaryRepository) PutSummary(ctx context.Context, summary *core.Summary) (*core.Summary, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSummaryKey(summary.ItemId)

		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		summary.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalSummary(summary)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetSummary retrieves the summary for an item.
func (r *SummaryRepository) GetSummary(ctx context.Context, itemID core.ID) (*core.Summary, error) {
	var result *core.Summary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(itemID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalSummary(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// HasSummary reports whether a summary exists for an item.
func (r *SummaryRepository) HasSummary(ctx context.Context, itemID core.ID) (bool, error) {
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeSummaryKey(itemID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}
