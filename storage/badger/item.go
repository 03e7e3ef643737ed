package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	return &ItemRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ItemRepository) Close() error {
	return nil
}

// AddItems adds one or more items to storage.
// Items with ID=0 get a content-based ID derived from the URL, so
// re-adding the same URL overwrites the existing item.
func (r *ItemRepository) AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	for _, item := range items {
		if err := core.ValidateItem(item); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, item := range items {
			if item.Id == 0 {
				item.Id = core.IDFromContent(item.URL)
			}
			if item.ScrapedAt.IsZero() {
				item.ScrapedAt = now
			}

			key := makeItemKey(item.Id)

			// Replacing an existing item must drop its old index entry.
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				item.InsertedAt = old.InsertedAt
				if !old.ScrapedAt.Equal(item.ScrapedAt) {
					if err := tx.Delete(makeItemScrapedKey(old.ScrapedAt, old.Id)); err != nil {
						return err
					}
				}
			} else {
				item.InsertedAt = now
			}
			item.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
				return err
			}

			scrapedKey := makeItemScrapedKey(item.ScrapedAt, item.Id)
			if err := tx.Set(scrapedKey, storage.MarshalID(item.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// UpdateItems updates existing items.
func (r *ItemRepository) UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			key := makeItemKey(item.Id)

			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			item.InsertedAt = old.InsertedAt
			item.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
				return err
			}

			if !old.ScrapedAt.Equal(item.ScrapedAt) {
				if err := tx.Delete(makeItemScrapedKey(old.ScrapedAt, old.Id)); err != nil {
					return err
				}
				newKey := makeItemScrapedKey(item.ScrapedAt, item.Id)
				if err := tx.Set(newKey, storage.MarshalID(item.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(id)
		var err error
		result, err = r.readItem(tx, key)
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

// GetItemsByScrapedRange retrieves items scraped within a time range.
func (r *ItemRepository) GetItemsByScrapedRange(ctx context.Context, start, end time.Time) ([]*core.Item, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialItemScrapedKey(start)
		endKey := makePartialItemScrapedKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
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

			itemKey := makeItemKey(itemID)
			item, err := r.readItem(tx, itemKey)
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)

	return results, err
}

// readItem reads an item from the transaction.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.Item, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.Item
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		result, unmarshalErr = storage.UnmarshalItem(val)
		return unmarshalErr
	})
	return result, err
}
