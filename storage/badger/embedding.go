package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// PutEmbedding stores an embedding. At most one embedding exists per item;
// a second write for the same item returns ErrDuplicateKey.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, embedding *core.Embedding) (*core.Embedding, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(embedding.ItemId)

		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		embedding.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalEmbedding(embedding)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return embedding, nil
}

// GetEmbedding retrieves the embedding for an item.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, itemID core.ID) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(itemID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEmbedding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// HasEmbedding reports whether an embedding exists for an item.
func (r *EmbeddingRepository) HasEmbedding(ctx context.Context, itemID core.ID) (bool, error) {
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEmbeddingKey(itemID))
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

// FindSimilar finds item embeddings similar to the given vector.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error) {
	var results []core.SimilarityMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var embedding *core.Embedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				embedding, err = storage.UnmarshalEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			if embedding == nil || len(embedding.Vector) == 0 {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			similarity := dotProduct(vector, embedding.Vector)
			if similarity >= minSimilarity {
				results = append(results, core.SimilarityMatch{
					ItemId: embedding.ItemId,
					Score:  similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
