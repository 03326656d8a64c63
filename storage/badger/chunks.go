package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Each chunk is stored under its ID, with a job index entry
// ordered by chunk index.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}

// PutChunks writes all chunks and their index entries in one transaction.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = now
			}
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunkRecord(chunk)); err != nil {
				return err
			}
			indexKey := makeChunkJobKey(chunk.JobID, chunk.Index, chunk.Id)
			if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.ChunkRecord, error) {
	var result *core.ChunkRecord
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, id)
		return err
	})
	return result, err
}

// ChunksByJob returns the chunks of a job in chunk order.
func (r *ChunkRepository) ChunksByJob(ctx context.Context, jobID string) ([]*core.ChunkRecord, error) {
	results := []*core.ChunkRecord{}
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkJobKey(jobID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}

		for _, id := range ids {
			chunk, err := readChunk(tx, id)
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteJob removes the chunks of a job and their index entries in one transaction.
func (r *ChunkRepository) DeleteJob(ctx context.Context, jobID string) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkJobKey(jobID)
		iter := tx.NewIterator(opts)

		var indexKeys [][]byte
		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
			indexKeys = append(indexKeys, item.KeyCopy(nil))
		}
		iter.Close()

		for _, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, id := range ids {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func readChunk(tx *badger.Txn, id core.ID) (*core.ChunkRecord, error) {
	item, err := tx.Get(makeChunkKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var record *core.ChunkRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalChunkRecord(val)
		return unmarshalErr
	})
	return record, err
}
