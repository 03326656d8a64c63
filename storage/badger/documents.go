package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocument stores a document under a freshly generated ID.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		doc.Id = core.ID(nextID)
		doc.InsertedAt = time.Now().UTC()

		return tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc))
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalDocument(val)
			return err
		})
	})
	return result, err
}

// ForEachDocument calls fn for every stored document in key order.
func (r *DocumentRepository) ForEachDocument(ctx context.Context, fn func(*core.Document) error) error {
	return r.backend.View(ctx, func(tx *badger.Txn) error {
		prefix := []byte(documentPrefix + ":")
		it := tx.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 16})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			err := it.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	})
}
