package vectorstore

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// MetaID is the metadata key carrying the document ID in LangChain documents.
const MetaID = "id"

// LangChain forwards documents to a langchaingo vector store, which embeds
// and stores them itself.
type LangChain struct {
	store   vectorstores.VectorStore
	options []vectorstores.Option
}

var _ Store = (*LangChain)(nil)

// NewLangChain wraps store. The options are passed to every AddDocuments call.
func NewLangChain(store vectorstores.VectorStore, options ...vectorstores.Option) (*LangChain, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &LangChain{store: store, options: options}, nil
}

// Add converts docs to schema documents and adds them in a single call.
func (l *LangChain) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	converted := make([]schema.Document, len(docs))
	for i, doc := range docs {
		meta := make(map[string]any, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[MetaID] = doc.ID.String()
		converted[i] = schema.Document{
			PageContent: doc.Text,
			Metadata:    meta,
		}
	}
	if _, err := l.store.AddDocuments(ctx, converted, l.options...); err != nil {
		return fmt.Errorf("langchain add documents: %w", err)
	}
	return nil
}
