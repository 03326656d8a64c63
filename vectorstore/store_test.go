package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Add(t *testing.T) {
	var got []Document
	var store Store = Func(func(_ context.Context, docs []Document) error {
		got = docs
		return nil
	})

	docs := []Document{{ID: 1, Text: "hello"}}
	require.NoError(t, store.Add(context.Background(), docs))
	assert.Equal(t, docs, got)
}

func TestMetaInt(t *testing.T) {
	meta := map[string]string{MetaChunkIndex: "12", MetaChunkOffset: "bad"}
	assert.Equal(t, 12, metaInt(meta, MetaChunkIndex))
	assert.Equal(t, 0, metaInt(meta, MetaChunkOffset))
	assert.Equal(t, 0, metaInt(meta, MetaBatchIndex))
}
