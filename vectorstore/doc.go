// Package vectorstore defines the storage capability the indexer writes to
// and the stores that implement it.
//
// The indexer only needs one operation: add a batch of documents. Store
// captures exactly that, so any backend can be plugged in:
//
//   - EmbeddingStore embeds texts with an ai.Embedder and persists unit-length
//     vectors in a storage.ChunkRepository (Badger or Redis)
//   - LangChain forwards to any langchaingo vectorstores.VectorStore
//   - Func adapts a plain function
//
// Retrying wraps another Store with exponential backoff. The indexer itself
// never retries, so retry policy lives entirely in this decorator.
//
// Document metadata uses the keys MetaJobID, MetaChunkIndex, MetaChunkOffset
// and MetaBatchIndex.
package vectorstore
