// Package indexing turns documents into vector store entries asynchronously.
//
// An Indexer accepts a core.Job, validates it synchronously and runs it on
// an ants worker pool. Each run splits the text into overlapping chunks,
// groups the chunks into batches and hands every batch to a Submitter,
// which makes exactly one vectorstore.Store.Add call per batch.
//
// A failed batch is logged, counted and reported, and the run moves on to
// the next batch. Nothing is retried here; wrap the store in a
// vectorstore.Retrying to get retries. Callers never see the outcome of
// IndexAsync directly: results are delivered through slog, Prometheus
// metrics and the optional batch and job observers.
package indexing
