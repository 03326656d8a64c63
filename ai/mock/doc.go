// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder implements ai.Embedder without any external service. By default
// it returns deterministic vectors derived from a hash of the text; tests can
// inject custom behavior through its function fields:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("embedding service unavailable")
//	}
//
//	count := embedder.CallCount()
package mock
