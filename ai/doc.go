// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by docindex.
//
// The only service the indexing pipeline needs is text embedding:
//
//   - Embedder: Generates vector embeddings from text
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructors
//
// Both openai.NewEmbedder and mock.NewMockEmbedder return concrete types.
// Consumers accept the ai.Embedder interface; the concrete types expose
// extras (the langchaingo embedder, or CallCount, EmbedTextsFunc and Reset
// on the mock).
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vectors, err := embedder.EmbedTexts(ctx, []string{"first chunk", "second chunk"})
package ai
