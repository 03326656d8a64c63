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


package vectorstore

import "errors"

var (
	// ErrEmbedderRequired indicates that no embedder was supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrRepositoryRequired indicates that no chunk repository was supplied.
	ErrRepositoryRequired = errors.New("chunk repository is required")

	// ErrStoreRequired indicates that no underlying store was supplied.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch indicates the embedder returned a different number
	// of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
