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


// Package storage provides the persistence layer for docindex.
//
// It defines the repository interfaces used by the vector store and the
// document service, and the binary encoding shared by every backend.
// Two backends are provided:
//
//   - badger: embedded BadgerDB, holding both documents and chunks
//   - redis: chunk storage in a Redis server
//
// # Encoding
//
// Records are encoded with mus-go primitives (varints, length-prefixed
// strings, raw float32). Map entries are written in key order so equal
// records always encode to equal bytes.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	chunks := badger.NewChunkRepository(backend)
//	err = chunks.PutChunks(ctx, records...)
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use.
package storage
