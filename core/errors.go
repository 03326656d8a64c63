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


package core

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	// ErrConfiguration indicates invalid chunking or batching parameters.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidWindowSize indicates a window size that is not positive.
	ErrInvalidWindowSize = fmt.Errorf("%w: window size must be greater than 0", ErrConfiguration)

	// ErrInvalidOverlap indicates an overlap outside [0, window size).
	ErrInvalidOverlap = fmt.Errorf("%w: overlap must be >= 0 and smaller than window size", ErrConfiguration)

	// ErrInvalidBatchSize indicates a batch size that is not positive.
	ErrInvalidBatchSize = fmt.Errorf("%w: batch size must be greater than 0", ErrConfiguration)
)

// Input errors
var (
	// ErrEmptyInput indicates that there is no text to ingest.
	ErrEmptyInput = errors.New("document has no content")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")
)

// ErrIndexing indicates that a batch could not be added to the vector store.
var ErrIndexing = errors.New("vector indexing failed")

// IndexingError describes the failure of a single batch submission.
// It carries enough context to re-index the affected chunks manually.
type IndexingError struct {
	JobID string
	Batch int // Batch ordinal within the job
	Start int // Sequence index of the first chunk in the batch
	Size  int // Number of chunks in the batch
	Err   error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("%s: job %s batch %d (chunks %d-%d): %v",
		ErrIndexing, e.JobID, e.Batch, e.Start, e.Start+e.Size-1, e.Err)
}

// Unwrap returns the underlying store error.
func (e *IndexingError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrIndexing) hold for every IndexingError.
func (e *IndexingError) Is(target error) bool {
	return target == ErrIndexing
}
