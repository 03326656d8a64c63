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
	"fmt"
	"strings"
)

// Validate checks the chunking parameters.
//
// Validation rules:
//   - WindowSize must be greater than 0
//   - Overlap must be >= 0 and smaller than WindowSize (the stride must be positive)
func (c ChunkingConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidWindowSize, c.WindowSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.WindowSize {
		return fmt.Errorf("%w (overlap %d, window %d)", ErrInvalidOverlap, c.Overlap, c.WindowSize)
	}
	return nil
}

// ValidateBatchSize checks that a batch size is positive.
func ValidateBatchSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidBatchSize, size)
	}
	return nil
}

// ValidateJob validates a fully resolved Job.
//
// Configuration problems are reported before input problems so that a
// misconfigured pipeline is detected regardless of the document.
func ValidateJob(job Job) error {
	if err := job.Chunking.Validate(); err != nil {
		return err
	}
	if err := ValidateBatchSize(job.BatchSize); err != nil {
		return err
	}
	if IsBlank(job.Text) {
		return ErrEmptyInput
	}
	return nil
}

// ValidateDocument validates a Document before it is persisted.
//
// NOT validated:
//   - ID (assigned by the repository)
//   - ContentType (may be unknown)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if IsBlank(doc.Content) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyInput)
	}
	return nil
}

// IsBlank reports whether text is empty or consists only of whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
