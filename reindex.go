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


package docindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/indexing"
)

// Reindex schedules every stored document for indexing again, typically
// after switching embedding models or chunking settings. The document's
// chunks in the service's chunk repository are deleted first, so chunks
// from an earlier window size do not linger next to the new ones. Chunks
// written to an external store through WithStore are left alone.
//
// onSchedule, if non-nil, is called for each document just before it is
// scheduled. Reindex returns the number of documents scheduled; call Wait
// to block until they are indexed.
func (s *Service) Reindex(ctx context.Context, onSchedule func(*core.Document)) (int, error) {
	scheduled := 0
	err := s.docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		if core.IsBlank(doc.Content) {
			s.logger.Warn("skipping blank document", "id", doc.Id)
			return nil
		}
		if onSchedule != nil {
			onSchedule(doc)
		}
		if err := s.chunkRepo.DeleteJob(ctx, doc.JobID()); err != nil {
			return fmt.Errorf("clearing chunks of document %s: %w", doc.JobID(), err)
		}

		job := core.Job{ID: doc.JobID(), Text: doc.Content}
		err := s.indexer.IndexAsync(job)
		if errors.Is(err, indexing.ErrIndexerBusy) {
			// Bounded pool: drain it and try once more
			s.indexer.Wait()
			err = s.indexer.IndexAsync(job)
		}
		if err != nil {
			return fmt.Errorf("scheduling document %s: %w", doc.JobID(), err)
		}
		scheduled++
		return nil
	})
	if err != nil {
		return scheduled, err
	}

	s.logger.Info("documents scheduled for reindexing", "count", scheduled)
	return scheduled, nil
}
