package indexing

import (
	"context"
	"errors"
	"sync"

	"github.com/poiesic/docindex/vectorstore"
)

var errStoreDown = errors.New("store unavailable")

// recordingStore records every Add call and fails the batches listed in failOn.
type recordingStore struct {
	mu     sync.Mutex
	calls  [][]vectorstore.Document
	failOn map[string]bool // batch_index values that fail
	block  chan struct{}   // when set, Add waits for it to close or ctx to end
}

func newRecordingStore(failOn ...string) *recordingStore {
	s := &recordingStore{failOn: make(map[string]bool)}
	for _, b := range failOn {
		s.failOn[b] = true
	}
	return s
}

func (s *recordingStore) Add(ctx context.Context, docs []vectorstore.Document) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, docs)
	if len(docs) > 0 && s.failOn[docs[0].Metadata[vectorstore.MetaBatchIndex]] {
		return errStoreDown
	}
	return nil
}

func (s *recordingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingStore) texts() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	for i, call := range s.calls {
		for _, doc := range call {
			out[i] = append(out[i], doc.Text)
		}
	}
	return out
}
