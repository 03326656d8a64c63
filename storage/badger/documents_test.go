package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

func TestDocumentBasics(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	doc := &core.Document{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Content:     "Hello, world!",
	}

	added, err := docRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := docRepo.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Content != "Hello, world!" {
		t.Fatalf("Expected 'Hello, world!', got '%s'", retrieved.Content)
	}
	if retrieved.Filename != "notes.txt" {
		t.Fatalf("Expected 'notes.txt', got '%s'", retrieved.Filename)
	}
}

func TestDocumentSequentialIDs(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	seen := make(map[core.ID]bool)
	var last core.ID
	for i := 0; i < 5; i++ {
		doc, err := docRepo.AddDocument(ctx, &core.Document{Filename: "f", Content: "c"})
		if err != nil {
			t.Fatalf("Failed to add document %d: %v", i, err)
		}
		if seen[doc.Id] {
			t.Fatalf("Duplicate ID %d", doc.Id)
		}
		if doc.Id <= last {
			t.Fatalf("Expected increasing IDs, got %d after %d", doc.Id, last)
		}
		seen[doc.Id] = true
		last = doc.Id
	}
}

func TestDocumentNotFound(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	_, err = docRepo.GetDocument(context.Background(), core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestForEachDocument(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	want := map[core.ID]string{}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		doc, err := docRepo.AddDocument(ctx, &core.Document{Filename: name, Content: "text of " + name})
		if err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
		want[doc.Id] = name
	}

	got := map[core.ID]string{}
	err = docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		got[doc.Id] = doc.Filename
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachDocument failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d documents, got %d", len(want), len(got))
	}
	for id, name := range want {
		if got[id] != name {
			t.Errorf("Document %d: expected %q, got %q", id, name, got[id])
		}
	}

	stop := errors.New("stop")
	calls := 0
	err = docRepo.ForEachDocument(ctx, func(*core.Document) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Expected stop error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("Expected iteration to stop after 1 call, got %d", calls)
	}
}

func TestAddDocumentRejectsBlank(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	_, err = docRepo.AddDocument(context.Background(), &core.Document{Filename: "blank.txt", Content: " \n\t"})
	if !errors.Is(err, core.ErrInvalidDocument) || !errors.Is(err, core.ErrEmptyInput) {
		t.Fatalf("Expected ErrInvalidDocument wrapping ErrEmptyInput, got %v", err)
	}
}
