package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")
	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	chunk := Chunk{Text: "ABCD", Index: 0}

	if ChunkID("7", chunk) != ChunkID("7", chunk) {
		t.Errorf("ChunkID() is not deterministic")
	}
	if ChunkID("7", chunk) == ChunkID("8", chunk) {
		t.Errorf("ChunkID() ignores the job id")
	}
	// Identical text at a different position is a different chunk.
	if ChunkID("7", chunk) == ChunkID("7", Chunk{Text: "ABCD", Index: 1}) {
		t.Errorf("ChunkID() ignores the chunk index")
	}
}

func TestBatch_Accessors(t *testing.T) {
	batch := Batch{
		Index: 1,
		Chunks: []Chunk{
			{Text: "GHIJ", Index: 2, Offset: 6},
			{Text: "J", Index: 3, Offset: 9},
		},
	}

	if got := batch.Start(); got != 2 {
		t.Errorf("Start() = %d, want 2", got)
	}
	if got := batch.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	texts := batch.Texts()
	if len(texts) != 2 || texts[0] != "GHIJ" || texts[1] != "J" {
		t.Errorf("Texts() = %v, want [GHIJ J]", texts)
	}
	if got := (Batch{}).Start(); got != -1 {
		t.Errorf("empty Batch Start() = %d, want -1", got)
	}
}

func TestChunkingConfig_Stride(t *testing.T) {
	cfg := ChunkingConfig{WindowSize: 4000, Overlap: 200}
	if got := cfg.Stride(); got != 3800 {
		t.Errorf("Stride() = %d, want 3800", got)
	}
	if !(ChunkingConfig{}).IsZero() {
		t.Errorf("zero ChunkingConfig IsZero() = false")
	}
}

func TestDocument_JobID(t *testing.T) {
	doc := &Document{Id: 42}
	if got := doc.JobID(); got != "42" {
		t.Errorf("JobID() = %q, want %q", got, "42")
	}
}
