package chunking

import (
	"iter"
	"unicode/utf8"

	"github.com/poiesic/docindex/core"
)

// Cursor produces the chunks of a text one at a time.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	text   string
	window int
	stride int

	pos    int // byte offset of the next chunk start
	offset int // rune offset of the next chunk start
	index  int
}

// NewCursor creates a cursor over text.
// Returns an error wrapping core.ErrConfiguration if cfg is invalid.
func NewCursor(text string, cfg core.ChunkingConfig) (*Cursor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cursor{
		text:   text,
		window: cfg.WindowSize,
		stride: cfg.Stride(),
	}, nil
}

// Next returns the next chunk and true, or false once the text is exhausted.
func (c *Cursor) Next() (core.Chunk, bool) {
	if c.pos >= len(c.text) {
		return core.Chunk{}, false
	}

	end := advance(c.text, c.pos, c.window)
	chunk := core.Chunk{
		Text:   c.text[c.pos:end],
		Index:  c.index,
		Offset: c.offset,
	}

	if c.index == 0 && end == len(c.text) {
		// A window spanning the whole text is the only chunk.
		c.pos = end
	} else {
		c.pos = advance(c.text, c.pos, c.stride)
	}
	c.offset += c.stride
	c.index++
	return chunk, true
}

// Reset rewinds the cursor to the beginning of the text.
func (c *Cursor) Reset() {
	c.pos = 0
	c.offset = 0
	c.index = 0
}

// Chunks returns the chunks of text as a lazy sequence.
// The configuration is validated before anything is produced. The sequence can
// be ranged over any number of times and yields the same chunks each time.
func Chunks(text string, cfg core.ChunkingConfig) (iter.Seq[core.Chunk], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func(yield func(core.Chunk) bool) {
		cursor := &Cursor{text: text, window: cfg.WindowSize, stride: cfg.Stride()}
		for {
			chunk, ok := cursor.Next()
			if !ok || !yield(chunk) {
				return
			}
		}
	}, nil
}

// Split materializes all chunks of text. Intended for small inputs and tests;
// use Chunks for documents of arbitrary size.
func Split(text string, cfg core.ChunkingConfig) ([]core.Chunk, error) {
	seq, err := Chunks(text, cfg)
	if err != nil {
		return nil, err
	}
	var chunks []core.Chunk
	for chunk := range seq {
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// advance moves n runes forward from byte offset from, stopping at the end of s.
func advance(s string, from, n int) int {
	for i := 0; i < n && from < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[from:])
		from += size
	}
	return from
}
