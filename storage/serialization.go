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


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docindex/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, wrapDecode(err)
	}
	return core.ID(v), nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	w := encode(func(e *encoder) { e.document(doc) })
	return w.buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	d := &decoder{buf: data}
	doc := &core.Document{
		Id:          core.ID(d.uint64()),
		Filename:    d.string(),
		ContentType: d.string(),
		Content:     d.string(),
		InsertedAt:  d.time(),
	}
	if d.err != nil {
		return nil, d.err
	}
	return doc, nil
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *core.ChunkRecord) []byte {
	w := encode(func(e *encoder) { e.chunkRecord(record) })
	return w.buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*core.ChunkRecord, error) {
	d := &decoder{buf: data}
	record := &core.ChunkRecord{
		Id:     core.ID(d.uint64()),
		JobID:  d.string(),
		Index:  d.int(),
		Offset: d.int(),
		Text:   d.string(),
	}
	if n := d.length(); n > 0 {
		record.Vector = make([]float32, n)
		for i := range record.Vector {
			record.Vector[i] = d.float32()
		}
	}
	if n := d.length(); n > 0 {
		record.Metadata = make(map[string]string, n)
		for i := 0; i < n; i++ {
			k := d.string()
			record.Metadata[k] = d.string()
		}
	}
	record.InsertedAt = d.time()
	if d.err != nil {
		return nil, d.err
	}
	return record, nil
}

// encoder runs twice: once with buf == nil to compute the size,
// then again to fill an exactly sized buffer.
type encoder struct {
	buf []byte
	n   int
}

func encode(fn func(e *encoder)) *encoder {
	sizer := &encoder{}
	fn(sizer)
	e := &encoder{buf: make([]byte, sizer.n)}
	fn(e)
	return e
}

func (e *encoder) uint64(v uint64) {
	if e.buf == nil {
		e.n += varint.Uint64.Size(v)
		return
	}
	e.n += varint.Uint64.Marshal(v, e.buf[e.n:])
}

func (e *encoder) int(v int) {
	if e.buf == nil {
		e.n += varint.Int.Size(v)
		return
	}
	e.n += varint.Int.Marshal(v, e.buf[e.n:])
}

func (e *encoder) string(v string) {
	if e.buf == nil {
		e.n += ord.String.Size(v)
		return
	}
	e.n += ord.String.Marshal(v, e.buf[e.n:])
}

func (e *encoder) float32(v float32) {
	if e.buf == nil {
		e.n += raw.Float32.Size(v)
		return
	}
	e.n += raw.Float32.Marshal(v, e.buf[e.n:])
}

func (e *encoder) time(t time.Time) {
	if t.IsZero() {
		e.int64(0)
		return
	}
	e.int64(t.UnixNano())
}

func (e *encoder) int64(v int64) {
	if e.buf == nil {
		e.n += varint.Int64.Size(v)
		return
	}
	e.n += varint.Int64.Marshal(v, e.buf[e.n:])
}

func (e *encoder) document(doc *core.Document) {
	e.uint64(uint64(doc.Id))
	e.string(doc.Filename)
	e.string(doc.ContentType)
	e.string(doc.Content)
	e.time(doc.InsertedAt)
}

func (e *encoder) chunkRecord(r *core.ChunkRecord) {
	e.uint64(uint64(r.Id))
	e.string(r.JobID)
	e.int(r.Index)
	e.int(r.Offset)
	e.string(r.Text)
	e.int(len(r.Vector))
	for _, f := range r.Vector {
		e.float32(f)
	}
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e.int(len(keys))
	for _, k := range keys {
		e.string(k)
		e.string(r.Metadata[k])
	}
	e.time(r.InsertedAt)
}

// decoder reads fields in order and keeps the first error.
type decoder struct {
	buf []byte
	n   int
	err error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.buf[d.n:])
	d.n += n
	d.err = wrapDecode(err)
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.buf[d.n:])
	d.n += n
	d.err = wrapDecode(err)
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.buf[d.n:])
	d.n += n
	d.err = wrapDecode(err)
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.buf[d.n:])
	d.n += n
	d.err = wrapDecode(err)
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.buf[d.n:])
	d.n += n
	d.err = wrapDecode(err)
	return v
}

// length reads a collection length and rejects values the remaining
// input cannot possibly hold.
func (d *decoder) length() int {
	n := d.int()
	if d.err == nil && (n < 0 || n > len(d.buf)-d.n) {
		d.err = fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrTruncatedData, n, len(d.buf)-d.n)
		return 0
	}
	return n
}

func (d *decoder) time() time.Time {
	nanos := d.int64()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

func wrapDecode(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}
