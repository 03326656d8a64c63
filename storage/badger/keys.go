package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docindex/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	documentIDSeq  = "docrecseq"
	chunkPrefix    = "chkrec"
	chunkJobPrefix = "chkjob"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makePartialChunkJobKey generates the prefix shared by every index entry of a job.
// Format: prefix:len(jobID):jobID
// The length keeps job "a" from matching the entries of job "a:b".
func makePartialChunkJobKey(jobID string) []byte {
	prefix := chunkJobPrefix + ":"
	buf := make([]byte, len(prefix)+4+len(jobID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(jobID)))
	offset += 4
	copy(buf[offset:], jobID)
	return buf
}

// makeChunkJobKey generates a composite key for the job index.
// Format: prefix:len(jobID):jobID:index:id
func makeChunkJobKey(jobID string, index int, id core.ID) []byte {
	partial := makePartialChunkJobKey(jobID)
	buf := make([]byte, len(partial)+16) // 8 bytes for index + 8 bytes for ID
	offset := copy(buf, partial)
	// Write in BigEndian order so lexicographic sort follows chunk order
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
