// Package redis stores embedded chunks in a Redis server.
//
// Each chunk is kept as an encoded string value under <prefix>:chunk:<id>,
// and every job has a sorted set <prefix>:job:<jobID> scored by chunk index.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces all keys written by the repository.
const DefaultPrefix = "docindex"

// ChunkRepository implements storage.ChunkRepository on Redis.
type ChunkRepository struct {
	client    *redis.Client
	prefix    string
	ownClient bool
	logger    *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// Open connects to the Redis server at url (redis://host:port/db) and
// verifies the connection. The returned repository owns the client.
func Open(ctx context.Context, url string, prefix string) (*ChunkRepository, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis chunk store: url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis chunk store: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis chunk store: ping failed: %w", err)
	}
	repo := NewChunkRepository(client, prefix)
	repo.ownClient = true
	return repo, nil
}

// NewChunkRepository wraps an existing client. An empty prefix means DefaultPrefix.
// The caller keeps ownership of the client.
func NewChunkRepository(client *redis.Client, prefix string) *ChunkRepository {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ChunkRepository{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "redis-chunks"),
	}
}

// Close closes the client when the repository opened it.
func (r *ChunkRepository) Close() error {
	if !r.ownClient {
		return nil
	}
	return r.client.Close()
}

// PutChunks writes the chunk values and job index entries in one MULTI/EXEC.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, chunk := range chunks {
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = now
			}
			pipe.Set(ctx, r.chunkKey(chunk.Id), storage.MarshalChunkRecord(chunk), 0)
			pipe.ZAdd(ctx, r.jobKey(chunk.JobID), redis.Z{
				Score:  float64(chunk.Index),
				Member: chunk.Id.String(),
			})
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to write chunks", "count", len(chunks), "err", err)
		return fmt.Errorf("redis chunk store: put: %w", err)
	}
	return nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.ChunkRecord, error) {
	data, err := r.client.Get(ctx, r.chunkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis chunk store: get: %w", err)
	}
	return storage.UnmarshalChunkRecord(data)
}

// ChunksByJob returns the chunks of a job ordered by chunk index.
// Index entries whose value has gone missing are skipped.
func (r *ChunkRepository) ChunksByJob(ctx context.Context, jobID string) ([]*core.ChunkRecord, error) {
	members, err := r.client.ZRange(ctx, r.jobKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis chunk store: list job: %w", err)
	}
	results := []*core.ChunkRecord{}
	if len(members) == 0 {
		return results, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		id, err := strconv.ParseUint(member, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("redis chunk store: bad index member %q: %w", member, err)
		}
		keys[i] = r.chunkKey(core.ID(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis chunk store: load job: %w", err)
	}
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			r.logger.Warn("chunk missing for index entry", "job", jobID, "key", keys[i])
			continue
		}
		record, err := storage.UnmarshalChunkRecord([]byte(s))
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, nil
}

// DeleteJob removes the chunk values of a job and its sorted set.
func (r *ChunkRepository) DeleteJob(ctx context.Context, jobID string) error {
	jobKey := r.jobKey(jobID)
	members, err := r.client.ZRange(ctx, jobKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis chunk store: list job: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		id, err := strconv.ParseUint(member, 16, 64)
		if err != nil {
			return fmt.Errorf("redis chunk store: bad index member %q: %w", member, err)
		}
		keys = append(keys, r.chunkKey(core.ID(id)))
	}
	keys = append(keys, jobKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis chunk store: delete job: %w", err)
	}
	return nil
}

func (r *ChunkRepository) chunkKey(id core.ID) string {
	return r.prefix + ":chunk:" + id.String()
}

func (r *ChunkRepository) jobKey(jobID string) string {
	return r.prefix + ":job:" + jobID
}
