package vectorstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each vector in a hash and ranks candidates client-side.
// It suits the small, bounded corpus a single org's metadata produces.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed vector store under the key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if client == nil {
		panic("vectorstore: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "sfmeta"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) idsKey() string { return s.prefix + ":ids" }

func (s *RedisStore) vectorKey(id string) string { return s.prefix + ":vec:" + id }

func (s *RedisStore) Upsert(ctx context.Context, vectors []Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := validateVectors(vectors); err != nil {
		return 0, err
	}

	pipe := s.client.TxPipeline()
	for _, v := range vectors {
		pipe.HSet(ctx, s.vectorKey(v.ID), map[string]any{
			"text":   v.Text,
			"values": encodeFloat32s(v.Values),
		})
		pipe.SAdd(ctx, s.idsKey(), v.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("vectorstore: redis upsert failed: %w", err)
	}
	return len(vectors), nil
}

func (s *RedisStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		topK = 5
	}

	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("vectorstore: redis list ids failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.vectorKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("vectorstore: redis load vectors failed: %w", err)
	}

	results := make([]Match, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		values, err := decodeFloat32s(fields["values"])
		if err != nil {
			return nil, fmt.Errorf("vectorstore: redis vector %s: %w", ids[i], err)
		}
		results = append(results, Match{
			ID:    ids[i],
			Score: float32(cosineSimilarity(vector, values)),
			Text:  fields["text"],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func encodeFloat32s(values []float32) string {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

func decodeFloat32s(raw string) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, errors.New("corrupt vector encoding")
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(raw[i*4 : i*4+4])))
	}
	return out, nil
}
