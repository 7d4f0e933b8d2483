package faq

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const entriesKey = "faq:entries"

// Repository persists embedded entries so the index can be rebuilt without
// calling the embedding model again.
type Repository interface {
	Save(ctx context.Context, vectors []Vector) error
	LoadAll(ctx context.Context) ([]Vector, error)
}

// RedisRepository keeps one hash field per entry id.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	if client == nil {
		panic("faq: redis client cannot be nil")
	}
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Save(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	fields := make(map[string]any, len(vectors))
	for _, v := range vectors {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("faq: marshal entry %s: %w", v.Entry.ID, err)
		}
		fields[v.Entry.ID] = data
	}
	if err := r.client.HSet(ctx, entriesKey, fields).Err(); err != nil {
		return fmt.Errorf("faq: save entries: %w", err)
	}
	return nil
}

func (r *RedisRepository) LoadAll(ctx context.Context) ([]Vector, error) {
	raw, err := r.client.HGetAll(ctx, entriesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("faq: load entries: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Vector, 0, len(raw))
	for _, id := range ids {
		var v Vector
		if err := json.Unmarshal([]byte(raw[id]), &v); err != nil {
			return nil, fmt.Errorf("faq: decode entry %s: %w", id, err)
		}
		out = append(out, v)
	}
	return out, nil
}
