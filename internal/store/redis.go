package store

import (
	"context"
	"encoding/json"
	"fmt"

	"evidence-custody-go/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	historyKeyPrefix = "evidence:history:"
	globalHistoryKey = "evidence:history:global"
	eventChannel     = "custody_events"
)

// RedisStore caches the local pending evidence history per identity and
// fans out custody events for the SSE stream.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(opts *redis.Options) *RedisStore {
	rdb := redis.NewClient(opts)
	return &RedisStore{client: rdb}
}

func historyKey(identity string) string {
	if identity == "" {
		return globalHistoryKey
	}
	return historyKeyPrefix + identity
}

// History returns the cached records for an identity, newest first. An
// identity with no cache of its own falls back to the global key.
func (s *RedisStore) History(ctx context.Context, identity string) ([]models.EvidenceRecord, error) {
	val, err := s.client.Get(ctx, historyKey(identity)).Result()
	if err == redis.Nil && identity != "" {
		val, err = s.client.Get(ctx, globalHistoryKey).Result()
	}
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []models.EvidenceRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, fmt.Errorf("corrupt history for %q: %w", identity, err)
	}
	return records, nil
}

// SaveHistory replaces the identity's cached records wholesale.
func (s *RedisStore) SaveHistory(ctx context.Context, identity string, records []models.EvidenceRecord) error {
	if records == nil {
		records = []models.EvidenceRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyKey(identity), data, 0).Err()
}

// Prepend adds a record at the head of the identity's history.
func (s *RedisStore) Prepend(ctx context.Context, identity string, rec models.EvidenceRecord) error {
	records, err := s.History(ctx, identity)
	if err != nil {
		return err
	}
	return s.SaveHistory(ctx, identity, append([]models.EvidenceRecord{rec}, records...))
}

// Publish pushes a custody event to the SSE feed.
func (s *RedisStore) Publish(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, eventChannel, payload).Err()
}

func (s *RedisStore) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, eventChannel)
}
