// Package redis keeps share history in Redis: JSON records in a hash and a
// capped list of IDs, newest first.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"nssplayer/internal/domain"
)

const (
	defaultPrefix = "nssplayer:share:"
	defaultLimit  = 100
)

type HistoryStore struct {
	client *redis.Client
	prefix string
	limit  int
}

// NewHistoryStore keeps at most limit records. Older ones are evicted on
// insert.
func NewHistoryStore(client *redis.Client, limit int) *HistoryStore {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &HistoryStore{client: client, prefix: defaultPrefix, limit: limit}
}

func (s *HistoryStore) recordsKey() string { return s.prefix + "records" }
func (s *HistoryStore) idsKey() string     { return s.prefix + "ids" }

func (s *HistoryStore) Insert(ctx context.Context, rec domain.ShareRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.recordsKey(), rec.ID, data)
	pipe.LRem(ctx, s.idsKey(), 0, rec.ID)
	pipe.LPush(ctx, s.idsKey(), rec.ID)
	overflow := pipe.LRange(ctx, s.idsKey(), int64(s.limit), -1)
	pipe.LTrim(ctx, s.idsKey(), 0, int64(s.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if evicted := overflow.Val(); len(evicted) > 0 {
		return s.client.HDel(ctx, s.recordsKey(), evicted...).Err()
	}
	return nil
}

func (s *HistoryStore) MarkStopped(ctx context.Context, id string, stoppedAt time.Time, stopErr string) error {
	data, err := s.client.HGet(ctx, s.recordsKey(), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}
	var rec domain.ShareRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	stopped := stoppedAt.UTC()
	rec.StoppedAt = &stopped
	rec.StopError = stopErr

	updated, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.recordsKey(), id, updated).Err()
}

func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]domain.ShareRecord, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	ids, err := s.client.LRange(ctx, s.idsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.ShareRecord{}, nil
	}

	values, err := s.client.HMGet(ctx, s.recordsKey(), ids...).Result()
	if err != nil {
		return nil, err
	}
	return decodeRecords(values), nil
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// decodeRecords skips missing or corrupt entries.
func decodeRecords(values []any) []domain.ShareRecord {
	out := make([]domain.ShareRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec domain.ShareRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}
