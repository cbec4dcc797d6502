package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"nssplayer/internal/domain"
)

func TestDecodeRecordsSkipsBadEntries(t *testing.T) {
	values := []any{
		`{"id":"a","filePath":"/v.mp4","url":"http://h:3000/video","startedAt":"2026-03-01T10:00:00Z"}`,
		nil,
		"{broken",
		`{"id":"b","startedAt":"2026-03-01T09:00:00Z"}`,
	}

	got := decodeRecords(values)

	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected records %+v", got)
	}
}

// setupTestStore uses REDIS_TEST_URL (default localhost:6379, db 15) and
// skips when Redis is unreachable.
func setupTestStore(t *testing.T, limit int) *HistoryStore {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_TEST_URL: %v", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", url, err)
	}

	store := NewHistoryStore(client, limit)
	store.prefix = fmt.Sprintf("nssplayer_test_%d:", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = client.Del(context.Background(), store.recordsKey(), store.idsKey()).Err()
		_ = client.Close()
	})
	return store
}

func TestHistoryStoreIntegration_CapAndOrder(t *testing.T) {
	store := setupTestStore(t, 2)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		rec := domain.ShareRecord{ID: fmt.Sprintf("s%d", i), StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s2" || got[1].ID != "s1" {
		t.Fatalf("unexpected records %+v", got)
	}
	if n, _ := store.client.HLen(ctx, store.recordsKey()).Result(); n != 2 {
		t.Fatalf("expected evicted record removed from hash, have %d", n)
	}
}

func TestHistoryStoreIntegration_MarkStopped(t *testing.T) {
	store := setupTestStore(t, 10)
	ctx := context.Background()

	if err := store.MarkStopped(ctx, "missing", time.Now(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Insert(ctx, domain.ShareRecord{ID: "a", StartedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.MarkStopped(ctx, "a", time.Now(), "close failed"); err != nil {
		t.Fatalf("MarkStopped: %v", err)
	}
	got, _ := store.ListRecent(ctx, 1)
	if len(got) != 1 || got[0].StoppedAt == nil || got[0].StopError != "close failed" {
		t.Fatalf("unexpected record %+v", got)
	}
}
