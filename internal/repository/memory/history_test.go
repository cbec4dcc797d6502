package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"nssplayer/internal/domain"
)

func TestHistoryStore_NewestFirstAndCapped(t *testing.T) {
	s := NewHistoryStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Insert(ctx, domain.ShareRecord{ID: fmt.Sprintf("s%d", i)}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, _ := s.ListRecent(ctx, 0)

	want := []string{"s4", "s3", "s2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("record %d: got %s, want %s", i, got[i].ID, id)
		}
	}

	limited, _ := s.ListRecent(ctx, 1)
	if len(limited) != 1 || limited[0].ID != "s4" {
		t.Fatalf("unexpected limited result %+v", limited)
	}
}

func TestHistoryStore_InsertReplacesSameID(t *testing.T) {
	s := NewHistoryStore(10)
	ctx := context.Background()
	_ = s.Insert(ctx, domain.ShareRecord{ID: "a", URL: "old"})
	_ = s.Insert(ctx, domain.ShareRecord{ID: "a", URL: "new"})

	got, _ := s.ListRecent(ctx, 0)

	if len(got) != 1 || got[0].URL != "new" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestHistoryStore_MarkStopped(t *testing.T) {
	s := NewHistoryStore(10)
	ctx := context.Background()
	_ = s.Insert(ctx, domain.ShareRecord{ID: "a"})
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := s.MarkStopped(ctx, "a", at, "boom"); err != nil {
		t.Fatalf("MarkStopped: %v", err)
	}
	if err := s.MarkStopped(ctx, "zzz", at, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, _ := s.ListRecent(ctx, 0)
	if got[0].StoppedAt == nil || !got[0].StoppedAt.Equal(at) || got[0].StopError != "boom" {
		t.Fatalf("unexpected record %+v", got[0])
	}

	// Returned records are copies.
	*got[0].StoppedAt = at.Add(time.Hour)
	again, _ := s.ListRecent(ctx, 0)
	if !again[0].StoppedAt.Equal(at) {
		t.Fatal("ListRecent leaked internal state")
	}
}

func TestHistoryStore_Concurrent(t *testing.T) {
	s := NewHistoryStore(50)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			_ = s.Insert(ctx, domain.ShareRecord{ID: id})
			_ = s.MarkStopped(ctx, id, time.Now(), "")
			_, _ = s.ListRecent(ctx, 5)
		}(i)
	}
	wg.Wait()

	got, _ := s.ListRecent(ctx, 0)
	if len(got) != 20 {
		t.Fatalf("expected 20 records, got %d", len(got))
	}
}
