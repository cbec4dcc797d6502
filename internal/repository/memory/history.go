// Package memory holds share history in process memory. It is the default
// backend and loses data on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"nssplayer/internal/domain"
)

const defaultLimit = 100

type HistoryStore struct {
	mu      sync.RWMutex
	records []domain.ShareRecord
	limit   int
}

func NewHistoryStore(limit int) *HistoryStore {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &HistoryStore{limit: limit}
}

// Insert replaces a record with the same ID, otherwise appends and evicts the
// oldest record once the limit is reached.
func (s *HistoryStore) Insert(_ context.Context, rec domain.ShareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i] = rec
			return nil
		}
	}
	s.records = append(s.records, rec)
	if len(s.records) > s.limit {
		s.records = append(s.records[:0:0], s.records[len(s.records)-s.limit:]...)
	}
	return nil
}

func (s *HistoryStore) MarkStopped(_ context.Context, id string, stoppedAt time.Time, stopErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			stopped := stoppedAt.UTC()
			s.records[i].StoppedAt = &stopped
			s.records[i].StopError = stopErr
			return nil
		}
	}
	return domain.ErrNotFound
}

// ListRecent returns copies, newest insert first.
func (s *HistoryStore) ListRecent(_ context.Context, limit int) ([]domain.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ShareRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		rec := s.records[i]
		if rec.StoppedAt != nil {
			stopped := *rec.StoppedAt
			rec.StoppedAt = &stopped
		}
		out = append(out, rec)
	}
	return out, nil
}
