package ports

import (
	"context"
	"io"
	"time"

	"nssplayer/internal/domain"
)

// AddressResolver returns the host other devices should use to reach this
// machine.
type AddressResolver interface {
	LocalAddress(ctx context.Context) (string, error)
}

type ShareHistoryStore interface {
	Insert(ctx context.Context, rec domain.ShareRecord) error
	MarkStopped(ctx context.Context, id string, stoppedAt time.Time, stopErr string) error
	ListRecent(ctx context.Context, limit int) ([]domain.ShareRecord, error)
}

type StatusNotifier interface {
	NotifyStatus(status domain.ShareStatus)
}

type MediaFile interface {
	io.ReaderAt
	io.Closer
	Size() int64
	Name() string
}

type MediaSource interface {
	Open(path string) (MediaFile, error)
}
