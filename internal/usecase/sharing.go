package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nssplayer/internal/domain"
	"nssplayer/internal/domain/ports"
	"nssplayer/internal/metrics"
	"nssplayer/internal/services/streaming"
)

const (
	DefaultSharePort       = 3000
	defaultShutdownTimeout = 5 * time.Second
)

// StreamServer is a running streaming listener.
type StreamServer interface {
	Port() int
	Connections() int
	Shutdown(ctx context.Context) error
}

// ListenFunc binds addr and serves h until Shutdown.
type ListenFunc func(addr string, h http.Handler, logger *slog.Logger) (StreamServer, error)

func listenStreaming(addr string, h http.Handler, logger *slog.Logger) (StreamServer, error) {
	srv, err := streaming.Listen(addr, h, logger)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

type shareSession struct {
	id        string
	url       string
	filePath  string
	startedAt time.Time
}

// SharingController owns the active media reference and at most one
// streaming server. All methods are safe for concurrent use.
type SharingController struct {
	// lifecycle serialises start and stop, history writes included.
	lifecycle sync.Mutex

	mu      sync.Mutex
	server  StreamServer
	session shareSession

	mediaMu sync.RWMutex
	media   domain.MediaRef

	bindHost        string
	port            int
	shutdownTimeout time.Duration
	handlerOpts     []streaming.HandlerOption

	resolver ports.AddressResolver
	history  ports.ShareHistoryStore
	notifier ports.StatusNotifier
	listen   ListenFunc
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	handler http.Handler
}

type SharingOption func(*SharingController)

// WithBindAddress sets the interface and port the streaming server binds.
// An empty host binds every interface.
func WithBindAddress(host string, port int) SharingOption {
	return func(c *SharingController) {
		c.bindHost = host
		c.port = port
	}
}

func WithShutdownTimeout(d time.Duration) SharingOption {
	return func(c *SharingController) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

func WithAddressResolver(r ports.AddressResolver) SharingOption {
	return func(c *SharingController) {
		c.resolver = r
	}
}

func WithHistory(store ports.ShareHistoryStore) SharingOption {
	return func(c *SharingController) {
		c.history = store
	}
}

func WithNotifier(n ports.StatusNotifier) SharingOption {
	return func(c *SharingController) {
		c.notifier = n
	}
}

func WithListenFunc(fn ListenFunc) SharingOption {
	return func(c *SharingController) {
		if fn != nil {
			c.listen = fn
		}
	}
}

func WithStreamingOptions(opts ...streaming.HandlerOption) SharingOption {
	return func(c *SharingController) {
		c.handlerOpts = append(c.handlerOpts, opts...)
	}
}

func WithSharingLogger(logger *slog.Logger) SharingOption {
	return func(c *SharingController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClock(now func() time.Time) SharingOption {
	return func(c *SharingController) {
		if now != nil {
			c.now = now
		}
	}
}

func NewSharingController(opts ...SharingOption) *SharingController {
	c := &SharingController{
		port:            DefaultSharePort,
		shutdownTimeout: defaultShutdownTimeout,
		listen:          listenStreaming,
		logger:          slog.Default(),
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	handlerOpts := append([]streaming.HandlerOption{streaming.WithLogger(c.logger)}, c.handlerOpts...)
	c.handler = streaming.NewHandler(c, handlerOpts...)
	return c
}

// SetNotifier replaces the status notifier. It is meant to be called once,
// before the controller is shared between goroutines.
func (c *SharingController) SetNotifier(n ports.StatusNotifier) {
	c.notifier = n
}

// CurrentMedia implements streaming.MediaProvider.
func (c *SharingController) CurrentMedia() domain.MediaRef {
	c.mediaMu.RLock()
	defer c.mediaMu.RUnlock()
	return c.media
}

// SelectFile replaces the active media reference. The file is not opened
// here; a missing file surfaces as a 5xx on the streaming side. While
// sharing, later requests receive the new file.
func (c *SharingController) SelectFile(path string) (domain.MediaRef, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", domain.ErrNoFileSelected
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	c.mediaMu.Lock()
	c.media = domain.MediaRef(path)
	c.mediaMu.Unlock()

	c.logger.Info("media selected", slog.String("path", path))
	c.notify()
	return domain.MediaRef(path), nil
}

func (c *SharingController) ClearFile() {
	c.mediaMu.Lock()
	c.media = ""
	c.mediaMu.Unlock()
	c.notify()
}

// StartSharing binds the streaming server and returns the share URL. A
// second call while sharing returns the existing URL without binding again.
func (c *SharingController) StartSharing(ctx context.Context) domain.ShareResult {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.server != nil {
		url := c.session.url
		c.mu.Unlock()
		metrics.ShareSessionsTotal.WithLabelValues("start", "already_running").Inc()
		return domain.ShareResult{Success: true, URL: url, Message: "sharing already running"}
	}

	media := c.CurrentMedia()
	if media.Empty() {
		c.mu.Unlock()
		metrics.ShareSessionsTotal.WithLabelValues("start", domain.CodeNoFileSelected).Inc()
		return domain.ShareResult{
			Code:    domain.CodeNoFileSelected,
			Message: "select a file before sharing",
		}
	}

	addr := net.JoinHostPort(c.bindHost, strconv.Itoa(c.port))
	srv, err := c.listen(addr, c.handler, c.logger)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("sharing start failed",
			slog.String("addr", addr),
			slog.String("error", err.Error()),
		)
		metrics.ShareSessionsTotal.WithLabelValues("start", domain.CodeBindFailed).Inc()
		return domain.ShareResult{
			Code:    domain.CodeBindFailed,
			Message: fmt.Sprintf("could not start sharing on %s: %v", addr, err),
		}
	}

	host := c.localAddress(ctx)
	session := shareSession{
		id:        c.newID(),
		url:       "http://" + net.JoinHostPort(host, strconv.Itoa(srv.Port())) + "/video",
		filePath:  string(media),
		startedAt: c.now().UTC(),
	}
	c.server = srv
	c.session = session
	c.mu.Unlock()

	metrics.ShareActive.Set(1)
	metrics.ShareSessionsTotal.WithLabelValues("start", "ok").Inc()
	c.logger.Info("sharing started",
		slog.String("session", session.id),
		slog.String("url", session.url),
		slog.String("path", session.filePath),
	)

	if c.history != nil {
		rec := domain.ShareRecord{
			ID:        session.id,
			FilePath:  session.filePath,
			URL:       session.url,
			StartedAt: session.startedAt,
		}
		if err := c.history.Insert(ctx, rec); err != nil {
			c.logger.Warn("share history insert failed",
				slog.String("session", session.id),
				slog.String("error", err.Error()),
			)
		}
	}

	c.notify()
	return domain.ShareResult{Success: true, URL: session.url}
}

// StopSharing force-closes client connections and shuts the listener down.
// Local state is cleared whatever the shutdown outcome, so a later start
// binds a fresh server.
func (c *SharingController) StopSharing(ctx context.Context) domain.ShareResult {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	srv := c.server
	session := c.session
	if srv == nil {
		c.mu.Unlock()
		metrics.ShareSessionsTotal.WithLabelValues("stop", domain.CodeNotRunning).Inc()
		return domain.ShareResult{Code: domain.CodeNotRunning, Message: "sharing is not running"}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, c.shutdownTimeout)
	err := srv.Shutdown(shutdownCtx)
	cancel()

	c.server = nil
	c.session = shareSession{}
	c.mu.Unlock()
	metrics.ShareActive.Set(0)

	stopErr := ""
	if err != nil {
		stopErr = err.Error()
	}
	if c.history != nil {
		if herr := c.history.MarkStopped(ctx, session.id, c.now().UTC(), stopErr); herr != nil && !errors.Is(herr, domain.ErrNotFound) {
			c.logger.Warn("share history update failed",
				slog.String("session", session.id),
				slog.String("error", herr.Error()),
			)
		}
	}
	c.notify()

	if err != nil {
		metrics.ShareSessionsTotal.WithLabelValues("stop", domain.CodeShutdownFailed).Inc()
		c.logger.Error("sharing stop failed",
			slog.String("session", session.id),
			slog.String("error", err.Error()),
		)
		return domain.ShareResult{
			Code:    domain.CodeShutdownFailed,
			Message: fmt.Sprintf("sharing stopped with error: %v", err),
		}
	}

	metrics.ShareSessionsTotal.WithLabelValues("stop", "ok").Inc()
	c.logger.Info("sharing stopped", slog.String("session", session.id))
	return domain.ShareResult{Success: true, Message: "sharing stopped"}
}

// Close stops sharing if it is running. Used on process shutdown.
func (c *SharingController) Close(ctx context.Context) error {
	if !c.Sharing() {
		return nil
	}
	if err := c.StopSharing(ctx).Err(); errors.Is(err, domain.ErrShutdown) {
		return err
	}
	return nil
}

func (c *SharingController) Sharing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server != nil
}

func (c *SharingController) Status() domain.ShareStatus {
	c.mu.Lock()
	srv := c.server
	session := c.session
	c.mu.Unlock()

	status := domain.ShareStatus{
		State:    domain.ShareIdle,
		FilePath: string(c.CurrentMedia()),
	}
	if srv == nil {
		return status
	}
	startedAt := session.startedAt
	status.State = domain.ShareSharing
	status.URL = session.url
	status.SessionID = session.id
	status.StartedAt = &startedAt
	status.Connections = srv.Connections()
	return status
}

// History returns the most recent sharing sessions, newest first.
func (c *SharingController) History(ctx context.Context, limit int) ([]domain.ShareRecord, error) {
	if c.history == nil {
		return []domain.ShareRecord{}, nil
	}
	records, err := c.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, wrapRepo(err)
	}
	return records, nil
}

func (c *SharingController) localAddress(ctx context.Context) string {
	if c.resolver == nil {
		return "localhost"
	}
	host, err := c.resolver.LocalAddress(ctx)
	if err != nil || host == "" {
		c.logger.Warn("local address lookup failed, using localhost")
		return "localhost"
	}
	return host
}

func (c *SharingController) notify() {
	if c.notifier == nil {
		return
	}
	c.notifier.NotifyStatus(c.Status())
}
