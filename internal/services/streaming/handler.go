// Package streaming serves the active media file to other devices over HTTP
// using fixed-size byte-range responses.
package streaming

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"

	"nssplayer/internal/domain"
	"nssplayer/internal/domain/ports"
	"nssplayer/internal/metrics"
	"nssplayer/internal/storage/localfile"
)

const mediaContentType = "video/mp4"

// MediaProvider reports the file to serve. It is consulted on every request,
// so selecting another file while sharing switches what clients receive.
type MediaProvider interface {
	CurrentMedia() domain.MediaRef
}

type Handler struct {
	media     MediaProvider
	source    ports.MediaSource
	chunkSize int64
	streams   *semaphore.Weighted
	logger    *slog.Logger
	handler   http.Handler
}

type HandlerOption func(*Handler)

func WithMediaSource(src ports.MediaSource) HandlerOption {
	return func(h *Handler) {
		h.source = src
	}
}

// WithChunkSize overrides ChunkSize. Non-positive values are ignored.
func WithChunkSize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.chunkSize = n
		}
	}
}

// WithMaxStreams caps concurrent media responses. Zero means unlimited.
func WithMaxStreams(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.streams = semaphore.NewWeighted(int64(n))
		} else {
			h.streams = nil
		}
	}
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(media MediaProvider, opts ...HandlerOption) *Handler {
	h := &Handler{
		media:     media,
		chunkSize: ChunkSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.source == nil {
		h.source = localfile.NewSource()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /video", h.instrument("/video", h.handleVideo))
	mux.HandleFunc("GET /stream", h.instrument("/stream", h.handleStream))
	mux.HandleFunc("GET /fullvideo", h.instrument("/fullvideo", h.handleFullVideo))

	h.handler = otelhttp.NewHandler(mux, "share-stream")
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// handleVideo returns a player page when the browser has not started range
// requests yet, and behaves like /stream once it has.
func (h *Handler) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Range") != "" {
		h.handleStream(w, r)
		return
	}
	title := "Video"
	if ref := h.media.CurrentMedia(); !ref.Empty() {
		title = filepath.Base(string(ref))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playerPage.Execute(w, pageData{Title: title, Src: "/stream"}); err != nil {
		h.logger.Debug("player page write failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	start, rangeErr := requestStart(r.Header.Get("Range"))
	if errors.Is(rangeErr, domain.ErrRangeRequired) {
		writeError(w, http.StatusBadRequest, "range_required", "Range required")
		return
	}

	if !h.acquire(w) {
		return
	}
	defer h.release()

	f, ok := h.open(w)
	if !ok {
		return
	}
	defer f.Close()

	size := f.Size()
	if rangeErr != nil {
		writeRangeNotSatisfiable(w, size)
		return
	}
	br, err := chunkRange(start, size, h.chunkSize)
	if errors.Is(err, domain.ErrRangeNotSatisfiable) {
		writeRangeNotSatisfiable(w, size)
		return
	}

	w.Header().Set("Content-Range", br.ContentRange())
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Type", mediaContentType)
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}

	n, err := io.Copy(w, localfile.RangeReader(f, br))
	metrics.ShareBytesServed.Add(float64(n))
	if err != nil {
		h.logger.Debug("stream range copy interrupted",
			slog.Int64("start", br.Start),
			slog.Int64("end", br.End),
			slog.Int64("written", n),
			slog.String("error", err.Error()),
		)
	}
}

// handleFullVideo streams the whole file. Range headers are deliberately
// ignored.
func (h *Handler) handleFullVideo(w http.ResponseWriter, r *http.Request) {
	if !h.acquire(w) {
		return
	}
	defer h.release()

	f, ok := h.open(w)
	if !ok {
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", mediaContentType)
	w.Header().Set("Content-Disposition", inlineDisposition(f.Name()))
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	n, err := io.Copy(w, io.NewSectionReader(f, 0, f.Size()))
	metrics.ShareBytesServed.Add(float64(n))
	if err != nil {
		h.logger.Debug("full stream copy interrupted",
			slog.Int64("written", n),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) open(w http.ResponseWriter) (ports.MediaFile, bool) {
	ref := h.media.CurrentMedia()
	if ref.Empty() {
		writeError(w, http.StatusServiceUnavailable, "no_media", "no media selected")
		return nil, false
	}
	f, err := h.source.Open(string(ref))
	if err != nil {
		h.logger.Error("open media failed",
			slog.String("path", string(ref)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "media_unavailable", "media file unavailable")
		return nil, false
	}
	return f, true
}

func (h *Handler) acquire(w http.ResponseWriter) bool {
	if h.streams == nil {
		return true
	}
	if !h.streams.TryAcquire(1) {
		metrics.ShareStreamsRejected.Inc()
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "too_many_streams", "too many concurrent streams")
		return false
	}
	return true
}

func (h *Handler) release() {
	if h.streams != nil {
		h.streams.Release(1)
	}
}

func (h *Handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		metrics.ShareRequestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		metrics.ShareRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeRangeNotSatisfiable(w http.ResponseWriter, size int64) {
	w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
}
