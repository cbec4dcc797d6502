package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nssplayer/internal/domain"
)

// Server is one bound streaming listener together with the set of client
// connections it has accepted.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	conns  *connTracker
	done   chan struct{}
	logger *slog.Logger
}

// Listen binds addr synchronously and starts serving handler in the
// background. Bind failures wrap domain.ErrBind.
func Listen(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBind, err)
	}

	s := &Server{
		ln:     ln,
		conns:  newConnTracker(),
		done:   make(chan struct{}),
		logger: logger,
	}
	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ConnState:         s.conns.track,
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("streaming server error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("streaming server listening", slog.String("addr", ln.Addr().String()))
	return s, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	return s.conns.len()
}

// Shutdown force-closes every client connection, closes the listener and
// waits for the serve loop to exit. The connection set is empty when it
// returns, whatever the outcome.
func (s *Server) Shutdown(ctx context.Context) error {
	closed := s.conns.closeAll()

	err := s.srv.Shutdown(ctx)
	if err != nil {
		_ = s.srv.Close()
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	closed += s.conns.closeAll()
	s.logger.Info("streaming server stopped",
		slog.String("addr", s.ln.Addr().String()),
		slog.Int("closedConnections", closed),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrShutdown, err)
	}
	return nil
}
