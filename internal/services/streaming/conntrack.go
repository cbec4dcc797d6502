package streaming

import (
	"net"
	"net/http"
	"sync"

	"nssplayer/internal/metrics"
)

// connTracker is the set of client connections currently open on a server.
// http.Server reports state changes from per-connection goroutines, so the
// set is guarded by a mutex.
type connTracker struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func newConnTracker() *connTracker {
	return &connTracker{conns: make(map[net.Conn]struct{})}
}

// track is installed as http.Server.ConnState.
func (t *connTracker) track(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		t.add(c)
	case http.StateClosed, http.StateHijacked:
		t.remove(c)
	}
}

func (t *connTracker) add(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.conns[c]; ok {
		return
	}
	t.conns[c] = struct{}{}
	metrics.ShareOpenConnections.Inc()
}

func (t *connTracker) remove(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.conns[c]; !ok {
		return
	}
	delete(t.conns, c)
	metrics.ShareOpenConnections.Dec()
}

// closeAll force-closes every tracked connection and empties the set.
// It returns the number of connections closed.
func (t *connTracker) closeAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.conns)
	for c := range t.conns {
		_ = c.Close()
		delete(t.conns, c)
	}
	metrics.ShareOpenConnections.Sub(float64(n))
	return n
}

func (t *connTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}
