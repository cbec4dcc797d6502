package apihttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsMaxInbound   = 512
	wsBacklog      = 64
)

// wsMessage is the frame pushed to the desktop shell.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	hub  *wsHub
	conn *websocket.Conn
	send chan []byte
}

// wsHub fans status frames out to connected shells. The clients map is
// owned by run; other goroutines talk to it through the channels.
type wsHub struct {
	clients    map[*wsClient]struct{}
	count      atomic.Int32
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

func newWSHub(logger *slog.Logger) *wsHub {
	return &wsHub{
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan []byte, wsBacklog),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *wsHub) run() {
	for {
		select {
		case <-h.done:
			h.disconnectAll()
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("status listener attached", slog.Int("listeners", h.sync()))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("status listener detached", slog.Int("listeners", h.sync()))
			}
		case frame := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.drop(c)
				}
			}
			h.sync()
		}
	}
}

func (h *wsHub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
}

func (h *wsHub) sync() int {
	n := len(h.clients)
	h.count.Store(int32(n))
	return n
}

func (h *wsHub) disconnectAll() {
	bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "control api stopping")
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(wsWriteWait))
		}
		h.drop(c)
	}
	h.sync()
}

// Close disconnects every listener. Safe to call more than once.
func (h *wsHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *wsHub) clientCount() int {
	return int(h.count.Load())
}

// Broadcast queues a frame for every listener. A full backlog drops it.
func (h *wsHub) Broadcast(msgType string, data any) {
	if h.clientCount() == 0 {
		return
	}
	frame, err := json.Marshal(wsMessage{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("encode status frame", slog.String("type", msgType), slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Debug("status frame dropped", slog.String("type", msgType))
	}
}

// Origins are checked by corsMiddleware.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (c *wsClient) writePump() {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	defer c.conn.Close()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case frame, open := <-c.send:
			if !open {
				_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			kind, payload = websocket.TextMessage, frame
		case <-ping.C:
			kind = websocket.PingMessage
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			return
		}
	}
}

// readPump only drains control frames; listeners never send data.
func (c *wsClient) readPump() {
	defer c.conn.Close()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(wsPongWait)) }
	c.conn.SetReadLimit(wsMaxInbound)
	_ = extend("")
	c.conn.SetPongHandler(extend)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}
