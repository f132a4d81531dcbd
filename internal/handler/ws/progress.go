package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"SessionEdge/internal/domain/models"
	applogger "SessionEdge/pkg/logger"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingEvery    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	runID string
}

// ProgressHub fans run progress out to websocket subscribers. A subscriber
// that falls behind by more than sendBuffer events is dropped.
type ProgressHub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *applogger.Logger
}

func NewProgressHub(l *applogger.Logger) *ProgressHub {
	if l == nil {
		l = applogger.Nop()
	}
	return &ProgressHub{clients: make(map[*client]struct{}), log: l}
}

func (h *ProgressHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/runs", h.Serve)
}

// Publish implements usecase.ProgressSink.
func (h *ProgressHub) Publish(ev models.ProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("encode progress event", applogger.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.runID != "" && c.runID != ev.RunID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.log.Warn("ws subscriber too slow, dropping", applogger.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// Len reports the number of connected subscribers.
func (h *ProgressHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request. ?run_id= limits the stream to one run.
func (h *ProgressHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), runID: c.QueryParam("run_id")}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("ws subscriber connected", applogger.String("run_id", cl.runID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Inbound frames are ignored; the read loop only notices the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(cl, done)
	h.mu.Lock()
	h.removeLocked(cl)
	h.mu.Unlock()
	return nil
}

func (h *ProgressHub) writeLoop(cl *client, done <-chan struct{}) {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-cl.send:
			if !ok {
				return
			}
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeLocked closes the client once; h.mu must be held.
func (h *ProgressHub) removeLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	_ = cl.conn.Close()
}

// Close disconnects every subscriber.
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}
