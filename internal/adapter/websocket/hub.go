package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/firesight-detection-service/internal/domain"
	"github.com/couchcryptid/firesight-detection-service/internal/observability"
)

// sendBuffer is the per-client outbound queue. A client whose queue is full
// when a batch arrives is dropped.
const sendBuffer = 16

// Envelope is the frame pushed to dashboard clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans each run's alerts out to connected websocket clients. The client
// set is owned by the Run goroutine.
// It implements pipeline.BatchLoader and http.Handler.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewHub creates a Hub. Call Run before serving clients.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards are served from other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    metrics,
	}
}

// Run dispatches registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*Client]struct{})
	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
		h.metrics.StreamClients.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			h.metrics.StreamClients.Set(float64(len(clients)))
			h.logger.Info("stream client connected", "remote", c.conn.RemoteAddr().String(), "clients", len(clients))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.metrics.StreamClients.Set(float64(len(clients)))
				h.logger.Info("stream client disconnected", "remote", c.conn.RemoteAddr().String(), "clients", len(clients))
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("stream client too slow, dropping", "remote", c.conn.RemoteAddr().String())
					delete(clients, c)
					close(c.send)
				}
			}
			h.metrics.StreamClients.Set(float64(len(clients)))
		}
	}
}

// LoadBatch pushes the run's alerts to every connected client. Runs without
// alerts are not broadcast.
func (h *Hub) LoadBatch(ctx context.Context, result domain.AnalysisResult) error {
	if len(result.Alerts) == 0 {
		return nil
	}
	msg, err := json.Marshal(Envelope{Type: "alerts", Payload: result.Alerts})
	if err != nil {
		return fmt.Errorf("encode alert broadcast: %w", err)
	}

	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		// Hub stopped; nobody is listening.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
