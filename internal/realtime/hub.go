package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fleets-server/internal/world"
)

const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"

	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// Message is the frame pushed to stream subscribers.
type Message struct {
	Type  string       `json:"type"`
	World *world.World `json:"world"`
}

// Source supplies the state a new subscriber starts from.
type Source interface {
	State(ctx context.Context) (*world.World, error)
}

// Hub fans persisted world states out to websocket subscribers. Slow
// subscribers drop updates rather than stalling the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
	closed bool

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uint64]chan []byte),
		logger: logger.With("component", "realtime_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			// origin policy is enforced by the CORS layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish encodes w once and offers it to every subscriber.
func (h *Hub) Publish(w *world.World) {
	payload, err := json.Marshal(Message{Type: MessageUpdate, World: w})
	if err != nil {
		h.logger.Error("Failed to encode world update", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for id, ch := range h.subs {
		select {
		case ch <- payload:
		default:
			h.logger.Warn("Subscriber lagging, update dropped", "subscriber", id)
		}
	}
}

// Subscribers reports the number of attached streams.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every subscriber; their streams end.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) subscribe() (uint64, <-chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	h.nextID++
	ch := make(chan []byte, sendBuffer)
	h.subs[h.nextID] = ch
	return h.nextID, ch, true
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Handler upgrades the request, sends the current world from source, then
// streams every published update until either side goes away.
func (h *Hub) Handler(source Source) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			h.logger.Debug("Websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// Subscribe before reading the snapshot so no update falls in between.
		id, updates, ok := h.subscribe()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer h.unsubscribe(id)

		logger := h.logger.With("subscriber", id, "remote_addr", r.RemoteAddr)
		logger.Debug("Subscriber attached")

		snapshot, err := source.State(r.Context())
		if err != nil {
			logger.Error("Failed to load snapshot", "error", err)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "state unavailable"), time.Now().Add(time.Second))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(Message{Type: MessageSnapshot, World: snapshot}); err != nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: clients send nothing meaningful, but control frames and
		// disconnects only surface through reads.
		go func() {
			defer cancel()
			conn.SetReadLimit(1024)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("Subscriber detached")
				return
			case payload, ok := <-updates:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}
