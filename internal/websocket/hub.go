package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"infrapulse/internal/infrastructure"
)

// TypeConnection is sent to a client right after it registers
const TypeConnection = "connection"

// Message is the envelope of every event sent to clients
type Message struct {
	Type      string      `json:"type"`
	Step      string      `json:"step,omitempty"`
	Status    string      `json:"status,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts run events to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	messagesSent int64
	dropped      int64

	quit    chan struct{}
	running bool
	now     func() time.Time
}

// NewHub creates a hub; metrics may be nil
func NewHub(logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		now:        time.Now,
	}
}

// Start runs the hub loop in a goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			infrastructure.RecordWSClient(ctx, h.metrics, 1)
			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if b, err := h.encode(TypeConnection, "", "connected", map[string]string{"client_id": client.id}); err == nil {
				select {
				case client.send <- b:
				default:
					h.logger.Warn("Client buffer full, connection message dropped",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.remove(client, "Client unregistered")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			delivered := 0
			for _, client := range clients {
				select {
				case client.send <- message:
					delivered++
				default:
					h.remove(client, "Client send buffer full, disconnecting")
				}
			}

			h.mu.Lock()
			h.messagesSent += int64(delivered)
			h.mu.Unlock()
			infrastructure.RecordWSMessages(ctx, h.metrics, messageType(message), delivered)
		}
	}
}

// remove drops a client and closes its send channel once
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	infrastructure.RecordWSClient(context.Background(), h.metrics, -1)
	h.logger.Info(reason,
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

// BroadcastUpdate queues an event for every client. It never blocks: when
// the queue is full or the hub is stopped the event is dropped.
func (h *Hub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	b, err := h.encode(eventType, step, status, metadata)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", eventType))
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}

	select {
	case h.broadcast <- b:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("Broadcast queue full, event dropped", slog.String("message_type", eventType))
	}
}

func (h *Hub) encode(eventType, step, status string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      eventType,
		Step:      step,
		Status:    status,
		Data:      data,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func messageType(b []byte) string {
	var m struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(b, &m)
	return m.Type
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client; it is safe after Stop
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns delivery counters
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_clients": int64(len(h.clients)),
		"messages_sent":  h.messagesSent,
		"dropped":        h.dropped,
	}
}

// Stop shuts the loop down; the loop closes every client on its way out
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}
