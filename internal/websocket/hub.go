package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"calciumcli/internal/infrastructure"
)

// TypeConnection is sent to a client right after it registers
const TypeConnection = "connection"

// Event is the JSON message broadcast to every client
type Event struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and broadcasts run events to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	clientGauge metric.Int64UpDownCounter
	eventsSent  metric.Int64Counter
	logger      *slog.Logger
}

// NewHub creates a new hub. Call Start before serving connections.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(infrastructure.MeterName)
	clientGauge, _ := meter.Int64UpDownCounter("calcium_ws_clients",
		metric.WithDescription("Connected WebSocket clients"))
	eventsSent, _ := meter.Int64Counter("calcium_ws_events",
		metric.WithDescription("Events broadcast to WebSocket clients"))

	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		clientGauge: clientGauge,
		eventsSent:  eventsSent,
		logger:      infrastructure.WithComponent(logger, "websocket.hub"),
	}
}

// Start runs the hub loop in a new goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("Hub stopped")
}

// Running reports whether the hub loop is active
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.clientGauge.Add(ctx, 1)

			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if msg, err := encodeEvent(Event{Type: TypeConnection, Data: map[string]string{"client_id": client.id}}); err == nil {
				select {
				case client.send <- msg:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.clientGauge.Add(ctx, -1)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, drop it
					close(client.send)
					delete(h.clients, client)
					h.clientGauge.Add(ctx, -1)
					h.logger.Warn("Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts a run event. Events are dropped when the hub is not
// running or its queue is full.
func (h *Hub) Publish(ctx context.Context, eventType, runID string, data any) {
	msg, err := encodeEvent(Event{
		Type:    eventType,
		RunID:   runID,
		Data:    data,
		TraceID: infrastructure.TraceIDFromContext(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling event",
			slog.String("event", eventType),
			slog.String("error", err.Error()))
		return
	}

	if !h.Running() {
		return
	}
	select {
	case h.broadcast <- msg:
		h.eventsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
	default:
		h.logger.WarnContext(ctx, "Event queue full, dropping event",
			slog.String("event", eventType),
			slog.String("run_id", runID))
	}
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.Running() {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := NewClient(h, newConnectionWrapper(conn), h.logger)
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func encodeEvent(e Event) ([]byte, error) {
	e.Timestamp = time.Now().Format(time.RFC3339)
	return json.Marshal(e)
}
