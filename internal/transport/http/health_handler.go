package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"calciumcli/pkg/contracts"
)

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	ClientCount() int
	Running() bool
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	WebSocket struct {
		Running bool `json:"running"`
		Clients int  `json:"clients"`
	} `json:"websocket"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	clients ClientCounter
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. clients may be nil.
func NewHealthHandler(clients ClientCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		clients: clients,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	if h.clients != nil {
		resp.WebSocket.Running = h.clients.Running()
		resp.WebSocket.Clients = h.clients.ClientCount()
	}
	render.JSON(w, r, resp)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
