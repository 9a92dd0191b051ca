package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calciumcli/internal/config"
	"calciumcli/internal/infrastructure"
	customMiddleware "calciumcli/internal/middleware"
	"calciumcli/internal/services"
	handlers "calciumcli/internal/transport/http"
	ws "calciumcli/internal/websocket"
	"calciumcli/pkg/contracts"
)

// Application represents the serve-mode application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Service       *services.AnalysisService
	WebSocketHub  *ws.Hub
	Router        *chi.Mux
	Server        *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewApplication wires the analysis service, the event hub and the HTTP
// router. The caller owns logger and providers.
func NewApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if cfg == nil || paths == nil {
		return nil, errors.New("config and paths are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		WebSocketHub:  ws.NewHub(logger),
	}
	a.Service = services.NewAnalysisService(cfg, paths, logger,
		services.WithTelemetry(providers),
		services.WithEvents(a.WebSocketHub))

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	a.createServer()
	return a, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// The WebSocket route only gets middleware that leaves the
	// ResponseWriter unwrapped
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		customMiddleware.WriteProblem(w, customMiddleware.ProblemFromStatus(http.StatusNotFound,
			"no route for "+r.URL.Path, customMiddleware.GetRequestID(r.Context())))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		customMiddleware.WriteProblem(w, customMiddleware.ProblemFromStatus(http.StatusMethodNotAllowed,
			r.Method+" is not allowed on "+r.URL.Path, customMiddleware.GetRequestID(r.Context())))
	})

	r.Get("/ws", a.WebSocketHub.ServeWS)

	if a.OTelProviders != nil && a.OTelProviders.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.OTelProviders.Registry, promhttp.HandlerOpts{}))
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware()
	if err != nil {
		return err
	}

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", a.setupAPIRoutes)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout))

		healthHandler := handlers.NewHealthHandler(a.WebSocketHub, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
	})

	// analyses include report export and get their own timeout
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		analysisHandler := handlers.NewAnalysisHandler(a.Service,
			a.Paths.UploadsDir, a.Paths.OutputDir, a.Config.Input.MaxFileSize, a.Logger)
		r.Mount("/v1/analyses", analysisHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Addr returns the address the server listens on once started
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return a.Config.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start starts the hub and the HTTP server. A server failure after startup
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Server started",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", "http://"+ln.Addr().String()),
		slog.String("output_dir", a.Paths.OutputDir))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	err := a.Server.Shutdown(shutdownCtx)
	a.WebSocketHub.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Logger.InfoContext(ctx, "Server shutdown complete")
	return nil
}

// Run serves until ctx is cancelled or the process is interrupted
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	return a.Stop(context.Background())
}
