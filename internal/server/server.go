package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carshowcase/showcase/internal/handler"
	"github.com/carshowcase/showcase/internal/metrics"
	"github.com/carshowcase/showcase/internal/openapi"
	"github.com/carshowcase/showcase/internal/server/middleware"
	"github.com/carshowcase/showcase/internal/service"
	"github.com/carshowcase/showcase/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxUploadSize   int64 // bytes
	Version         string

	// TrustProxyHeaders takes the client address from X-Forwarded-For,
	// X-Real-IP or True-Client-IP. Enable only behind a proxy that sets them;
	// otherwise clients choose their own rate-limit key.
	TrustProxyHeaders bool

	RateLimitEnabled      bool
	RequestsPerMinute     int
	AuthRequestsPerMinute int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                  "0.0.0.0",
		Port:                  3001,
		ShutdownTimeout:       15 * time.Second,
		CORSOrigins:           []string{"http://localhost:3000"},
		MaxUploadSize:         20 << 20,
		Version:               "dev",
		RateLimitEnabled:      true,
		RequestsPerMinute:     300,
		AuthRequestsPerMinute: 20,
	}
}

// Deps are the services the server routes requests to.
type Deps struct {
	Store    *store.Store
	Auth     *service.AuthService
	Users    *service.UserService
	Vehicles *service.VehicleService
	Files    *service.FileService

	// Metrics receives request and auth events. Nil disables recording.
	Metrics metrics.Recorder
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
}

// Server is the top-level HTTP server. It owns the Chi router and the store,
// which it closes on shutdown.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	doc, err := openapi.Generate(APIInfo(s.cfg.Version, ""), Endpoints())
	if err != nil {
		return fmt.Errorf("generate openapi document: %w", err)
	}
	docHandler, err := handler.NewOpenAPIHandler(doc)
	if err != nil {
		return fmt.Errorf("render openapi document: %w", err)
	}

	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, s.deps.Metrics))
	r.Use(chimw.Recoverer)
	if s.cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Operational endpoints (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", docHandler.ServeSpec)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.deps.Gatherer))
	}

	handlers := s.operationHandlers()

	// --- API routes ---
	var mountErr error
	r.Route(apiPrefix, func(r chi.Router) {
		var authLimit func(http.Handler) http.Handler
		if s.cfg.RateLimitEnabled {
			r.Use(middleware.RateLimit(s.cfg.RequestsPerMinute))
			authLimit = middleware.RateLimitByEndpoint(s.cfg.AuthRequestsPerMinute)
		}

		for _, ep := range Endpoints() {
			h, ok := handlers[ep.OperationID]
			if !ok {
				mountErr = fmt.Errorf("no handler for operation %q", ep.OperationID)
				return
			}
			route := r.With(middleware.Guard(s.deps.Auth, ep.Access, s.deps.Metrics))
			if authLimit != nil && ep.Tag == "auth" && ep.Access == service.AccessPublic {
				route = route.With(authLimit)
			}
			route.Method(ep.Method, strings.TrimPrefix(ep.Path, apiPrefix), h)
		}
	})
	if mountErr != nil {
		return mountErr
	}

	s.router = r
	return nil
}

// operationHandlers maps each operation ID in the route table to its handler.
func (s *Server) operationHandlers() map[string]http.HandlerFunc {
	auth := handler.NewAuthHandler(s.deps.Auth, s.deps.Metrics)
	users := handler.NewUserHandler(s.deps.Users)
	vehicles := handler.NewVehicleHandler(s.deps.Vehicles)
	files := handler.NewFileHandler(s.deps.Files, s.cfg.MaxUploadSize)

	return map[string]http.HandlerFunc{
		"register": auth.Register,
		"login":    auth.Login,
		"logout":   auth.Logout,

		"createUser": users.Create,
		"listUsers":  users.List,
		"profile":    users.Profile,
		"getUser":    users.Get,
		"updateUser": users.Update,
		"deleteUser": users.Delete,

		"createVehicle":     vehicles.Create,
		"listVehicles":      vehicles.List,
		"vehicleStatistics": vehicles.Statistics,
		"vehicleTypes":      vehicles.Types,
		"getVehicle":        vehicles.Get,
		"updateVehicle":     vehicles.Update,
		"deleteVehicle":     vehicles.Delete,

		"uploadFiles":  files.Upload,
		"listFiles":    files.List,
		"downloadFile": files.Download,
		"deleteFile":   files.Delete,
	}
}

// handleHealthz is a liveness check. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness check. Returns 200 when the database answers a
// ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the database.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.deps.Store.Close(); err != nil {
		s.logger.Warn("closing store", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
