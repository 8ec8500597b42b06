package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Server exposes the queue's admin API over HTTP. It is a thin layer:
// every handler decodes a request, calls one QueueService method and maps
// the outcome onto the JSON envelope.
type Server struct {
	svc      *service.QueueService
	registry *Registry
	logger   service.Logger
	validate *validator.Validate
	metrics  http.Handler
}

// NewServer wires a server around the queue service. The registry decides
// which task kinds POST /tasks accepts.
func NewServer(svc *service.QueueService, registry *Registry, logger service.Logger) *Server {
	return &Server{
		svc:      svc,
		registry: registry,
		logger:   logger,
		validate: validator.New(),
	}
}

// WithMetricsHandler mounts h at GET /metrics. Without it the route is absent.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Router assembles the routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/", s.handleList)
		r.Get("/search", s.handleSearch)
		r.Post("/cancel", s.handleCancelBatch)
		r.Get("/{id}", s.handleGetStatus)
		r.Post("/{id}/cancel", s.handleCancel)
		r.Delete("/{id}", s.handleRemove)
	})
	r.Get("/queue", s.handleQueueInfo)
	r.Post("/queue/sweep", s.handleSweep)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Start serves the API until ctx is cancelled, then drains in-flight
// requests with a graceful shutdown.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Admin API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
