// Package worker provides the HTTP service and task processor for namegroup.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/thebtf/namegroup/internal/config"
	gormdb "github.com/thebtf/namegroup/internal/db/gorm"
	"github.com/thebtf/namegroup/internal/profiles"
	"github.com/thebtf/namegroup/internal/worker/sse"
)

// Service is the namegroup worker: HTTP API, SSE broadcaster and the
// background task processor.
type Service struct {
	version        string
	config         *config.Config
	store          *gormdb.Store
	taskStore      *gormdb.TaskStore
	profiles       *profiles.Registry
	processor      *Processor
	sseBroadcaster *sse.Broadcaster
	stats          *TaskStats
	router         chi.Router
	httpServer     *http.Server
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
	ready          atomic.Bool
}

// NewService creates a fully wired worker service.
func NewService(version string, cfg *config.Config, store *gormdb.Store, registry *profiles.Registry) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	taskStore := gormdb.NewTaskStore(store)
	sseBroadcaster := sse.NewBroadcaster()
	stats := NewTaskStats()

	svc := &Service{
		version:        version,
		config:         cfg,
		store:          store,
		taskStore:      taskStore,
		profiles:       registry,
		processor:      NewProcessor(taskStore, sseBroadcaster, stats, cfg.QueueSize, cfg.Workers),
		sseBroadcaster: sseBroadcaster,
		stats:          stats,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()
	return svc
}

// setupRoutes registers the HTTP routes.
func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.countRequests)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)
	s.router.Get("/api/stats", s.handleStats)
	s.router.Get("/api/profiles", s.handleListProfiles)
	s.router.Get("/api/events", s.sseBroadcaster.HandleSSE)

	s.router.Route("/api/grouping-tasks", func(r chi.Router) {
		r.Use(s.requireReady)
		r.Post("/", s.handleCreateTask)
		r.Get("/", s.handleListTasks)
		r.Get("/{publicID}", s.handleGetTask)
		r.Patch("/{publicID}/move-name", s.handleMoveName)
	})

	s.router.Mount("/swagger", httpSwagger.WrapHandler)
}

// countRequests tracks API request counts for the stats endpoint.
func (s *Service) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.stats.RecordRequest()
		next.ServeHTTP(w, r)
	})
}

// requireReady rejects requests until the service has finished starting up.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "service not ready", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the task processor and HTTP server, blocking until ctx is
// cancelled or the server fails.
func (s *Service) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.cancel()
	}()

	go func() {
		if err := s.processor.Run(s.ctx); err != nil && s.ctx.Err() == nil {
			log.Error().Err(err).Msg("Task processor stopped unexpectedly")
		}
	}()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.ready.Store(true)
	log.Info().
		Int("port", s.config.Port).
		Str("version", s.version).
		Msg("Worker service listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-s.ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Shutdown stops the HTTP server and the task processor.
func (s *Service) Shutdown() error {
	s.ready.Store(false)
	s.cancel()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	log.Info().Msg("Worker service stopped")
	return nil
}
