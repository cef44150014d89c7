package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tobilg/widget-studio/internal/config"
	"github.com/tobilg/widget-studio/internal/configcache"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/grid"
	"github.com/tobilg/widget-studio/internal/handlers"
	"github.com/tobilg/widget-studio/internal/logger"
	appMiddleware "github.com/tobilg/widget-studio/internal/middleware"
	"github.com/tobilg/widget-studio/internal/publish"
	"github.com/tobilg/widget-studio/internal/registry"
	"github.com/tobilg/widget-studio/internal/render"
	"github.com/tobilg/widget-studio/internal/scheduler"
	"github.com/tobilg/widget-studio/internal/storage"
	"github.com/tobilg/widget-studio/internal/tracking"
	"github.com/tobilg/widget-studio/internal/websocket"
	"github.com/tobilg/widget-studio/pkg/compression"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// maxRequestBytes bounds editor payloads; placement sets and configuration
// documents are small.
const maxRequestBytes int64 = 1 << 20

type Server struct {
	apiRouter chi.Router
	storage   *storage.Store
	wsHub     *websocket.Hub
	bus       events.Bus
	tracker   *tracking.Tracker
	scheduler *scheduler.Scheduler
	config    *config.Config

	// background work (hub, bus listeners) stops when cancel is called
	cancel context.CancelFunc

	// HTTP server for graceful shutdown
	apiServer *http.Server
	mu        sync.Mutex
}

func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus, err := newBus(ctx, cfg)
	if err != nil {
		cancel()
		store.Close()
		return nil, err
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Configure WebSocket allowed origins
	websocket.SetAllowedOrigins(allowedOrigins(cfg))

	reg := registry.New()
	reg.Initialize(registry.RegisterBuiltins)

	cache := configcache.New(store, configcache.WithTTL(cfg.ConfigCacheTTL))
	if err := cache.Listen(ctx, bus); err != nil {
		cancel()
		bus.Close()
		store.Close()
		return nil, fmt.Errorf("subscribing cache to events: %w", err)
	}

	breakpoints, _ := grid.BreakpointSetByName(cfg.BreakpointSet)
	tracker := tracking.New(store, cfg.TrackingBuffer)
	sessions := render.NewSessions(cfg.SessionTTL)
	pipeline := render.NewPipeline(reg, cache, store,
		render.WithTracker(tracker),
		render.WithLoadTimeout(cfg.RenderLoadTimeout),
		render.WithBreakpoints(breakpoints),
	)

	publisher := publish.NewService(store, publish.WithBroadcaster(hub), publish.WithBus(bus))
	if err := publisher.Forward(ctx); err != nil {
		cancel()
		tracker.Close(context.Background())
		bus.Close()
		store.Close()
		return nil, fmt.Errorf("subscribing publisher to events: %w", err)
	}

	sched := scheduler.New()
	if err := sched.AddRepair(cfg.RepairSchedule, publisher); err != nil {
		cancel()
		tracker.Close(context.Background())
		bus.Close()
		store.Close()
		return nil, err
	}
	// Sweep schedules are fixed and always parse.
	_ = sched.AddSweep("sessions", scheduler.DefaultSweepSchedule, sessions)
	_ = sched.AddSweep("config-cache", scheduler.DefaultSweepSchedule, cache)

	s := &Server{
		apiRouter: chi.NewRouter(),
		storage:   store,
		wsHub:     hub,
		bus:       bus,
		tracker:   tracker,
		scheduler: sched,
		config:    cfg,
		cancel:    cancel,
	}

	s.setupMiddleware()

	h := handlers.New(handlers.Deps{
		Store:       store,
		Publisher:   publisher,
		Cache:       cache,
		Registry:    reg,
		Pipeline:    pipeline,
		Sessions:    sessions,
		Hub:         hub,
		Bus:         bus,
		Breakpoints: breakpoints,
	})
	s.setupRoutes(h)

	return s, nil
}

// newBus connects to Redis when an address is configured and falls back to
// an in-process bus otherwise.
func newBus(ctx context.Context, cfg *config.Config) (events.Bus, error) {
	if !cfg.RedisEnabled() {
		return events.NewMemoryBus(), nil
	}
	bus, err := events.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel)
	if err != nil {
		return nil, fmt.Errorf("connecting event bus: %w", err)
	}
	logger.Info("Cross-instance events enabled", "redis_addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	return bus, nil
}

func allowedOrigins(cfg *config.Config) []string {
	return []string{cfg.FrontendURL, "http://localhost:5173", "http://localhost:8080"}
}

// Handler returns the API router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.apiRouter
}

func (s *Server) setupMiddleware() {
	s.apiRouter.Use(middleware.RequestID)
	s.apiRouter.Use(middleware.RealIP)
	s.apiRouter.Use(RequestLogger)
	s.apiRouter.Use(middleware.Recoverer)

	// Editors behind proxies may gzip large placement sets
	s.apiRouter.Use(compression.GzipDecompressMiddleware)
	s.apiRouter.Use(appMiddleware.PayloadLimitMiddleware(maxRequestBytes))

	// CORS for the editor and viewer frontends
	s.apiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(s.config),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding", "X-Requested-With", "X-Session-ID", "X-User-ID"},
		ExposedHeaders:   []string{"Link", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Add context timeout for API requests (skips WebSocket upgrade requests)
	// Handlers should check context.Done() to respect timeout
	s.apiRouter.Use(appMiddleware.DefaultContextTimeoutMiddleware)
}

func (s *Server) ListenAndServe() error {
	log := logger.Logger()

	s.scheduler.Start()

	apiAddr := fmt.Sprintf(":%d", s.config.APIPort)
	h2s := &http2.Server{}
	handler := h2c.NewHandler(s.apiRouter, h2s)

	s.mu.Lock()
	// Note: WriteTimeout is disabled so WebSocket connections stay open
	s.apiServer = &http.Server{
		Addr:         apiAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	server := s.apiServer
	s.mu.Unlock()

	log.Info("API server starting",
		"addr", apiAddr,
		"protocol", "HTTP/1.1 + h2c",
		"database", s.config.DatabaseDriver,
		"endpoints", "/api/*, /ws, /health",
	)

	return server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down server")

	var errs []error

	s.mu.Lock()
	apiServer := s.apiServer
	s.mu.Unlock()

	if apiServer != nil {
		logger.Info("Shutting down API server")
		if err := apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down API server: %w", err))
		}
	}

	select {
	case <-s.scheduler.Stop().Done():
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for scheduled jobs: %w", ctx.Err()))
	}

	// Drain queued interactions before the store goes away
	if err := s.tracker.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("draining interaction tracker: %w", err))
	}

	s.cancel()
	if err := s.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing event bus: %w", err))
	}

	// Close storage
	if err := s.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
