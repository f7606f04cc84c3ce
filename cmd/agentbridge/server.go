package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentbridge/api/handlers"
	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/discovery"
	"github.com/BaSui01/agentbridge/gateway"
	"github.com/BaSui01/agentbridge/internal/cache"
	"github.com/BaSui01/agentbridge/internal/metrics"
	"github.com/BaSui01/agentbridge/internal/server"
	"github.com/BaSui01/agentbridge/internal/telemetry"
	"github.com/BaSui01/agentbridge/internal/tlsutil"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/routing"
)

// Server assembles the bridge: registry, discovery refresher, routing
// engine, execution gateway, and the HTTP/metrics listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	collector *metrics.Collector
	telemetry *telemetry.Providers

	registry   *registry.Registry
	source     *discovery.StaticSource
	refresher  *discovery.Refresher
	watcher    *config.Watcher
	engine     *routing.Engine
	gateway    *gateway.Gateway
	cacheStore cache.Store

	routeHandler   *handlers.RouteHandler
	agentsHandler  *handlers.AgentsHandler
	refreshHandler *handlers.RefreshHandler
	healthHandler  *handlers.HealthHandler

	refresherCancel   context.CancelFunc
	rateLimiterCancel context.CancelFunc
}

// NewServer creates an unstarted server from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: providers,
	}
}

// Start wires all components and brings up discovery, the API listener, and
// the metrics listener.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector(s.logger)

	if err := s.initComponents(); err != nil {
		return fmt.Errorf("init components: %w", err)
	}
	if err := s.startRefresher(); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("seeds", len(s.cfg.Discovery.Seeds)),
		zap.String("reasoner", s.cfg.Routing.Reasoner.Provider),
	)
	return nil
}

// initComponents builds the component graph bottom-up: registry, discovery,
// cache, reasoner, engine, gateway, handlers.
func (s *Server) initComponents() error {
	s.registry = registry.New(&registry.Config{
		EvictAfter: s.cfg.Discovery.EvictAfter,
	}, s.logger)

	// Outbound calls to agents go through the hardened TLS client.
	probeClient := tlsutil.SecureHTTPClient(s.cfg.Discovery.ProbeTimeout)
	adapters := discovery.NewAdapterSet(probeClient, s.logger)

	source, err := discovery.SourceFromConfig(s.cfg.Discovery)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}
	s.source = source
	s.refresher = discovery.NewRefresher(source, adapters, s.registry, s.cfg.Discovery, s.collector, s.logger)

	store, err := cache.FromConfig(s.cfg.Routing.Cache, s.cfg.Redis, s.logger)
	if err != nil {
		return fmt.Errorf("decision cache: %w", err)
	}
	s.cacheStore = store

	reasonerClient := tlsutil.SecureHTTPClient(s.cfg.Routing.Reasoner.Timeout)
	reasoner, err := routing.NewReasonerFromConfig(s.cfg.Routing.Reasoner, reasonerClient, s.logger)
	if err != nil {
		return fmt.Errorf("reasoner: %w", err)
	}
	if reasoner == nil {
		s.logger.Info("no reasoner configured, routing by keyword fallback only")
	}

	s.engine = routing.NewEngine(s.registry, reasoner, store, s.collector, s.cfg.Routing, s.logger)

	executeClient := tlsutil.SecureHTTPClient(0) // per-call deadline comes from the gateway
	s.gateway = gateway.New(executeClient, s.collector, s.cfg.Execution, s.logger)

	s.routeHandler = handlers.NewRouteHandler(s.engine, s.gateway, s.logger)
	s.agentsHandler = handlers.NewAgentsHandler(s.registry, s.logger)
	s.refreshHandler = handlers.NewRefreshHandler(s.refresher, s.registry, s.logger)
	s.healthHandler = handlers.NewHealthHandler(s.registry, s.logger)
	// Readiness gates on discovery: with seeds configured, at least one
	// agent must have landed in the registry before traffic arrives.
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("discovery", func(ctx context.Context) error {
		seeds, err := s.source.Seeds(ctx)
		if err != nil {
			return err
		}
		if len(seeds) > 0 && s.registry.Len() == 0 {
			return errors.New("no agents discovered yet")
		}
		return nil
	}))
	if store != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("decision_cache", store.Ping))
	}

	return nil
}

// startRefresher runs the discovery loop in the background.
func (s *Server) startRefresher() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.refresherCancel = cancel
	return s.refresher.Start(ctx)
}

// WatchConfig swaps the seed list whenever the config file changes. The next
// refresh cycle picks the new list up; every other setting needs a restart.
func (s *Server) WatchConfig(path string) error {
	watcher, err := config.NewWatcher(path, config.WithWatcherLogger(s.logger))
	if err != nil {
		return err
	}
	watcher.OnReload(func(cfg *config.Config) {
		seeds, err := discovery.SeedsFromConfig(cfg.Discovery)
		if err != nil {
			s.logger.Warn("reloaded seed list invalid, keeping previous seeds", zap.Error(err))
			return
		}
		s.source.Replace(seeds)
		s.logger.Info("seed list replaced from config", zap.Int("seeds", len(seeds)))
	})
	watcher.Start(context.Background())
	s.watcher = watcher
	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/v1/route", s.routeHandler.HandleRoute)
	mux.HandleFunc("/v1/process", s.routeHandler.HandleProcess)
	mux.HandleFunc("/v1/agents", s.agentsHandler.HandleList)
	mux.HandleFunc("/v1/agents/", s.agentsHandler.HandleGet)
	mux.HandleFunc("/v1/capabilities", s.agentsHandler.HandleCapabilities)
	mux.HandleFunc("/v1/refresh", s.refreshHandler.HandleRefresh)

	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a signal or server error, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops discovery, drains both listeners concurrently, and flushes
// telemetry.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.refresherCancel != nil {
		s.refresherCancel()
	}
	if s.refresher != nil {
		s.refresher.Close()
	}

	var g errgroup.Group
	if s.httpManager != nil {
		g.Go(func() error { return s.httpManager.Shutdown(ctx) })
	}
	if s.metricsManager != nil {
		g.Go(func() error { return s.metricsManager.Shutdown(ctx) })
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("server shutdown error", zap.Error(err))
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.Close(); err != nil {
			s.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("graceful shutdown completed")
}
