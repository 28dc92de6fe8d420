// Package server assembles the application: configuration, logging,
// metrics, the virtual filesystem engine with its write-through disk
// store, the snapshot manager, optional replication, the service
// providers, and the gin router that serves them.
package server

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/api/http"
	"github.com/virtuoslabs/virtuos/backend/internal/api/middleware"
	"github.com/virtuoslabs/virtuos/backend/internal/api/ws"
	"github.com/virtuoslabs/virtuos/backend/internal/domain/seed"
	"github.com/virtuoslabs/virtuos/backend/internal/domain/snapshot"
	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/config"
	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/logging"
	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/monitoring"
	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/tracing"
	"github.com/virtuoslabs/virtuos/backend/internal/providers/filesystem"
	procProvider "github.com/virtuoslabs/virtuos/backend/internal/providers/proc"
	shellProvider "github.com/virtuoslabs/virtuos/backend/internal/providers/shell"
	"github.com/virtuoslabs/virtuos/backend/internal/providers/storage"
	systemProvider "github.com/virtuoslabs/virtuos/backend/internal/providers/system"
	"github.com/virtuoslabs/virtuos/backend/internal/service"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router    *gin.Engine
	engine    *vfs.Filesystem
	registry  *service.Registry
	snapshots *snapshot.Manager
	shell     *shellProvider.Manager
	store     vfs.Persister
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// meteredStore decorates a snapshot store with flush metrics and
// engine gauges. Gauges are computed from the state being flushed so
// no engine lock is taken on the persistence path.
type meteredStore struct {
	store   snapshot.Store
	metrics *monitoring.Metrics
}

func (s *meteredStore) Persist(state *vfs.State) error {
	if err := s.store.Persist(state); err != nil {
		s.metrics.IncFlushFailures()
		return err
	}
	s.metrics.IncFlushes()
	files, dirs, bytes := measureState(state.Root)
	if dirs > 0 {
		dirs--
	}
	s.metrics.SetEngineStats(files, dirs, bytes, int64(state.Counters.TotalOperations))
	return nil
}

func measureState(n *vfs.NodeState) (files, dirs int, bytes int64) {
	if n == nil {
		return 0, 0, 0
	}
	if n.Kind == vfs.KindFile {
		return 1, 0, n.Size
	}
	dirs = 1
	for _, c := range n.Children {
		f, d, b := measureState(c)
		files += f
		dirs += d
		bytes += b
	}
	return files, dirs, bytes
}

// NewServer creates a fully wired server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing VirtuOS backend",
		zap.String("port", cfg.Server.Port),
		zap.String("disk", cfg.Disk.Path),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("backend", logger.Logger)

	engine, store, fresh, err := bootEngine(cfg, metrics, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to boot engine: %w", err)
	}

	if fresh && cfg.Seed.Dir != "" {
		seeder := seed.NewSeeder(engine, logger.Logger)
		summary, err := seeder.SeedDirectory(cfg.Seed.Dir)
		if err != nil {
			logger.Warn("Seeding skipped", zap.Error(err))
		} else {
			logger.Info("Tree seeded",
				zap.Int("directories", summary.Directories),
				zap.Int("files", summary.Files),
			)
		}
	}

	snapshots := snapshot.NewManager(engine, cfg.Snapshots.Dir, logger.Logger)

	var replicator *snapshot.Replicator
	if cfg.Replication.PeerURL != "" {
		replicator = snapshot.NewReplicator(cfg.Replication.PeerURL, logger.Logger)
		logger.Info("Replication peer configured", zap.String("peer", cfg.Replication.PeerURL))
	}

	serviceRegistry := service.NewRegistry()
	shellManager := registerProviders(serviceRegistry, engine, cfg, logger.Logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.NewCORSConfig(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := http.NewHandlers(engine, serviceRegistry, snapshots, replicator, shellManager, metrics, logger.Logger)
	wsHandler := ws.NewHandler(shellManager, metrics, logger.Logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/discover", handlers.DiscoverServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Snapshot management and replication
	router.POST("/snapshots/save", handlers.SaveSnapshot)
	router.GET("/snapshots", handlers.ListSnapshots)
	router.GET("/snapshots/:id", handlers.GetSnapshot)
	router.POST("/snapshots/:id/restore", handlers.RestoreSnapshot)
	router.DELETE("/snapshots/:id", handlers.DeleteSnapshot)
	// Peers push here; the path matches what the replicator targets.
	router.POST("/snapshots", handlers.ReceiveSnapshot)
	router.POST("/snapshots/push", handlers.PushSnapshot)
	router.POST("/snapshots/pull", handlers.PullSnapshot)

	// Shell sessions
	router.POST("/shell/sessions", handlers.CreateShellSession)
	router.GET("/shell/sessions", handlers.ListShellSessions)
	router.DELETE("/shell/sessions/:id", handlers.CloseShellSession)
	router.POST("/shell/sessions/:id/exec", handlers.ExecShellCommand)

	// Client log ingestion
	router.POST("/logs/stream", handlers.StreamLogs)

	// Interactive shell over WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	metricsAggregator := http.NewMetricsAggregator(metrics, engine, cfg.Replication.PeerURL)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", metricsAggregator.GetAggregatedMetrics)
	router.GET("/metrics/dashboard", metricsAggregator.GetMetricsDashboard)
	router.GET("/metrics/peer", metricsAggregator.ProxyPeerMetrics)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		engine:    engine,
		registry:  serviceRegistry,
		snapshots: snapshots,
		shell:     shellManager,
		store:     store,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// bootEngine constructs the engine from the disk snapshot when one
// exists. A missing, unreadable, or corrupt snapshot degrades to a
// fresh root-only tree; only that fresh start is eligible for seeding.
func bootEngine(cfg *config.Config, metrics *monitoring.Metrics, log *zap.Logger) (*vfs.Filesystem, vfs.Persister, bool, error) {
	if !cfg.Disk.Enabled {
		log.Info("Disk persistence disabled, running in-memory")
		store := &meteredStore{store: snapshot.NewMemStore(), metrics: metrics}
		return vfs.New(vfs.WithPersister(store), vfs.WithLogger(log)), store, true, nil
	}

	disk := snapshot.NewDiskStore(cfg.Disk.Path, cfg.Disk.Compress, log)
	store := &meteredStore{store: disk, metrics: metrics}

	state, err := disk.Load()
	switch {
	case err == nil:
		log.Info("Snapshot loaded", zap.String("path", cfg.Disk.Path))
		return vfs.NewFromState(state, vfs.WithPersister(store), vfs.WithLogger(log)), store, false, nil
	case errors.Is(err, snapshot.ErrNoSnapshot):
		log.Info("No prior snapshot, starting fresh", zap.String("path", cfg.Disk.Path))
	default:
		log.Warn("Snapshot unreadable, starting fresh", zap.Error(err))
	}
	return vfs.New(vfs.WithPersister(store), vfs.WithLogger(log)), store, true, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the assembled handler chain for integration tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close gracefully shuts down the server: a final snapshot flush so
// the artifact reflects the last in-memory state, then log sync.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if err := s.store.Persist(s.engine.Export()); err != nil {
		s.logger.Warn("Final snapshot flush failed", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}

// registerProviders wires every provider into the registry and returns
// the shell manager shared with the HTTP and WebSocket layers.
func registerProviders(registry *service.Registry, engine *vfs.Filesystem, cfg *config.Config, log *zap.Logger) *shellProvider.Manager {
	fsProvider := filesystem.NewProvider(engine, cfg.Host.Root)
	if err := registry.Register(fsProvider); err != nil {
		log.Warn("Failed to register filesystem provider", zap.Error(err))
	}

	stProvider := storage.NewProvider(engine, storage.DefaultBase)
	if err := registry.Register(stProvider); err != nil {
		log.Warn("Failed to register storage provider", zap.Error(err))
	}

	shProvider := shellProvider.NewProvider(engine, shellProvider.Options{
		MaxSessions:   cfg.Shell.MaxSessions,
		ScriptTimeout: cfg.Shell.ScriptTimeout,
	})
	if err := registry.Register(shProvider); err != nil {
		log.Warn("Failed to register shell provider", zap.Error(err))
	}

	if cfg.Proc.Enabled {
		prProvider := procProvider.NewProvider(procProvider.Options{MaxProcesses: cfg.Proc.MaxProcesses})
		if err := registry.Register(prProvider); err != nil {
			log.Warn("Failed to register proc provider", zap.Error(err))
		}
	}

	sysProvider := systemProvider.NewProvider()
	if err := registry.Register(sysProvider); err != nil {
		log.Warn("Failed to register system provider", zap.Error(err))
	}

	return shProvider.Manager()
}
