package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pixeljam/devwatch/internal/api/middleware"
	"github.com/pixeljam/devwatch/internal/host"
	"github.com/pixeljam/devwatch/internal/infrastructure/config"
	"github.com/pixeljam/devwatch/internal/infrastructure/logging"
	"github.com/pixeljam/devwatch/internal/infrastructure/monitoring"
	"github.com/pixeljam/devwatch/internal/ws"
)

// Server wraps the HTTP server and the host-side protocol components.
type Server struct {
	router    *gin.Engine
	registry  *host.Registry
	auth      *host.AuthService
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
	stopHeart context.CancelFunc
}

// NewServer creates a dashboard host. The container is the UI collaborator
// providing frame scaffolds; pass nil to run headless (every frame creation
// will then fail into diagnostics, which is what headless smoke tests want).
func NewServer(cfg *config.Config, container host.Container) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing devwatch host",
		zap.String("port", cfg.Server.Port),
		zap.Strings("allowed_domains", cfg.Security.AllowedDomains),
	)

	metrics := monitoring.NewMetrics()
	auth := host.NewAuthService(logger.Logger)
	diags := host.NewDiagnostics()
	registry := host.NewRegistry(container, auth, diags, metrics, logger.Logger)

	// Bootstrap batch: one failing frame must not stop the rest.
	frames, err := config.LoadFrames(cfg.Frames.Manifest)
	if err != nil {
		logger.Warn("frames manifest not loaded", zap.Error(err))
	}
	if len(frames) > 0 {
		created := registry.CreateAll(frames)
		logger.Info("frame bootstrap finished",
			zap.Int("requested", len(frames)),
			zap.Int("created", len(created)),
			zap.Int("diagnostics", diags.Len()),
		)
	}

	heartCtx, stopHeart := context.WithCancel(context.Background())
	if cfg.Heartbeat.Enabled {
		registry.StartHeartbeat(heartCtx, cfg.Heartbeat.Interval)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := NewHandlers(registry, auth, diags, cfg.Security.AllowedDomains)
	wsHandler := ws.NewHandler(registry, metrics, logger.Logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Frame management
	router.GET("/frames", handlers.ListFrames)
	router.POST("/frames", handlers.CreateFrame)
	router.GET("/frames/:id", handlers.GetFrame)
	router.DELETE("/frames/:id", handlers.RemoveFrame)
	router.POST("/frames/:id/theme", handlers.SetFrameTheme)
	router.POST("/frames/:id/infopanel", handlers.SetFrameInfoPanel)
	router.POST("/frames/:id/message", handlers.SendFrameMessage)

	// Embedder policy
	router.GET("/security/domains", handlers.AllowedDomains)

	// Dashboard auth
	router.POST("/auth/login", handlers.Login)
	router.POST("/auth/logout", handlers.Logout)
	router.POST("/auth/verify", handlers.VerifyToken)

	// Observability
	router.GET("/diagnostics", handlers.ListDiagnostics)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	// Guest websocket
	router.GET("/ws/guests/:id", wsHandler.HandleGuest)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		registry:  registry,
		auth:      auth,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
		stopHeart: stopHeart,
	}, nil
}

// Registry exposes the frame registry to embedding code.
func (s *Server) Registry() *host.Registry {
	return s.registry
}

// Auth exposes the dashboard auth service.
func (s *Server) Auth() *host.AuthService {
	return s.auth
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts the host down: heartbeat stopped, every frame's
// transport unbound and scaffold released.
func (s *Server) Close() error {
	s.logger.Info("Shutting down host...")
	s.stopHeart()
	for _, frame := range s.registry.List() {
		s.registry.Remove(frame.ID)
	}
	s.logger.Sync()
	return nil
}
