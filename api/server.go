package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qnetlabs/qnet-fleet/api/handlers"
	"github.com/qnetlabs/qnet-fleet/api/middleware"
	"github.com/qnetlabs/qnet-fleet/api/websocket"
	"github.com/qnetlabs/qnet-fleet/internal/auth"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.Config
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	manager     handlers.FleetManager
}

func NewServer(cfg config.Config, manager handlers.FleetManager) *Server {
	if cfg.App.Mode == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTDuration)
	wsHub := websocket.NewHub(&cfg.WebSocket)

	s := &Server{
		router:      router,
		config:      cfg,
		authService: authService,
		wsHub:       wsHub,
		manager:     manager,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	// Forward orchestrator events to WebSocket clients
	if manager != nil {
		eventsChan := manager.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(s.corsConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) corsConfig() middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cors := s.config.API.CORS
	if len(cors.AllowedOrigins) > 0 {
		cfg.AllowOrigins = cors.AllowedOrigins
	}
	if len(cors.AllowedMethods) > 0 {
		cfg.AllowMethods = cors.AllowedMethods
	}
	if len(cors.AllowedHeaders) > 0 {
		cfg.AllowHeaders = cors.AllowedHeaders
	}
	if len(cors.ExposedHeaders) > 0 {
		cfg.ExposeHeaders = cors.ExposedHeaders
	}
	cfg.AllowCredentials = cors.AllowCredentials
	return cfg
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.manager)
	authHandler := handlers.NewAuthHandler(s.config.API, s.authService)
	fleetHandler := handlers.NewFleetHandler(s.manager)
	scalingHandler := handlers.NewScalingHandler(s.manager)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	// Auth routes
	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		// Nodes
		protected.GET("/nodes", fleetHandler.ListNodes)
		protected.GET("/nodes/:id", fleetHandler.GetNode)
		protected.POST("/nodes/:id/fail", fleetHandler.FailNode)
		protected.POST("/nodes/:id/complete", fleetHandler.CompleteConnection)

		// Fleet metrics and balancer state
		protected.GET("/fleet/metrics", fleetHandler.FleetMetrics)
		protected.POST("/balancer/distribute", fleetHandler.Distribute)
		protected.GET("/balancer/distribution", fleetHandler.Distribution)
		protected.GET("/balancer/statistics", fleetHandler.Statistics)

		// Scaling
		protected.GET("/scaling/events", scalingHandler.Events)
		protected.GET("/scaling/health", scalingHandler.HealthReport)
		protected.GET("/scaling/cooldowns", scalingHandler.Cooldowns)
		protected.POST("/scaling/trigger", scalingHandler.Trigger)

		// Configuration view
		protected.GET("/config", scalingHandler.ConfigView)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
