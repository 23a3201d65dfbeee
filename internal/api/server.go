package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"granito/internal/api/handlers"
	"granito/internal/api/middleware"
	"granito/internal/auth"
	"granito/internal/config"
	connector "granito/internal/connectors/shopify"
	"granito/internal/database"
	"granito/internal/events"
	"granito/internal/logger"
	"granito/internal/repositories"
	"granito/internal/services/shopify"
	"granito/internal/services/syncer"
	"granito/internal/worker/processors"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config    *config.Config
	logger    *logger.Logger
	db        *database.Database
	router    *gin.Engine
	server    *http.Server
	publisher events.Publisher
}

// New builds the server with a Shopify client from cfg. The API still starts
// without Shopify credentials; remote routes then answer 500.
func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Server {
	client, err := shopify.NewClientFromConfig(cfg, logger)
	if err != nil {
		logger.Warn("Shopify client disabled: %v", err)
	}
	return NewWithClient(cfg, logger, db, client)
}

// NewWithClient is New with an explicit Shopify client, which may be nil.
func NewWithClient(cfg *config.Config, logger *logger.Logger, db *database.Database, client *shopify.Client) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Composite Shopify ids arrive URL-escaped in path segments.
	router.UseRawPath = true

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	var remote syncer.RemoteSource
	var shopInfo handlers.ShopInfoSource
	if client != nil {
		remote = client
		shopInfo = client
	}

	entityRepo := repositories.NewEntityRepository(db.DB)
	auditRepo := repositories.NewAuditRepository(db.DB)
	syncService := syncer.NewService(remote, entityRepo, syncer.NewAuditLogger(auditRepo, logger), logger)

	var publisher events.Publisher
	if cfg.KafkaEnabled() {
		publisher = events.NewKafkaPublisher(cfg)
	}
	webhooks := connector.New(cfg, logger, publisher, processors.NewEventProcessor(syncService, logger))
	sessions := auth.NewSessionManager(cfg)

	// Initialize handlers
	systemHandler := handlers.NewSystemHandler(cfg, db, shopInfo)
	authHandler := handlers.NewAuthHandler(sessions, logger, cfg)
	syncHandler := handlers.NewSyncHandler(syncService, logger, cfg)
	entityHandler := handlers.NewEntityHandler(entityRepo, logger)
	auditHandler := handlers.NewAuditHandler(auditRepo)
	webhookHandler := handlers.NewWebhookHandler(webhooks, logger)

	requestTimeout := middleware.Timeout(cfg.RequestTimeout)

	router.GET("/", systemHandler.Health)

	// Routes
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/system/check", requestTimeout, systemHandler.Check)

		authGroup := apiGroup.Group("/auth", requestTimeout)
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/session", sessions.Required(), authHandler.Session)
		}

		apiGroup.POST("/webhooks/shopify", middleware.Timeout(cfg.SyncTimeout), webhookHandler.Shopify)

		// Sync routes get their own, longer deadline.
		syncGroup := apiGroup.Group("/sync", middleware.Timeout(cfg.SyncTimeout), sessions.Required())
		{
			syncGroup.POST("", syncHandler.SyncPayload)
			syncGroup.POST("/:kind", syncHandler.SyncPayload)
			syncGroup.GET("/:kind", syncHandler.SyncRemote)
			syncGroup.GET("/:kind/:id", syncHandler.SyncOne)
			syncGroup.DELETE("/:kind/:id", syncHandler.Delete)
		}

		protected := apiGroup.Group("", requestTimeout, sessions.Required())
		{
			protected.GET("/audit", auditHandler.List)
			protected.GET("/local/:collection", entityHandler.List)
			protected.GET("/local/:collection/:id", entityHandler.Get)
		}
	}

	return &Server{
		config:    cfg,
		logger:    logger,
		db:        db,
		router:    router,
		publisher: publisher,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	writeTimeout := s.config.SyncTimeout + 5*time.Second
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("Failed to close event publisher: %v", err)
		}
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the gin engine, e.g. for the serverless entry point.
func (s *Server) Router() *gin.Engine {
	return s.router
}
