package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/config"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/handler"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/middleware"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/service"
)

// Server is the admin HTTP API: health check, metrics and the
// JWT-protected moderation dashboard endpoints.
type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	log    *logrus.Logger
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, log *logrus.Logger, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		log:    log,
		logger: logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	apiUserRepo := repository.NewApiUserRepository(s.db, s.log)
	chatRepo := repository.NewChatRepository(s.db, s.logger)
	recordRepo := repository.NewRecordRepository(s.db, s.logger)
	memberRepo := repository.NewMemberRepository(s.db, s.logger)
	datasetRepo := repository.NewDatasetRepository(s.db, s.logger)

	authService := service.NewAuthService(apiUserRepo, s.cfg.Server.JWTSecret, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.log)
	chatsHandler := handler.NewChatHandler(chatRepo, s.logger)
	recordsHandler := handler.NewRecordsHandler(recordRepo, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(recordRepo, memberRepo, s.logger)
	datasetHandler := handler.NewDatasetHandler(datasetRepo, s.logger)
	settingsHandler := handler.NewSettingsHandler(s.cfg)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	if s.cfg.Metrics.Enabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(s.cfg.Server.JWTSecret, s.logger))
	{
		authRequired.POST("/auth/logout", authHandler.Logout)
		authRequired.GET("/chats", chatsHandler.ListChats)
		authRequired.GET("/chats/:id", chatsHandler.GetChatByID)
		authRequired.GET("/records", recordsHandler.GetRecords)
		authRequired.GET("/records/:id", recordsHandler.GetRecordByID)
		authRequired.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
		authRequired.GET("/dataset", datasetHandler.GetEntries)
		authRequired.GET("/dataset/stats", datasetHandler.GetStats)
		authRequired.GET("/dataset/export", datasetHandler.Export)
		authRequired.GET("/settings", settingsHandler.GetSettings)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
