package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tallyhq/tally/internal/server/api/handlers"
	"github.com/tallyhq/tally/internal/server/api/middleware"
	"github.com/tallyhq/tally/internal/server/config"
	"github.com/tallyhq/tally/internal/server/crypto"
	"github.com/tallyhq/tally/internal/server/database"
	"github.com/tallyhq/tally/internal/server/websocket"
	"github.com/tallyhq/tally/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}

	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open database
	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize JWT manager
	jwtManager, err := crypto.NewJWTManager(cfg.MasterSecret)
	if err != nil {
		logger.Errorf("Failed to create JWT manager: %v", err)
		os.Exit(1)
	}

	// Initialize Socket.IO bridge
	logger.Infof("Initializing bridge (tick interval: %s)", cfg.TickInterval)
	socketIOServer := websocket.NewSocketIOServer(db, jwtManager, cfg.TickInterval)
	defer socketIOServer.Close()

	// Create Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Logging middleware
	router.Use(middleware.LoggingMiddleware())

	// Root endpoint - returns plain text for client validation
	router.GET("/", func(c *gin.Context) {
		c.String(200, "Welcome to Tally Server!")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, jwtManager)
	counterHandler := handlers.NewCounterHandler(db, socketIOServer)

	// Legacy fetch endpoint: returns the bare counter value
	router.GET("/api/init", counterHandler.GetInit)

	// Public routes (no auth required)
	v1 := router.Group("/v1")
	{
		v1.POST("/auth", authHandler.PostAuth)
	}

	// Protected routes (auth required)
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	{
		protected.GET("/counter", counterHandler.GetCounter)
		protected.PUT("/counter", counterHandler.PutCounter)
	}

	// Mount Socket.IO endpoint at /v1/bridge (accessible without auth for handshake)
	// Auth will be checked after connection is established
	router.Any("/v1/bridge", socketIOServer.HandleSocketIO())
	router.Any("/v1/bridge/*any", socketIOServer.HandleSocketIO())

	// Start HTTP server
	logger.Infof("Tally Server starting on http://localhost%s", cfg.Addr)
	logger.Infof("Database: %s", cfg.DatabasePath)

	if err := router.Run(cfg.Addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
