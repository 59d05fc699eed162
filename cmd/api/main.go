package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"monitoring-portal/internal/config"
	"monitoring-portal/internal/database"
	"monitoring-portal/internal/handlers"
	"monitoring-portal/internal/ratelimit"
	"monitoring-portal/internal/resultframework"
	"monitoring-portal/internal/scheduler"
	"monitoring-portal/internal/search"
)

var (
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	appConfig    *config.Config
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
	framework    *resultframework.Service
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/portal_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "postgres" {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		gormDB, err = database.NewPostgresDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "portal_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "portal_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "portal_db"),
			getEnvOrConfig(pgCfg.SSLMode, "DB_SSLMODE", "disable"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
	} else {
		log.Println("Using MySQL")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "portal_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "portal_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "portal_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize Meilisearch using config (optional, the API degrades to
	// SQL filtering when it is down)
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "")
	}
	if meilisearchHost != "" {
		meilisearchKey := appConfig.Search.Meilisearch.APIKey
		if meilisearchKey == "" {
			meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
		}
		searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	} else {
		log.Println("Search: Meilisearch not configured, using database filtering")
	}

	// Initialize rate limiter for snapshot builds
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d builds/min, %d builds/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Initialize results framework service
	framework = resultframework.NewService(gormDB.DB())
	framework.SetBuildTimeout(appConfig.Snapshot.BuildTimeout())
	log.Println("Results framework service initialized")

	// Initialize and start the snapshot scheduler
	appScheduler = scheduler.NewScheduler(gormDB.DB(), framework, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	frameworkHandler := handlers.NewFrameworkHandler(gormDB.DB(), framework, searchClient)
	snapshotHandler := handlers.NewSnapshotHandler(framework, rateLimiter, appConfig.Reports.OutputDir)
	activityHandler := handlers.NewActivityHandler(gormDB.DB())

	// Routes
	r.GET("/health", healthCheck)

	// Results framework
	r.GET("/api/sections", frameworkHandler.ListSections)
	r.POST("/api/sections", frameworkHandler.CreateSection)
	r.GET("/api/indicators", frameworkHandler.ListIndicators)
	r.POST("/api/indicators", frameworkHandler.CreateIndicator)
	r.GET("/api/indicators/:id", frameworkHandler.GetIndicator)
	r.PUT("/api/indicators/:id", frameworkHandler.UpdateIndicator)
	r.DELETE("/api/indicators/:id", frameworkHandler.DeleteIndicator)
	r.GET("/api/indicators/:id/achievements", frameworkHandler.ListAchievements)
	r.POST("/api/indicators/:id/achievements", frameworkHandler.CreateAchievement)
	r.PUT("/api/indicators/:id/rule", frameworkHandler.SetCalculationRule)
	r.POST("/api/indicators/:id/calculate", frameworkHandler.CalculateIndicator)
	r.GET("/api/search", frameworkHandler.SearchIndicators)

	// Rate limiter stats endpoint
	r.GET("/api/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, rateLimiter.GetStats())
	})

	// Snapshots
	r.GET("/api/snapshots", snapshotHandler.ListSnapshots)
	r.POST("/api/snapshots", snapshotHandler.CreateSnapshot)
	r.GET("/api/snapshots/:id", snapshotHandler.GetSnapshot)
	r.POST("/api/snapshots/:id/finalize", snapshotHandler.FinalizeSnapshot)
	r.GET("/api/snapshots/:id/document", snapshotHandler.DownloadDocument)

	// Field data
	r.GET("/api/trainings", activityHandler.ListTrainings)
	r.POST("/api/trainings", activityHandler.CreateTraining)
	r.POST("/api/behavior-change-sessions", activityHandler.CreateBehaviorChangeSession)
	r.POST("/api/micro-projects", activityHandler.CreateMicroProject)
	r.PUT("/api/activities/:kind/:id/review", activityHandler.ReviewActivity)
	r.GET("/api/transfers", activityHandler.ListTransfers)
	r.POST("/api/transfers", activityHandler.CreateTransfer)

	// Admin API routes (requires authentication in production)
	adminHandler := handlers.NewAdminHandler(gormDB.DB(), appScheduler, searchClient, rateLimiter, appConfig.Reports.OutputDir)
	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.POST("/snapshots/trigger", adminHandler.TriggerSnapshot)
		admin.POST("/cleanup/run", adminHandler.RunCleanup)
		admin.GET("/cleanup/logs", adminHandler.GetCleanupLogs)
		admin.POST("/search/reindex", adminHandler.ReindexSearch)
		admin.POST("/ratelimit/reset", adminHandler.ResetRateLimit)
	}
	log.Println("Admin API routes registered at /api/admin/*")

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// getEnv returns environment variable or default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig prefers the config value, then env, then the default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
