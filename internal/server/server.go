package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/catalog"
	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/handlers"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/middleware"
	"github.com/gravadigital/movienight-api/internal/middleware/events"
	"github.com/gravadigital/movienight-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	db         *gorm.DB
	bus        bus.Bus
	posters    handlers.PosterMirror
	loc        *time.Location
}

// New creates a new server instance. posters may be nil when no object
// store is configured.
func New(cfg *config.Config, db *gorm.DB, changeBus bus.Bus, posters handlers.PosterMirror, loc *time.Location) *Server {
	return &Server{
		config:  cfg,
		db:      db,
		bus:     changeBus,
		posters: posters,
		loc:     loc,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(events.CreateEvent())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if s.config.CORS.AllowOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(s.config.CORS.AllowOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	router.Use(cors.New(corsConfig))

	cycleRepo := postgres.NewPostgresCycleRepository(s.db, s.config.Cycle.DefaultFinishTime)
	movieRepo := postgres.NewPostgresMovieRepository(s.db)
	settingsRepo := postgres.NewPostgresSettingsRepository(s.db, defaultSettings(s.config))
	presenceRepo := postgres.NewPostgresPresenceRepository(s.db)

	catalogClient := catalog.NewClient(s.config.Catalog)

	cycleHandler := handlers.NewCycleHandler(cycleRepo, movieRepo, settingsRepo, s.bus, s.config, s.loc)
	movieHandler := handlers.NewMovieHandler(movieRepo, catalogClient, s.posters, s.bus)
	adminHandler := handlers.NewAdminHandler(cycleRepo, settingsRepo, s.bus, s.loc)
	presenceHandler := handlers.NewPresenceHandler(presenceRepo)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Movie Night API is running",
			"status":  "healthy",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.setupAPIRoutes(router, cycleHandler, movieHandler, adminHandler, presenceHandler)

	return router
}

// defaultSettings maps the configured cycle defaults onto the stored
// settings document shape.
func defaultSettings(cfg *config.Config) cycle.AppSettings {
	return cycle.AppSettings{
		DefaultFinishTime:      cfg.Cycle.DefaultFinishTime,
		UnderdogBoostThreshold: cfg.Cycle.UnderdogBoostThreshold,
		BreakIntervalMinutes:   cfg.Cycle.BreakIntervalMinutes,
		BreakDurationMinutes:   cfg.Cycle.BreakDurationMinutes,
		MaxNominationsPerUser:  cfg.Cycle.MaxNominationsPerUser,
	}
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	cycleHandler *handlers.CycleHandler,
	movieHandler *handlers.MovieHandler,
	adminHandler *handlers.AdminHandler,
	presenceHandler *handlers.PresenceHandler,
) {
	api := router.Group("/api")
	api.Use(middleware.Auth(s.config.Auth.JWTSecret))
	{
		// Daily cycle routes
		cycleRoutes := api.Group("/cycle")
		{
			cycleRoutes.GET("", cycleHandler.GetCurrent)
			cycleRoutes.POST("/decision", cycleHandler.SubmitDecision)
			cycleRoutes.POST("/nominations", cycleHandler.SubmitNominations)
			cycleRoutes.POST("/vote", cycleHandler.SubmitVote)
		}

		// Shared pool routes
		movies := api.Group("/movies")
		{
			movies.GET("", movieHandler.GetPool)
			movies.POST("", movieHandler.Share)
			movies.GET("/:movie_id", movieHandler.GetMovie)
		}

		// Catalog browsing routes
		catalogRoutes := api.Group("/catalog")
		{
			catalogRoutes.GET("/trending", movieHandler.Trending)
			catalogRoutes.GET("/search", movieHandler.SearchCatalog)
			catalogRoutes.GET("/genres/:genre_id", movieHandler.CatalogByGenre)
			catalogRoutes.GET("/movies/:movie_id", movieHandler.CatalogDetails)
		}

		// Presence routes
		userRoutes := api.Group("/users")
		{
			userRoutes.POST("/heartbeat", presenceHandler.Heartbeat)
			userRoutes.GET("/active", presenceHandler.ActiveUsers)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.POST("/cycle/advance", adminHandler.ForceAdvance)
			admin.POST("/cycle/reset", adminHandler.ResetCycle)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
		}
	}
}
