// Package server wires the HTTP surface: router, middleware and the
// dependency graph behind the handlers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/config"
	"github.com/gravadigital/afisha-api/internal/handlers"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/middleware/requestlog"
	"github.com/gravadigital/afisha-api/internal/services"
	"github.com/gravadigital/afisha-api/internal/stats"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	store      postgres.Store
	stats      stats.Client
	diag       *postgres.Diagnostics
}

// New creates a new server instance. diag may be nil when the storage
// backend has no database to inspect.
func New(cfg *config.Config, store postgres.Store, statsClient stats.Client, diag *postgres.Diagnostics) *Server {
	return &Server{
		config: cfg,
		store:  store,
		stats:  statsClient,
		diag:   diag,
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
	gin.SetMode(s.config.Server.GinMode)

	router := gin.New()

	router.Use(requestlog.New())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(s.config.CORS.AllowOrigins, ",")
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	router.Use(cors.New(corsConfig))

	eventService := services.NewEventService(s.store, s.stats)
	requestService := services.NewRequestService(s.store)
	userService := services.NewUserService(s.store)
	categoryService := services.NewCategoryService(s.store)

	eventHandler := handlers.NewEventHandler(eventService)
	requestHandler := handlers.NewRequestHandler(requestService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Afisha API is running",
			"status":  "healthy",
		})
	})

	s.setupAPIRoutes(router, eventHandler, requestHandler, userHandler, categoryHandler)

	return router
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	eventHandler *handlers.EventHandler,
	requestHandler *handlers.RequestHandler,
	userHandler *handlers.UserHandler,
	categoryHandler *handlers.CategoryHandler,
) {
	// Public surface
	events := router.Group("/events")
	{
		events.GET("", eventHandler.FindPublic)
		events.GET("/:eventId", eventHandler.GetPublished)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", categoryHandler.GetAll)
		categories.GET("/:categoryId", categoryHandler.Get)
	}

	// Private surface, scoped to the acting user
	users := router.Group("/users/:userId")
	{
		users.POST("/events", eventHandler.Create)
		users.GET("/events", eventHandler.GetUserEvents)
		users.GET("/events/:eventId", eventHandler.GetUserEvent)
		users.PATCH("/events/:eventId", eventHandler.UpdateByInitiator)

		users.GET("/events/:eventId/requests", requestHandler.GetForEvent)
		users.PATCH("/events/:eventId/requests", requestHandler.UpdateStatuses)

		users.POST("/requests", requestHandler.Create)
		users.GET("/requests", requestHandler.GetByRequester)
		users.PATCH("/requests/:requestId/cancel", requestHandler.Cancel)
	}

	// Administrative surface
	admin := router.Group("/admin")
	{
		admin.GET("/events", eventHandler.FindAdmin)
		admin.PATCH("/events/:eventId", eventHandler.UpdateByAdmin)

		admin.POST("/users", userHandler.Create)
		admin.GET("/users", userHandler.GetAll)
		admin.DELETE("/users/:userId", userHandler.Delete)

		admin.POST("/categories", categoryHandler.Create)
		admin.PATCH("/categories/:categoryId", categoryHandler.Update)
		admin.DELETE("/categories/:categoryId", categoryHandler.Delete)

		if s.diag != nil {
			admin.GET("/diagnostics", handlers.NewDiagnosticsHandler(s.diag).Collect)
		}
	}
}
