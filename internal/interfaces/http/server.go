// Package http provides the HTTP adapter for the application layer. It
// translates requests into service calls and never holds workflow logic.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AdminAPIKey  string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the server exposes
type Services struct {
	Session         service.SessionService
	Troubleshooting service.TroubleshootingService
	Evidence        service.EvidenceService
	Terms           service.TermsService
	Authorization   service.AuthorizationService
	Shipping        service.ShippingService
	Close           service.CloseService
	Documents       service.DocumentService
	Admin           service.AdminService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	tokens     TokenVerifier
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, tokens TokenVerifier, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		tokens:   tokens,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// corsMiddleware adds CORS headers for the browser portal
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)
	admin := NewAdminHandlers(s.services.Admin, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// Entry point, no session yet
	s.router.POST("/api/rma", handlers.StartRma)

	// Customer session routes. The token scopes every call to one RMA.
	session := s.router.Group("/api/rma", sessionMiddleware(s.tokens))
	{
		session.GET("/session", handlers.GetSession)

		session.GET("/troubleshooting", handlers.TroubleshootingSnapshot)
		session.POST("/troubleshooting/symptoms", handlers.SaveSymptoms)
		session.POST("/troubleshooting/steps/:stepId", handlers.CompleteStep)
		session.POST("/troubleshooting/opt-out", handlers.OptOut)
		session.POST("/troubleshooting/assist", handlers.Assist)

		session.POST("/evidence", handlers.UploadEvidence)
		session.GET("/evidence", handlers.ListEvidence)

		session.GET("/terms", handlers.GetTerms)
		session.POST("/terms/accept", handlers.AcceptTerms)

		session.POST("/authorize", handlers.Authorize)

		session.GET("/shipping/options", handlers.ShippingOptions)
		session.POST("/shipping/label", handlers.PurchaseLabel)
		session.POST("/shipping/self-ship", handlers.RecordSelfShip)

		session.POST("/close", handlers.CloseFixed)
		session.GET("/instructions", handlers.ReturnInstructions)
	}

	// Agent console routes behind the shared key
	adminGroup := s.router.Group("/api/admin", adminMiddleware(s.config.AdminAPIKey))
	{
		adminGroup.GET("/rmas", admin.Queue)
		adminGroup.GET("/rmas/export", admin.ExportQueue)
		adminGroup.GET("/rmas/:rmaId", admin.Detail)
		adminGroup.POST("/rmas/:rmaId/override", admin.Override)
		adminGroup.POST("/rmas/:rmaId/feedback", admin.Feedback)
		adminGroup.PUT("/playbooks/:skuGroup", admin.UpsertPlaybook)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
