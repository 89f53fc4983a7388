// Package server assembles the gin engine and owns the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/devscout-auth/api/swagger"
	"github.com/noah-isme/devscout-auth/internal/handler"
	"github.com/noah-isme/devscout-auth/internal/middleware"
	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/service"
	"github.com/noah-isme/devscout-auth/pkg/config"
	"github.com/noah-isme/devscout-auth/pkg/logger"
	corsmiddleware "github.com/noah-isme/devscout-auth/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/devscout-auth/pkg/middleware/requestid"
)

// Handlers groups the endpoint sets mounted by NewRouter.
type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Admin   *handler.AdminHandler
	Metrics *handler.MetricsHandler
}

// NewRouter builds the engine: shared middleware, the session gate, then the
// operational and auth routes.
func NewRouter(cfg *config.Config, log *zap.Logger, metrics *service.MetricsService, gate *middleware.SessionGate, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(gate.Handler())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/login", h.Auth.Login)
		api.POST("/register", h.Auth.Register)
		api.POST("/logout", h.Auth.Logout)
		api.GET("/verify", h.Auth.Verify)
		api.POST("/forgot-password", h.Auth.ForgotPassword)
		api.POST("/reset-password", h.Auth.ResetPassword)
		api.PUT("/profile/avatar", h.Profile.UpdateAvatar)

		admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		admin.DELETE("/users/:id/sessions", h.Admin.RevokeSessions)
	}

	return r
}

// HTTPServer wraps http.Server around the engine.
type HTTPServer struct {
	server *http.Server
	log    *zap.Logger
}

// NewHTTPServer binds engine to the configured port.
func NewHTTPServer(cfg *config.Config, log *zap.Logger, engine http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// Start blocks until the listener stops.
func (s *HTTPServer) Start() error {
	s.log.Info("http server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.server.Shutdown(ctx)
}
