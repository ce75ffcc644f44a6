// Package web serves the board's JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/auth"
	"github.com/Sergeybob123/callboard/internal/core"
)

// Pinger reports whether storage is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds what the server needs
type Deps struct {
	Board    *core.Board
	Accounts *core.Accounts
	Tokens   *auth.Issuer
	Health   Pinger
	Logger   *zap.Logger
	// Registry receives HTTP metrics and backs /metrics. A fresh one is
	// created when nil.
	Registry *prometheus.Registry
}

// Server is the Callboard HTTP server
type Server struct {
	board    *core.Board
	accounts *core.Accounts
	tokens   *auth.Issuer
	health   Pinger
	logger   *zap.Logger
	router   *gin.Engine
}

// NewServer creates the router and registers every route
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := NewMetrics(registry)

	router := gin.New()
	router.HandleMethodNotAllowed = true

	s := &Server{
		board:    deps.Board,
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		health:   deps.Health,
		logger:   logger,
		router:   router,
	}

	router.Use(
		requestID(),
		accessLog(logger),
		gin.CustomRecovery(s.recover),
		metrics.middleware(),
		limitBody(maxBodySize),
		s.authenticate(),
	)
	router.NoRoute(func(c *gin.Context) { s.fail(c, core.ErrNotFound) })
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "method not allowed"})
	})

	router.GET("/", s.handleHome)
	router.GET("/categories", s.handleCategories)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
	}

	router.GET("/me", s.handleMe)
	router.GET("/me/responses/received", s.handleReceivedResponses)
	router.GET("/me/responses/submitted", s.handleSubmittedResponses)
	router.GET("/accounts/:id", s.handleAccount)

	posts := router.Group("/posts")
	{
		posts.GET("", s.handleListPosts)
		posts.POST("", s.handleCreatePost)
		posts.GET("/:id", s.handleGetPost)
		posts.PUT("/:id", s.handleUpdatePost)
		posts.DELETE("/:id", s.handleDeletePost)
		posts.POST("/:id/responses", s.handleCreateResponse)
	}

	responses := router.Group("/responses")
	{
		responses.GET("/:id", s.handleGetResponse)
		responses.PUT("/:id", s.handleUpdateResponse)
		responses.DELETE("/:id", s.handleDeleteResponse)
		responses.POST("/:id/accept", s.handleAcceptResponse)
	}

	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.Error("panic in handler", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
}
