package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/infrastructure/auth"
	middleware "jan-server/services/conversation-api/internal/interfaces/httpserver/middlewares"
	v1 "jan-server/services/conversation-api/internal/interfaces/httpserver/routes/v1"
)

const (
	shutdownTimeout  = 10 * time.Second
	readinessTimeout = 2 * time.Second
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	engine    *gin.Engine
	config    *config.Config
	log       zerolog.Logger
	validator auth.TokenValidator
	db        *gorm.DB
}

func NewHttpServer(
	v1Route *v1.V1Route,
	cfg *config.Config,
	log zerolog.Logger,
	validator auth.TokenValidator,
	db *gorm.DB,
) *HttpServer {
	if !config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &HttpServer{
		engine:    gin.New(),
		config:    cfg,
		log:       log,
		validator: validator,
		db:        db,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.LoggingMiddleware(log))
	server.engine.Use(middleware.CORSMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", server.readyz)
	server.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no auth required)
	v1Route.RegisterPublicRouter(server.engine)

	// Protected routes
	protected := server.engine.Group("/")
	protected.Use(middleware.AuthMiddleware(validator, log, cfg.AuthTrustHeaders))
	v1Route.RegisterRouter(protected)

	return server
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (s *HttpServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *HttpServer) readyz(c *gin.Context) {
	if s.validator != nil && !s.validator.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "initializing", "component": "auth"})
		return
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "database"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
