// Package api exposes chat-log uploads and analyses over HTTP using gin.
// Every route under /api/v1 requires a caller identity supplied by a
// trusted proxy header.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/logger"
	"github.com/edgard/chatscope/internal/services"
)

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	cfg      *config.HTTPConfig
	logs     *services.ChatLogService
	analyses *services.AnalysisService
	db       Pinger
	logger   *slog.Logger

	engine *gin.Engine
	http   *http.Server
}

// NewServer creates a new API server with all routes registered.
func NewServer(
	cfg *config.HTTPConfig,
	logs *services.ChatLogService,
	analyses *services.AnalysisService,
	db Pinger,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logs:     logs,
		analyses: analyses,
		db:       db,
		logger:   log.With("component", "http_server"),
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), logger.Middleware(s.logger))
	s.registerRoutes()

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.healthHandler)

	v1 := s.engine.Group("/api/v1", requireUser())

	v1.POST("/logs", s.uploadLogHandler)
	v1.GET("/logs", s.listLogsHandler)
	v1.GET("/logs/:id", s.getLogHandler)
	v1.DELETE("/logs/:id", s.deleteLogHandler)
	v1.POST("/logs/:id/analyses", s.analyzeHandler)

	v1.GET("/flavors", s.listFlavorsHandler)

	v1.GET("/analyses", s.listAnalysesHandler)
	v1.GET("/analyses/:id", s.getAnalysisHandler)
	v1.DELETE("/analyses/:id", s.deleteAnalysisHandler)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
