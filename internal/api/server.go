package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/logger"
)

const (
	defaultTickTimeout = 10 * time.Minute
	// 틱 상한 이후 응답 직렬화/전송 여유
	writeGrace = 30 * time.Second
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer  *http.Server
	logger      *logger.Logger
	config      *config.Config
	tickTimeout time.Duration
}

// New creates a new API server.
// 수동 틱은 전체 사이클을 동기 실행하므로 요청 컨텍스트를 tick timeout으로 제한하고
// 쓰기 타임아웃은 그 뒤로 잡는다
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	tickTimeout := cfg.Strategy.TickTimeout
	if tickTimeout <= 0 {
		tickTimeout = defaultTickTimeout
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           http.TimeoutHandler(router, tickTimeout, `{"error":"tick timed out"}`),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      tickTimeout + writeGrace,
			IdleTimeout:       60 * time.Second,
		},
		logger:      log,
		config:      cfg,
		tickTimeout: tickTimeout,
	}
}

// ShutdownTimeout is long enough for an in-flight tick to finish
func (s *Server) ShutdownTimeout() time.Duration {
	return s.tickTimeout + writeGrace
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port":         s.config.Port,
		"env":          s.config.Env,
		"tick_timeout": s.tickTimeout.String(),
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight ticks
func (s *Server) Shutdown(ctx context.Context) error {
	fields := map[string]interface{}{}
	if deadline, ok := ctx.Deadline(); ok {
		fields["wait"] = time.Until(deadline).Round(time.Second).String()
	}
	s.logger.WithFields(fields).Info("Shutting down API server, draining in-flight ticks")

	start := time.Now()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("API server drain incomplete, a tick may have been interrupted")
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.WithField("elapsed", time.Since(start).String()).Info("API server stopped")
	return nil
}
