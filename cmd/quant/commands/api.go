package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/api"
	"github.com/wonny/aegis-value/internal/api/handlers"
	"github.com/wonny/aegis-value/internal/scheduler"
	"github.com/wonny/aegis-value/internal/scheduler/jobs"
	"github.com/wonny/aegis-value/pkg/config"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 전략 상태/마지막 실행 조회
- 수동 틱 트리거 (--with-scheduler 시 월간 스케줄도 함께 실행)

Endpoints:
  GET  /health                   - Health check
  GET  /metrics                  - Prometheus metrics
  GET  /api/strategy/state       - 전략 상태
  GET  /api/strategy/runs/last   - 마지막 실행 결과
  POST /api/strategy/tick?at=    - 수동 틱

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "리밸런싱 스케줄러 동시 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Value API Server ===")

	a, err := newApp(appOptions{overrides: globalOverrides(config.WithPort(apiPort))})
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = a.start(startCtx, time.Now(), true)
	cancel()
	if err != nil {
		return fmt.Errorf("start strategy: %w", err)
	}

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewRebalanceJob(a.strategy, a.cfg.Strategy.Schedule, log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	var metricsHandler http.Handler
	if a.cfg.MetricsEnabled {
		metricsHandler = a.metrics.Handler()
	}

	strategyHandler := handlers.NewStrategyHandler(a.strategy, log)
	router := api.NewRouter(strategyHandler, metricsHandler, log)
	server := api.New(a.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if metricsHandler != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  GET  /api/strategy/state")
	fmt.Println("  GET  /api/strategy/runs/last")
	fmt.Println("  POST /api/strategy/tick")
	if sched != nil {
		printJobs(sched)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 진행 중인 틱이 끝날 때까지 대기
	ctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
