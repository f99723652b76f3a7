package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/scheduler"
	"github.com/wonny/aegis-value/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작 (월 1회 리밸런싱 틱)
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run strategy_rebalance`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `전략을 초기화하고 마지막 실행 기록에서 카운터를 이어받은 뒤
스케줄러를 시작합니다.

등록되는 작업:
- strategy_rebalance: REBALANCE_SCHEDULE (기본 매월 1일 09:00)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Value Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// 다음 실행 시각은 cron 시작 후에만 계산됨
	sched.Start()
	defer sched.Stop()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if last := a.strategy.LastRun(); last != nil {
		PrintRunResult(last)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, result.Duration))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, err := sched.NextRun(jobName)
		if err != nil || next.IsZero() {
			fmt.Printf("  - %s\n", jobName)
			continue
		}
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
}

// initScheduler wires the app and registers the rebalance job
func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp(appOptions{overrides: globalOverrides()})
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.start(ctx, time.Now(), true); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("start strategy: %w", err)
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewRebalanceJob(a.strategy, a.cfg.Strategy.Schedule, a.log)); err != nil {
		a.Close()
		return nil, nil, err
	}

	return a, sched, nil
}
