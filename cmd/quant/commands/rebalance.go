package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/s0_data/quality"
	"github.com/wonny/aegis-value/internal/screening"
	"github.com/wonny/aegis-value/internal/strategyconfig"
	"github.com/wonny/aegis-value/pkg/config"
)

// rebalanceCmd represents the rebalance command
var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "리밸런싱 사이클 실행",
	Long: `가치투자 리밸런싱 사이클을 실행하거나 구성 요소를 조회합니다.

Subcommands:
  run      - 한 번의 틱 실행 (리밸런싱 월이면 사이클 수행)
  plan     - 주문 없이 리밸런싱 계획만 산출
  screens  - 등록된 스크린 목록
  check    - 사이클 전 데이터 커버리지 점검

Example:
  go run ./cmd/quant rebalance run --fixture config/fixtures/sample.yaml --at 2015-01-05
  go run ./cmd/quant rebalance plan --at 2015-01-05
  go run ./cmd/quant rebalance screens
  go run ./cmd/quant rebalance check --at 2015-04-01`,
}

var (
	rebalanceRunCmd = &cobra.Command{
		Use:   "run",
		Short: "틱 1회 실행",
		Long: `전략을 --at 시점으로 초기화하고 틱을 1회 실행합니다.

--resume 지정 시 마지막 기록된 실행의 카운터를 이어받습니다.
리밸런싱 월이 아니면 건너뜁니다.`,
		RunE: runRebalance,
	}

	rebalancePlanCmd = &cobra.Command{
		Use:   "plan",
		Short: "리밸런싱 계획 산출 (드라이런)",
		RunE:  runRebalancePlan,
	}

	rebalanceCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "데이터 커버리지 점검",
		Long: `--at 틱의 AsOf 기준으로 지수 구성종목의 재무 필드와 종가 커버리지를 점검합니다.
임계값 미달 시 에러를 반환합니다.`,
		RunE: runRebalanceCheck,
	}

	rebalanceScreensCmd = &cobra.Command{
		Use:   "screens",
		Short: "등록된 스크린 목록",
		RunE:  listScreens,
	}
)

var (
	rebalanceAt     string
	rebalanceDryRun bool
	rebalanceResume bool
)

func init() {
	rootCmd.AddCommand(rebalanceCmd)
	rebalanceCmd.AddCommand(rebalanceRunCmd)
	rebalanceCmd.AddCommand(rebalancePlanCmd)
	rebalanceCmd.AddCommand(rebalanceScreensCmd)
	rebalanceCmd.AddCommand(rebalanceCheckCmd)

	rebalanceCmd.PersistentFlags().StringVar(&rebalanceAt, "at", "", "틱 시점 YYYY-MM-DD (default: 오늘)")
	rebalanceRunCmd.Flags().BoolVar(&rebalanceDryRun, "dry-run", false, "계획만 산출하고 주문 제출 생략")
	rebalanceRunCmd.Flags().BoolVar(&rebalanceResume, "resume", false, "마지막 실행 기록에서 카운터 이어받기")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	return tickOnce(cmd.Context(), rebalanceDryRun, rebalanceResume)
}

func runRebalancePlan(cmd *cobra.Command, args []string) error {
	return tickOnce(cmd.Context(), true, false)
}

func tickOnce(ctx context.Context, dryRun, resume bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Println("=== Aegis Value Rebalance ===")

	at, err := parseAt(rebalanceAt)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{overrides: globalOverrides(), dryRun: dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.start(ctx, at, resume); err != nil {
		return fmt.Errorf("start strategy: %w", err)
	}

	state := a.strategy.State()
	fmt.Printf("Strategy : %s (%s)\n", a.strategyCfg.Meta.StrategyID, a.strategy.ConfigHash()[:12])
	fmt.Printf("Universe : %d stocks\n", state.Universe.Count())
	fmt.Printf("Month    : %d (period %d)\n", state.Month, state.Period)

	res, tickErr := a.strategy.Tick(ctx, at)
	if res != nil {
		PrintRunResult(res)
	}
	if tickErr != nil {
		PrintError(tickErr.Error())
		return tickErr
	}

	PrintSuccess(fmt.Sprintf("Tick completed: %s", res.Status))
	return nil
}

func runRebalanceCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Value Data Check ===")

	at, err := parseAt(rebalanceAt)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{overrides: globalOverrides(), dryRun: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gate := quality.NewGate(a.provider, quality.DefaultConfig())
	snap, err := gate.Check(ctx, a.strategyCfg.Universe.IndexID, at, a.strategyCfg.FactorFields())
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}

	PrintKeyValue("Index", snap.IndexID, 8)
	PrintKeyValue("AsOf", snap.AsOf.Format(dateLayout), 8)
	PrintKeyValue("Stocks", fmt.Sprintf("%d (complete %d)", snap.TotalStocks, snap.ValidStocks), 8)
	PrintKeyValue("Score", fmt.Sprintf("%.4f", snap.QualityScore), 8)

	keys := make([]string, 0, len(snap.Coverage))
	for k := range snap.Coverage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	widths := []int{26, 10}
	PrintTableHeader([]string{"Field", "Coverage"}, widths)
	for _, k := range keys {
		PrintTableRow([]string{k, fmt.Sprintf("%.2f%%", snap.Coverage[k]*100)}, widths)
	}
	fmt.Println()

	if !snap.Passed {
		for _, f := range snap.Failures {
			PrintError(f)
		}
		return fmt.Errorf("data quality check failed (%d failures)", len(snap.Failures))
	}
	PrintSuccess("Data quality check passed")
	return nil
}

func listScreens(cmd *cobra.Command, args []string) error {
	path := strategyPath
	if path == "" {
		path = config.StrategyConfigPath()
	}
	cfg, _, err := strategyconfig.Load(path)
	if err != nil {
		return fmt.Errorf("load strategy config: %w", err)
	}

	active := make(map[string]bool, len(cfg.Screening.Active))
	for _, id := range cfg.Screening.Active {
		active[id] = true
	}

	registry := screening.DefaultRegistry(cfg.Screening.Params)
	ids := registry.IDs()
	sort.Strings(ids)

	fmt.Printf("Screens (%s, combine=%s):\n\n", path, cfg.Screening.Combine)
	widths := []int{3, 22, 60}
	PrintTableHeader([]string{"", "ID", "Description"}, widths)
	for _, id := range ids {
		p, _ := registry.Get(id)
		mark := ""
		if active[id] {
			mark = "*"
		}
		PrintTableRow([]string{mark, id, p.Description()}, widths)
	}

	fmt.Printf("\nActive: %s\n", strings.Join(cfg.Screening.Active, ", "))
	return nil
}
