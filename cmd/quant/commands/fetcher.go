package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/external/naver"
	"github.com/wonny/aegis-value/internal/s0_data"
	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/database"
	"github.com/wonny/aegis-value/pkg/httputil"
	"github.com/wonny/aegis-value/pkg/logger"
)

// fetcherCmd represents the fetcher command
var fetcherCmd = &cobra.Command{
	Use:   "fetcher",
	Short: "데이터 수집 도구",
	Long: `외부 소스(Naver Finance)에서 데이터를 수집합니다.

Example:
  go run ./cmd/quant fetcher index --index KPI200
  go run ./cmd/quant fetcher index --index KPI200 --store-as KOSPI200 --as-of 2015-01-02 --dry-run`,
}

// fetcherIndexCmd represents the index subcommand
var fetcherIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "지수 구성종목 수집",
	Long: `Naver Finance에서 지수 구성종목을 수집해 data.index_members에 저장합니다.

저장된 구성종목은 --as-of 시점부터 유효하며,
Universe 생성 시 as-of 이전의 가장 최근 스냅샷이 사용됩니다.`,
	RunE: runFetcherIndex,
}

var (
	fetcherIndex   string
	fetcherStoreAs string
	fetcherAsOf    string
	fetcherDryRun  bool
)

func init() {
	rootCmd.AddCommand(fetcherCmd)
	fetcherCmd.AddCommand(fetcherIndexCmd)

	// Flags
	fetcherIndexCmd.Flags().StringVar(&fetcherIndex, "index", "KPI200", "Naver 지수 코드")
	fetcherIndexCmd.Flags().StringVar(&fetcherStoreAs, "store-as", "", "저장할 index_id (default: --index)")
	fetcherIndexCmd.Flags().StringVar(&fetcherAsOf, "as-of", "", "유효 시작일 YYYY-MM-DD (default: 오늘)")
	fetcherIndexCmd.Flags().BoolVar(&fetcherDryRun, "dry-run", false, "저장하지 않고 출력만")
}

func runFetcherIndex(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Aegis Value Data Fetcher ===\n\n")

	asOf, err := parseAt(fetcherAsOf)
	if err != nil {
		return err
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	indexID := fetcherStoreAs
	if indexID == "" {
		indexID = fetcherIndex
	}

	cfg, err := config.Load(globalOverrides()...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	httpClient := httputil.New(log).WithRateLimit(cfg.Naver.RequestsPerSec)
	client := naver.NewClient(httpClient, cfg.Naver.BaseURL, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	PrintSeparator()
	fmt.Printf("🔍 %s 구성종목 수집 시작...\n", fetcherIndex)
	PrintSeparator()

	start := time.Now()
	codes, err := client.FetchIndexMembers(ctx, fetcherIndex)
	if err != nil {
		return fmt.Errorf("fetch index members: %w", err)
	}

	PrintKeyValue("Index", fetcherIndex, 9)
	PrintKeyValue("Store as", indexID, 9)
	PrintKeyValue("As of", asOf.Format(dateLayout), 9)
	PrintKeyValue("Members", fmt.Sprintf("%d", len(codes)), 9)

	if fetcherDryRun {
		fmt.Println()
		PrintList(codes)
		PrintWarning("dry-run: 저장 생략")
		return nil
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("DATABASE_URL is required to store index members")
	}
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := s0_data.NewRepository(db.Pool)
	if err := repo.SaveIndexMembers(ctx, indexID, asOf, codes); err != nil {
		return fmt.Errorf("save index members: %w", err)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d members saved in %.2fs", len(codes), time.Since(start).Seconds()))
	return nil
}
