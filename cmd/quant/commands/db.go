package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/s0_data"
	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/database"
	"github.com/wonny/aegis-value/pkg/logger"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "데이터베이스 관리",
	Long: `PostgreSQL 연결 확인, 스키마 생성, fixture 적재를 수행합니다.

Example:
  go run ./cmd/quant db check
  go run ./cmd/quant db migrate
  go run ./cmd/quant db import --fixture config/fixtures/sample.yaml`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "연결 및 풀 상태 확인",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "스키마 생성 (data, strategy)",
		RunE:  runDBMigrate,
	}

	dbImportCmd = &cobra.Command{
		Use:   "import",
		Short: "fixture 데이터를 data 스키마에 적재",
		Long: `--fixture YAML의 거래일, 지수 구성종목, 재무, 종가, 배당을
data 스키마에 upsert 합니다. 스키마가 없으면 먼저 생성합니다.`,
		RunE: runDBImport,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbImportCmd)
}

// openDB loads config and connects (DATABASE_URL 필수)
func openDB() (*database.DB, *config.Config, *logger.Logger, error) {
	cfg, err := config.Load(globalOverrides()...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasDatabase() {
		return nil, nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, cfg, log, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Database Connection Test ===")

	db, _, _, err := openDB()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Health check failed: %v", err))
		return err
	}

	PrintSuccess("Database connected")
	PrintKeyValue("Response", health.ResponseTime.String(), 12)
	PrintKeyValue("Total conns", fmt.Sprintf("%d", health.Stats.TotalConns), 12)
	PrintKeyValue("Idle conns", fmt.Sprintf("%d", health.Stats.IdleConns), 12)
	PrintKeyValue("Max conns", fmt.Sprintf("%d", health.Stats.MaxConns), 12)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	db, _, log, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("Schema migrated")
	PrintSuccess("Schema ready")
	return nil
}

func runDBImport(cmd *cobra.Command, args []string) error {
	if fixturePath == "" {
		return fmt.Errorf("--fixture is required")
	}

	db, _, log, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := s0_data.LoadFixture(fixturePath)
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	start := time.Now()
	if err := s0_data.NewRepository(db.Pool).Import(ctx, m); err != nil {
		return fmt.Errorf("import fixture: %w", err)
	}

	dump := m.Dump()
	log.WithFields(map[string]interface{}{
		"fixture":      fixturePath,
		"trading_days": len(dump.TradingDays),
		"indexes":      len(dump.IndexMembers),
		"duration":     time.Since(start),
	}).Info("Fixture imported")

	PrintSuccess(fmt.Sprintf("Imported %s (%d trading days) in %.2fs",
		fixturePath, len(dump.TradingDays), time.Since(start).Seconds()))
	return nil
}
