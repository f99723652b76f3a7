package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/internal/strategyconfig"
	"github.com/wonny/aegis-value/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 관리",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "전략 YAML 검증",
	Long: `전략 YAML을 파싱하고 필수 제약과 권장 사항을 검사합니다.

path 생략 시 --strategy 또는 STRATEGY_CONFIG 경로를 사용합니다.

Example:
  go run ./cmd/quant config validate
  go run ./cmd/quant config validate config/strategy/value_investment.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := strategyPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = config.StrategyConfigPath()
	}

	fmt.Printf("=== Strategy Config: %s ===\n\n", path)

	cfg, raw, err := strategyconfig.Load(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if err := strategyconfig.Validate(cfg); err != nil {
		PrintError(err.Error())
		return err
	}

	snap, err := strategyconfig.NewDecisionSnapshot(cfg, raw, "", "")
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	PrintKeyValue("Strategy", fmt.Sprintf("%s v%s", cfg.Meta.StrategyID, cfg.Meta.Version), 9)
	PrintKeyValue("Hash", snap.ConfigHash, 9)
	PrintKeyValue("Period", fmt.Sprintf("%d months", cfg.Period), 9)
	PrintKeyValue("Index", cfg.Universe.IndexID, 9)
	PrintKeyValue("Screens", fmt.Sprintf("%v (%s)", cfg.Screening.Active, cfg.Screening.Combine), 9)
	PrintKeyValue("Sort by", string(cfg.Selection.SortBy), 9)

	series, err := cfg.BondYieldSeries()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	source := "built-in"
	if len(cfg.BondYield) > 0 {
		source = "config"
	}
	PrintKeyValue("Yield", fmt.Sprintf("%s table from %s", source, contracts.DateString(series.First())), 9)

	warnings := strategyconfig.Warn(cfg)
	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	PrintSuccess(fmt.Sprintf("Config valid (%d warnings)", len(warnings)))
	return nil
}
