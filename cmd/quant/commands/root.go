package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/aegis-value/pkg/config"
)

var (
	// Global flags
	fixturePath  string
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis Value - 가치투자 리밸런싱 전략",
	Long: `Aegis Value Unified CLI

주기적 가치투자 리밸런싱 전략.
Universe → Screening → Factor 정제 → 정렬 → 동일가중 리밸런싱.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant rebalance run --fixture config/fixtures/sample.yaml --at 2015-01-05 --dry-run
  go run ./cmd/quant rebalance screens
  go run ./cmd/quant scheduler start
  go run ./cmd/quant api
  go run ./cmd/quant fetcher index --index KPI200
  go run ./cmd/quant config validate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "YAML fixture 데이터 소스 (DATA_SOURCE=fixture)")
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "전략 YAML 경로 (default: STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// globalOverrides maps global flags onto config overrides
func globalOverrides(extra ...config.Override) []config.Override {
	overrides := []config.Override{
		config.WithFixture(fixturePath),
		config.WithStrategyConfig(strategyPath),
	}
	if verbose {
		overrides = append(overrides, func(c *config.Config) {
			c.LogLevel = "debug"
		})
	}
	return append(overrides, extra...)
}
