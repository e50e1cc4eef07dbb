package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Momentum ranker - 모멘텀 종목 랭킹 엔진",
	Long: `Momentum Ranker CLI

스크리너 CSV를 받아 5-팩터 모멘텀 점수와 데이터 신뢰도로 종목을 랭킹합니다.
S0 (정규화/품질) → S2 (시그널) → S4 (랭킹/집계)

Usage:
  go run ./cmd/momentum [command]

Examples:
  go run ./cmd/momentum serve
  go run ./cmd/momentum rank screener.csv --top 20
  go run ./cmd/momentum config validate config/strategy/momentum_v1.yaml
  go run ./cmd/momentum market`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "scoring config YAML (default: $STRATEGY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadRuntime reads env config and builds the logger.
// quiet: 결과 출력 커맨드는 verbose가 아니면 warn 이상만 기록
func loadRuntime(quiet bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "warn"
	}
	return cfg, logger.New(cfg), nil
}

// loadStrategy resolves the scoring config: --strategy, then $STRATEGY_PATH.
// A missing default file falls back to the built-in defaults.
func loadStrategy(cfg *config.Config, log *logger.Logger) (*strategyconfig.Config, error) {
	path := strategyPath
	explicit := path != ""
	if !explicit {
		path = cfg.StrategyPath
	}

	if _, err := os.Stat(path); err != nil && !explicit {
		log.WithField("path", path).Warn("Strategy config not found, using built-in defaults")
		return strategyconfig.Default(), nil
	}

	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", path, err)
	}
	return strategy, nil
}
