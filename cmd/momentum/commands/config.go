package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "스코어링 설정 관리",
	Long: `스코어링 설정 YAML을 검증하거나 출력합니다.

Subcommands:
  validate [path]  - 설정 검증 (오류/경고 출력)
  show             - 적용될 설정을 YAML로 출력
  hash             - 설정 해시 (결과 캐시 키/재현성 확인용)

Example:
  go run ./cmd/momentum config validate config/strategy/momentum_v1.yaml
  go run ./cmd/momentum config show --strategy my.yaml
  go run ./cmd/momentum config hash`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "설정 검증",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "설정 출력 (YAML)",
		RunE:  runConfigShow,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "설정 해시 출력",
		RunE:  runConfigHash,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configHashCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var (
		cfg  *strategyconfig.Config
		path string
		err  error
	)
	if len(args) == 1 {
		path = args[0]
		cfg, _, err = strategyconfig.Load(path)
	} else {
		cfg, err = resolveStrategy()
		path = "(active)"
	}

	if err != nil {
		var verr strategyconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(out, fmt.Sprintf("%s: invalid %s", path, verr.Error()))
		} else {
			PrintError(out, fmt.Sprintf("%s: %v", path, err))
		}
		return err
	}

	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("%s: %s v%s is valid (hash %s)", path, cfg.Meta.StrategyID, cfg.Meta.Version, hash[:12]))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := resolveStrategy()
	if err != nil {
		return err
	}

	data, err := strategyconfig.ToYAML(cfg)
	if err != nil {
		return fmt.Errorf("render strategy config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	cfg, err := resolveStrategy()
	if err != nil {
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// resolveStrategy loads the config that serve/rank would use
func resolveStrategy() (*strategyconfig.Config, error) {
	cfg, log, err := loadRuntime(true)
	if err != nil {
		return nil, err
	}
	return loadStrategy(cfg, log)
}
