package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/external/yahoo"
	"github.com/wonny/momentum/pkg/httputil"
)

// marketCmd represents the market command
var marketCmd = &cobra.Command{
	Use:   "market [symbols...]",
	Short: "시장 개요 조회",
	Long: `Yahoo Finance 일봉으로 시장 ETF 기간별 수익률을 조회합니다.
심볼을 생략하면 $MARKET_SYMBOLS (기본 SPY QQQ IWM) 를 사용합니다.

Example:
  go run ./cmd/momentum market
  go run ./cmd/momentum market SPY DIA --json`,
	RunE: runMarket,
}

var (
	marketJSON bool
)

func init() {
	rootCmd.AddCommand(marketCmd)

	// Flags
	marketCmd.Flags().BoolVar(&marketJSON, "json", false, "JSON으로 출력")
}

func runMarket(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(true)
	if err != nil {
		return err
	}

	symbols := cfg.Market.Symbols
	if len(args) > 0 {
		symbols = args
	}

	httpClient := httputil.New(log).WithRateLimit(cfg.Market.RequestsPerSec, 1)
	client := yahoo.NewClient(httpClient, log, cfg.Market.BaseURL)

	overview := client.Overview(cmd.Context(), symbols, time.Now())
	if len(overview.Items) == 0 {
		return fmt.Errorf("market overview: %w", yahoo.ErrNoData)
	}

	out := cmd.OutOrStdout()
	if marketJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(overview)
	}

	printOverview(out, overview)
	return nil
}

func printOverview(w io.Writer, overview *yahoo.Overview) {
	PrintHeader(w, fmt.Sprintf("Market Overview  (%s)", overview.UpdatedAt.Format("2006-01-02 15:04 MST")))

	columns := []string{"Symbol", "Index", "Price", "1D", "1W", "1M", "3M", "6M", "YTD", "1Y"}
	widths := []int{6, 20, 9, 8, 8, 8, 8, 8, 8, 8}
	PrintTableHeader(w, columns, widths)

	for _, etf := range overview.Items {
		PrintTableRow(w, []string{
			etf.Symbol,
			truncate(etf.Name, 20),
			fmt.Sprintf("%.2f", etf.Price),
			formatPct(etf.Change1D),
			formatPct(etf.Change1W),
			formatPct(etf.Change1M),
			formatPct(etf.Change3M),
			formatPct(etf.Change6M),
			formatPct(etf.ChangeYTD),
			formatPct(etf.Change1Y),
		}, widths)
	}
}
