package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/brain"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/s0_data"
	"github.com/wonny/momentum/internal/selection"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank <file.csv>",
	Short: "CSV 파일 랭킹",
	Long: `스크리너 CSV 파일을 읽어 랭킹 결과를 출력합니다.
파일 인자로 "-" 를 주면 stdin 에서 읽습니다.

출력:
- 상위 N개 종목 테이블 (점수, 신뢰도, 서브스코어)
- 요약 통계, 급등 종목, 거래량 상위, 돌파 후보, 강세 업종

Example:
  go run ./cmd/momentum rank screener.csv
  go run ./cmd/momentum rank screener.csv --top 50 --workers 16
  go run ./cmd/momentum rank screener.csv --industry Software --sort-by confidence --desc
  go run ./cmd/momentum rank screener.csv --as-of 2025-03-03 --json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

var (
	rankJSON     bool
	rankTop      int
	rankWorkers  int
	rankAsOf     string
	rankIndustry string
	rankSearch   string
	rankSortBy   string
	rankDesc     bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	// Flags
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "전체 결과를 JSON으로 출력")
	rankCmd.Flags().IntVar(&rankTop, "top", 20, "테이블에 출력할 종목 수 (0 = 전체)")
	rankCmd.Flags().IntVar(&rankWorkers, "workers", 0, "스코어링 워커 수 (default: $SCORING_WORKERS)")
	rankCmd.Flags().StringVar(&rankAsOf, "as-of", "", "기준일 YYYY-MM-DD (default: 오늘)")
	rankCmd.Flags().StringVar(&rankIndustry, "industry", "", "업종 필터 (정확히 일치)")
	rankCmd.Flags().StringVar(&rankSearch, "search", "", "심볼/설명 검색")
	rankCmd.Flags().StringVar(&rankSortBy, "sort-by", "rank", "정렬 기준 (rank|symbol|score|confidence|price_mom|vol_mom|industry|perf_1w)")
	rankCmd.Flags().BoolVar(&rankDesc, "desc", false, "내림차순 정렬")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(true)
	if err != nil {
		return err
	}

	strategy, err := loadStrategy(cfg, log)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if rankWorkers > 0 {
		workers = rankWorkers
	}

	asOf := time.Now().UTC()
	if rankAsOf != "" {
		asOf, err = time.Parse("2006-01-02", rankAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q (expected YYYY-MM-DD)", rankAsOf)
		}
	}

	raws, err := readCSVArg(cmd, args[0])
	if err != nil {
		return err
	}

	engine, err := brain.NewEngine(strategy, brain.Options{Workers: workers, Logger: log})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	result, err := engine.RunAt(cmd.Context(), raws, asOf)
	if err != nil {
		return fmt.Errorf("rank %s: %w", args[0], err)
	}

	// API 쿼리와 같은 규칙으로 해석
	query := url.Values{}
	query.Set("industry", rankIndustry)
	query.Set("search", rankSearch)
	query.Set("sort_by", rankSortBy)
	if rankDesc {
		query.Set("sort_dir", "desc")
	}
	filter := selection.ParseFilter(query)
	if !filter.IsZero() {
		result.Records = filter.Apply(result.Records)
	}

	out := cmd.OutOrStdout()
	if rankJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printRankedResult(out, result, rankTop)
	return nil
}

func readCSVArg(cmd *cobra.Command, path string) ([]contracts.RawRecord, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	raws, err := s0_data.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raws, nil
}

// printRankedResult writes the human readable report
func printRankedResult(w io.Writer, result *contracts.RankedResult, top int) {
	summary := result.Aggregates.Summary

	PrintHeader(w, "Momentum Ranking")
	PrintKeyValue(w, "As of", result.AsOf.Format("2006-01-02"), 12)
	PrintKeyValue(w, "Config", result.ConfigHash[:12], 12)
	PrintKeyValue(w, "Ranked", fmt.Sprintf("%d (skipped %d)", summary.Total, summary.Skipped), 12)
	PrintKeyValue(w, "Avg score", fmt.Sprintf("%.1f (top %d: %.1f)", summary.AvgComposite, summary.TopCount, summary.TopAvgComposite), 12)
	PrintKeyValue(w, "Avg conf", fmt.Sprintf("%.2f", summary.AvgConfidence), 12)
	PrintKeyValue(w, "Input cov", fmt.Sprintf("%.1f%%", result.Quality.QualityScore*100), 12)
	PrintSeparator(w)

	if q := result.Quality; q.TotalRecords > 0 && !q.IsValid() {
		PrintWarning(w, "입력 데이터 커버리지가 기준 미달입니다 (신뢰도 참고)")
		if len(q.WorstFields) > 0 {
			PrintKeyValue(w, "Worst", joinFields(q.WorstFields), 12)
		}
	}

	if len(result.Records) == 0 {
		fmt.Fprintln(w, "\n(no ranked records)")
		return
	}

	fmt.Fprintln(w)
	columns := []string{"#", "Symbol", "Industry", "Score", "Conf", "Price", "Vol", "Tech", "Brk", "Stab", "1W", ""}
	widths := []int{4, 8, 22, 6, 5, 5, 5, 4, 4, 4, 8, 3}
	PrintTableHeader(w, columns, widths)

	records := result.Records
	if top > 0 && top < len(records) {
		records = records[:top]
	}
	for _, r := range records {
		flag := ""
		if r.IsTop {
			flag = "★"
		}
		if !r.EarningsSafe {
			flag += "E"
		}
		PrintTableRow(w, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Symbol,
			truncate(r.Industry, 22),
			fmt.Sprintf("%.1f", r.Composite),
			fmt.Sprintf("%.2f", r.Confidence),
			fmt.Sprintf("%.1f", r.Scores.PriceMomentum),
			fmt.Sprintf("%.1f", r.Scores.VolumeMomentum),
			fmt.Sprintf("%.0f", r.Scores.Technical),
			fmt.Sprintf("%.1f", r.Scores.Breakout),
			fmt.Sprintf("%.1f", r.Scores.Stability),
			formatPct(r.Perf1W),
			flag,
		}, widths)
	}
	fmt.Fprintln(w, "\n★ top ranked   E earnings within horizon")

	agg := result.Aggregates
	printMovers(w, "Top Movers (1W)", agg.TopMovers, "%+.2f%%")
	printMovers(w, "Volume Leaders", agg.VolumeLeaders, "%.2fx")

	if len(agg.BreakoutCandidates) > 0 {
		PrintHeader(w, "Breakout Candidates")
		for _, b := range agg.BreakoutCandidates {
			note := ""
			if b.NewHigh {
				note = " (new high)"
			}
			fmt.Fprintf(w, "   #%-4d %-8s position %.2f%s\n", b.Rank, b.Symbol, b.Position, note)
		}
	}

	if len(agg.TrendingIndustries) > 0 {
		PrintHeader(w, "Trending Industries")
		for _, ind := range agg.TrendingIndustries {
			fmt.Fprintf(w, "   %-28s %3d  avg %.1f  top %s\n", truncate(ind.Name, 28), ind.Count, ind.AvgComposite, ind.TopSymbol)
		}
	}
}

func joinFields(fields []contracts.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func printMovers(w io.Writer, title string, movers []contracts.Mover, format string) {
	if len(movers) == 0 {
		return
	}
	PrintHeader(w, title)
	for _, m := range movers {
		fmt.Fprintf(w, "   #%-4d %-8s "+format+"\n", m.Rank, m.Symbol, m.Value)
	}
}
