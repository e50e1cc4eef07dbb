package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

const screenerCSV = `Symbol,Description,Industry,Price,Perf 1W,Perf 1M,Perf 3M,Perf 6M,Relative Volume,Relative Volume 1W,Relative Volume 1M,EMA(50),EMA(200),Beta 1Y,ATR(14D),52W High,52W Low,Market Capitalization,Indexes
AAPL,Apple Inc.,Consumer Electronics,110,2.5%,8.3%,15.2%,25%,1.2,1.1,0.9,100,90,1.1,3%,120,70,250B,S&P 500
MSFT,Microsoft,Software,400,-1,2,5,10,0.8,0.9,1.0,410,380,0.9,2%,450,300,3T,"S&P 500, NASDAQ 100"
ORCL,Oracle,Software,150,1,3,6,9,1.1,1.0,1.0,140,120,1.0,2.5%,151,90,400B,S&P 500
`

// execute runs the root command with fresh flag values
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STRATEGY_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	strategyPath, verbose = "", false
	rankJSON, rankTop, rankWorkers, rankAsOf = false, 20, 0, ""
	rankIndustry, rankSearch, rankSortBy, rankDesc = "", "", "rank", false
	marketJSON = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRankCommand_JSON(t *testing.T) {
	path := writeTemp(t, "screener.csv", screenerCSV)

	out, err := execute(t, "rank", path, "--as-of", "2025-03-03", "--json", "--workers", "4")
	require.NoError(t, err)

	var result contracts.RankedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Records, 3)
	assert.Equal(t, "AAPL", result.Records[0].Symbol)
	assert.Equal(t, "2025-03-03", result.AsOf.Format("2006-01-02"))

	hash, err := strategyconfig.Hash(strategyconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, hash, result.ConfigHash)
}

func TestRankCommand_Table(t *testing.T) {
	path := writeTemp(t, "screener.csv", screenerCSV)

	out, err := execute(t, "rank", path, "--as-of", "2025-03-03", "--top", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Momentum Ranking")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "Top Movers (1W)")
	// --top 2: 테이블 행은 2개 (무버 목록은 별도)
	rows := regexp.MustCompile(`(?m)^\d+\s+(AAPL|MSFT|ORCL)\s`).FindAllString(out, -1)
	assert.Len(t, rows, 2)
}

func TestRankCommand_Filter(t *testing.T) {
	path := writeTemp(t, "screener.csv", screenerCSV)

	out, err := execute(t, "rank", path, "--as-of", "2025-03-03", "--json", "--industry", "Software", "--sort-by", "symbol", "--desc")
	require.NoError(t, err)

	var result contracts.RankedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Records, 2)
	assert.Equal(t, "ORCL", result.Records[0].Symbol)
	assert.Equal(t, "MSFT", result.Records[1].Symbol)
}

func TestRankCommand_EmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.csv", "")

	out, err := execute(t, "rank", path, "--as-of", "2025-03-03", "--json")
	require.NoError(t, err)

	var result contracts.RankedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Records)

	out, err = execute(t, "rank", path, "--as-of", "2025-03-03")
	require.NoError(t, err)
	assert.Contains(t, out, "(no ranked records)")
}

func TestRankCommand_Errors(t *testing.T) {
	noSymbol := writeTemp(t, "bad.csv", "Name,Price\nApple,1\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"rank", filepath.Join(t.TempDir(), "nope.csv")}},
		{"no symbol column", []string{"rank", noSymbol}},
		{"bad as-of", []string{"rank", noSymbol, "--as-of", "yesterday"}},
		{"no args", []string{"rank"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestConfigHashCommand(t *testing.T) {
	out, err := execute(t, "config", "hash")
	require.NoError(t, err)

	hash, err := strategyconfig.Hash(strategyconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, hash, strings.TrimSpace(out))
}

func TestConfigValidateCommand(t *testing.T) {
	data, err := strategyconfig.ToYAML(strategyconfig.Default())
	require.NoError(t, err)
	good := writeTemp(t, "good.yaml", string(data))

	out, err := execute(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := writeTemp(t, "bad.yaml", strings.Replace(string(data), "price_momentum: 40", "price_momentum: 45", 1))
	out, err = execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "factors")

	typo := writeTemp(t, "typo.yaml", string(data)+"\nunknown_section: 1\n")
	_, err = execute(t, "config", "validate", typo)
	assert.Error(t, err)
}

func TestConfigShowCommand(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	cfg, err := strategyconfig.Parse([]byte(out))
	require.NoError(t, err)

	want, _ := strategyconfig.Hash(strategyconfig.Default())
	got, _ := strategyconfig.Hash(cfg)
	assert.Equal(t, want, got)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", formatPct(contracts.None()))
	assert.Equal(t, "+2.50%", formatPct(contracts.Some(2.5)))
	assert.Equal(t, "-1.25%", formatPct(contracts.Some(-1.25)))

	assert.Equal(t, "Software", truncate("Software", 10))
	assert.Equal(t, "Semicondu…", truncate("Semiconductors", 10))

	var buf bytes.Buffer
	PrintTableRow(&buf, []string{"1", "AAPL", ""}, []int{3, 6, 2})
	assert.Equal(t, "1    AAPL\n", buf.String())
}
