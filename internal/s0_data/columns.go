package s0_data

import (
	"strings"

	"github.com/wonny/momentum/internal/contracts"
)

// Column is one entry of the input column contract
type Column struct {
	Key     string          // 정규화된 키 (Record 필드와 1:1)
	Header  string          // 표준 CSV 헤더
	Aliases []string        // TradingView export 등 대체 헤더
	Field   contracts.Field // 숫자/날짜 필드만 설정
}

const (
	keySymbol      = "symbol"
	keyDescription = "description"
	keyIndustry    = "industry"
	keyIndexes     = "indexes"
)

// Columns is the column contract in CSV order
// ⭐ SSOT: 입력 헤더 ↔ Record 필드 매핑
var Columns = []Column{
	{Key: keySymbol, Header: "Symbol", Aliases: []string{"Ticker"}},
	{Key: keyDescription, Header: "Description", Aliases: []string{"Name", "Company"}},
	{Key: keyIndustry, Header: "Industry"},
	{Key: string(contracts.FieldMarketCap), Header: "Market Capitalization", Aliases: []string{"Market Cap"}, Field: contracts.FieldMarketCap},
	{Key: string(contracts.FieldPrice), Header: "Price", Aliases: []string{"Close", "Last"}, Field: contracts.FieldPrice},
	{Key: string(contracts.FieldPerf1W), Header: "Perf 1W", Aliases: []string{"Performance % 1 week", "Perf %1W", "Perf Week"}, Field: contracts.FieldPerf1W},
	{Key: string(contracts.FieldPerf1M), Header: "Perf 1M", Aliases: []string{"Performance % 1 month", "Perf %1M", "Perf Month"}, Field: contracts.FieldPerf1M},
	{Key: string(contracts.FieldPerf3M), Header: "Perf 3M", Aliases: []string{"Performance % 3 months", "Perf %3M", "Perf Quarter"}, Field: contracts.FieldPerf3M},
	{Key: string(contracts.FieldPerf6M), Header: "Perf 6M", Aliases: []string{"Performance % 6 months", "Perf %6M", "Perf Half"}, Field: contracts.FieldPerf6M},
	{Key: string(contracts.FieldRelVolume), Header: "Relative Volume", Aliases: []string{"Relative Volume 1 day", "Rel Volume"}, Field: contracts.FieldRelVolume},
	{Key: string(contracts.FieldRelVolume1W), Header: "Relative Volume 1W", Aliases: []string{"Relative Volume 1 week"}, Field: contracts.FieldRelVolume1W},
	{Key: string(contracts.FieldRelVolume1M), Header: "Relative Volume 1M", Aliases: []string{"Relative Volume 1 month"}, Field: contracts.FieldRelVolume1M},
	{Key: string(contracts.FieldEMA50), Header: "EMA(50)", Aliases: []string{"Exponential Moving Average (50) 1 day", "EMA50", "Simple Moving Average (50) 1 day", "SMA(50)"}, Field: contracts.FieldEMA50},
	{Key: string(contracts.FieldEMA200), Header: "EMA(200)", Aliases: []string{"Exponential Moving Average (200) 1 day", "EMA200", "Simple Moving Average (200) 1 day", "SMA(200)"}, Field: contracts.FieldEMA200},
	{Key: string(contracts.FieldBeta1Y), Header: "Beta 1Y", Aliases: []string{"Beta 1 year", "Beta"}, Field: contracts.FieldBeta1Y},
	{Key: string(contracts.FieldATR14DPct), Header: "ATR(14D)", Aliases: []string{"ATR % 14 days", "Average True Range % (14) 1 day", "ATR%"}, Field: contracts.FieldATR14DPct},
	{Key: string(contracts.FieldHigh52W), Header: "52W High", Aliases: []string{"High 52 weeks", "52 Week High"}, Field: contracts.FieldHigh52W},
	{Key: string(contracts.FieldLow52W), Header: "52W Low", Aliases: []string{"Low 52 weeks", "52 Week Low"}, Field: contracts.FieldLow52W},
	{Key: string(contracts.FieldAvgVolume30D), Header: "Avg Volume 30D", Aliases: []string{"Average Volume 30 days", "Average Volume (30 day)"}, Field: contracts.FieldAvgVolume30D},
	{Key: keyIndexes, Header: "Indexes", Aliases: []string{"Index", "Index membership"}},
	{Key: string(contracts.FieldEarnings), Header: "Earnings", Aliases: []string{"Upcoming earnings date", "Earnings Date", "Next Earnings"}, Field: contracts.FieldEarnings},
}

// columnLookup maps a canonical header form to its column key
var columnLookup = buildColumnLookup()

func buildColumnLookup() map[string]string {
	m := make(map[string]string, len(Columns)*3)
	for _, c := range Columns {
		m[canonicalHeader(c.Header)] = c.Key
		m[canonicalHeader(c.Key)] = c.Key
		for _, a := range c.Aliases {
			m[canonicalHeader(a)] = c.Key
		}
	}
	return m
}

// canonicalHeader lowercases and drops whitespace and underscores
// "Perf 1W" == "perf1w" == "PERF_1W"
func canonicalHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range strings.ToLower(h) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '\uFEFF':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolveHeader returns the column key for a header, or "" if unknown
func ResolveHeader(header string) string {
	return columnLookup[canonicalHeader(header)]
}
