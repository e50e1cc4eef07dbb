package s0_data

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// ErrMissingSymbol is returned when a record has no usable symbol
var ErrMissingSymbol = errors.New("missing symbol")

// earningsLayouts are accepted earnings date formats, tried in order
var earningsLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// rangeRule restricts a numeric field to a valid domain
type rangeRule int

const (
	anyFinite rangeRule = iota
	positive
	nonNegative
)

var fieldRules = map[contracts.Field]rangeRule{
	contracts.FieldMarketCap:    positive,
	contracts.FieldPrice:        positive,
	contracts.FieldEMA50:        positive,
	contracts.FieldEMA200:       positive,
	contracts.FieldHigh52W:      positive,
	contracts.FieldLow52W:       positive,
	contracts.FieldRelVolume:    nonNegative,
	contracts.FieldRelVolume1W:  nonNegative,
	contracts.FieldRelVolume1M:  nonNegative,
	contracts.FieldATR14DPct:    nonNegative,
	contracts.FieldAvgVolume30D: nonNegative,
}

// Normalizer converts loosely typed input rows into Records
// ⭐ SSOT: S0 필드 강제 변환/누락 판정
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Normalizer{logger: log}
}

// NormalizeBatch normalizes every row. Rows without a symbol are skipped
// and reported; they never abort the batch.
func (n *Normalizer) NormalizeBatch(raws []contracts.RawRecord) ([]contracts.Record, []contracts.SkippedRecord) {
	records := make([]contracts.Record, 0, len(raws))
	skipped := make([]contracts.SkippedRecord, 0)

	for i, raw := range raws {
		rec, err := n.Normalize(raw, i)
		if err != nil {
			skipped = append(skipped, contracts.SkippedRecord{InputIndex: i, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	n.logger.WithFields(map[string]interface{}{
		"stage":      "S0",
		"input":      len(raws),
		"normalized": len(records),
		"skipped":    len(skipped),
	}).Debug("records normalized")

	return records, skipped
}

// Normalize converts one raw row. Field-level problems mark the field
// missing; only a missing symbol is an error.
func (n *Normalizer) Normalize(raw contracts.RawRecord, index int) (contracts.Record, error) {
	values := resolveColumns(raw)

	rec := contracts.Record{
		Symbol:      strings.ToUpper(stringValue(values[keySymbol])),
		Description: stringValue(values[keyDescription]),
		Industry:    stringValue(values[keyIndustry]),
		Indexes:     ParseIndexes(values[keyIndexes]),
		Missing:     contracts.NewFieldSet(),
		InputIndex:  index,
	}
	if rec.Symbol == "" {
		return contracts.Record{}, fmt.Errorf("row %d: %w", index, ErrMissingSymbol)
	}

	num := func(f contracts.Field) contracts.OptFloat {
		v, ok := ParseNumber(values[string(f)])
		if !ok || !inRange(v, fieldRules[f]) {
			rec.Missing.Add(f)
			return contracts.None()
		}
		return contracts.Some(v)
	}

	rec.MarketCap = num(contracts.FieldMarketCap)
	rec.Price = num(contracts.FieldPrice)
	rec.Perf1W = num(contracts.FieldPerf1W)
	rec.Perf1M = num(contracts.FieldPerf1M)
	rec.Perf3M = num(contracts.FieldPerf3M)
	rec.Perf6M = num(contracts.FieldPerf6M)
	rec.RelVolume = num(contracts.FieldRelVolume)
	rec.RelVolume1W = num(contracts.FieldRelVolume1W)
	rec.RelVolume1M = num(contracts.FieldRelVolume1M)
	rec.EMA50 = num(contracts.FieldEMA50)
	rec.EMA200 = num(contracts.FieldEMA200)
	rec.Beta1Y = num(contracts.FieldBeta1Y)
	rec.ATR14DPct = num(contracts.FieldATR14DPct)
	rec.High52W = num(contracts.FieldHigh52W)
	rec.Low52W = num(contracts.FieldLow52W)
	rec.AvgVolume30D = num(contracts.FieldAvgVolume30D)

	if d, ok := ParseDate(values[string(contracts.FieldEarnings)]); ok {
		rec.EarningsDate = &d
	} else {
		rec.Missing.Add(contracts.FieldEarnings)
	}

	return rec, nil
}

// resolveColumns maps raw headers onto column keys. When several headers
// resolve to the same key the first non-empty one in header order wins.
func resolveColumns(raw contracts.RawRecord) map[string]any {
	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	out := make(map[string]any, len(raw))
	for _, h := range headers {
		key := ResolveHeader(h)
		if key == "" {
			continue
		}
		if existing, ok := out[key]; ok && !isBlank(existing) {
			continue
		}
		out[key] = raw[h]
	}
	return out
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// stringValue renders scalars as trimmed strings
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int64, int32:
		return fmt.Sprint(x)
	}
	return ""
}

// ParseNumber coerces a loosely typed value to a finite float64.
// Accepts "1,234.5", "2.5%", "$10", "1.2B"; rejects blanks, "-", "N/A".
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumericString(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var magnitudeSuffix = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "--", "—", "n/a", "na", "nan", "null", "none", "inf", "+inf", "-inf", "infinity":
		return 0, false
	}

	s = strings.ReplaceAll(s, "−", "-") // U+2212
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")

	mult := 1.0
	if n := len(s); n > 1 {
		if m, ok := magnitudeSuffix[strings.ToUpper(s[n-1:])[0]]; ok {
			mult = m
			s = s[:n-1]
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f * mult, true
}

func inRange(v float64, rule rangeRule) bool {
	switch rule {
	case positive:
		return v > 0
	case nonNegative:
		return v >= 0
	}
	return true
}

// ParseIndexes splits index membership into a sorted, de-duplicated,
// upper-cased list. Accepts "A, B; C", []string or []any.
func ParseIndexes(v any) []string {
	var parts []string
	switch x := v.(type) {
	case string:
		parts = strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ';' })
	case []string:
		parts = x
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ParseDate parses an earnings date in any accepted layout
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range earningsLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
