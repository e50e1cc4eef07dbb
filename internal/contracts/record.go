package contracts

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// RawRecord is one input row keyed by column header, as produced by the
// upstream parser (CSV reader or JSON body). Values are loosely typed.
// ⭐ SSOT: 파서 → S0 입력 계약
type RawRecord map[string]any

// Field names a numeric/date input field of a record
type Field string

const (
	FieldMarketCap    Field = "market_cap"
	FieldPrice        Field = "price"
	FieldPerf1W       Field = "perf_1w"
	FieldPerf1M       Field = "perf_1m"
	FieldPerf3M       Field = "perf_3m"
	FieldPerf6M       Field = "perf_6m"
	FieldRelVolume    Field = "rel_volume"
	FieldRelVolume1W  Field = "rel_volume_1w"
	FieldRelVolume1M  Field = "rel_volume_1m"
	FieldEMA50        Field = "ema_50"
	FieldEMA200       Field = "ema_200"
	FieldBeta1Y       Field = "beta_1y"
	FieldATR14DPct    Field = "atr_14d_pct"
	FieldHigh52W      Field = "high_52w"
	FieldLow52W       Field = "low_52w"
	FieldAvgVolume30D Field = "avg_volume_30d"
	FieldEarnings     Field = "earnings"
)

// ScoringInputs lists every field consumed by the five factor scorers.
// Completeness in the confidence estimator is measured against this list.
var ScoringInputs = []Field{
	FieldPerf1W, FieldPerf1M, FieldPerf3M, FieldPerf6M,
	FieldRelVolume, FieldRelVolume1W, FieldRelVolume1M,
	FieldPrice, FieldEMA50, FieldEMA200, FieldBeta1Y,
	FieldHigh52W, FieldLow52W,
	FieldATR14DPct,
}

// OptFloat is an optional finite float64
type OptFloat struct {
	Value float64
	Valid bool
}

// Some returns a present value. NaN and ±Inf become missing.
func Some(v float64) OptFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return OptFloat{Value: v, Valid: true}
}

// None returns a missing value
func None() OptFloat {
	return OptFloat{}
}

// Or returns the value, or def when missing
func (o OptFloat) Or(def float64) float64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// MarshalJSON encodes missing values as null
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null as missing
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// FieldSet is a set of fields
type FieldSet map[Field]struct{}

// NewFieldSet creates a set containing fields
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Add inserts fields into the set
func (s FieldSet) Add(fields ...Field) {
	for _, f := range fields {
		s[f] = struct{}{}
	}
}

// Has reports whether f is in the set
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Len returns the set size
func (s FieldSet) Len() int {
	return len(s)
}

// Union returns a new set holding both sets
func (s FieldSet) Union(other FieldSet) FieldSet {
	out := make(FieldSet, len(s)+len(other))
	for f := range s {
		out[f] = struct{}{}
	}
	for f := range other {
		out[f] = struct{}{}
	}
	return out
}

// Sorted returns the fields in ascending order
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted list
func (s FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of field names (cached results)
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	set := make(FieldSet, len(fields))
	set.Add(fields...)
	*s = set
	return nil
}

// Record is a normalized input row
// ⭐ SSOT: S0 → S2 정규화된 종목 데이터
type Record struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Industry    string `json:"industry"`

	MarketCap    OptFloat `json:"market_cap"`
	Price        OptFloat `json:"price"`
	Perf1W       OptFloat `json:"perf_1w"` // 퍼센트 포인트 (2.5 = 2.5%)
	Perf1M       OptFloat `json:"perf_1m"`
	Perf3M       OptFloat `json:"perf_3m"`
	Perf6M       OptFloat `json:"perf_6m"`
	RelVolume    OptFloat `json:"rel_volume"` // 배수 (1.5 = 평균 대비 1.5배)
	RelVolume1W  OptFloat `json:"rel_volume_1w"`
	RelVolume1M  OptFloat `json:"rel_volume_1m"`
	EMA50        OptFloat `json:"ema_50"`
	EMA200       OptFloat `json:"ema_200"`
	Beta1Y       OptFloat `json:"beta_1y"`
	ATR14DPct    OptFloat `json:"atr_14d_pct"` // 퍼센트 포인트
	High52W      OptFloat `json:"high_52w"`
	Low52W       OptFloat `json:"low_52w"`
	AvgVolume30D OptFloat `json:"avg_volume_30d"`

	Indexes      []string   `json:"indexes"` // 대문자, 정렬, 중복 제거
	EarningsDate *time.Time `json:"earnings_date,omitempty"`

	// Missing holds fields that were absent or malformed in the input
	Missing FieldSet `json:"missing"`

	// InputIndex is the position in the input batch (final tie-break)
	InputIndex int `json:"-"`
}

// SkippedRecord describes an input row excluded from scoring
type SkippedRecord struct {
	InputIndex int    `json:"input_index"`
	Reason     string `json:"reason"`
}
