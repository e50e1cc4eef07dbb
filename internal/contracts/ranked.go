package contracts

import "time"

// RankedResult is the final output of one scoring invocation
// ⭐ SSOT: S4 → 호출자 (API/CLI) 랭킹 결과 전달
type RankedResult struct {
	Records        []ScoredRecord  `json:"records"` // rank 오름차순
	Skipped        int             `json:"skipped"`
	SkippedRecords []SkippedRecord `json:"skipped_records"`
	ConfigHash     string          `json:"config_hash"`
	AsOf           time.Time       `json:"as_of"`
	Aggregates     Aggregates      `json:"aggregates"`

	Quality DataQualitySnapshot `json:"quality"`
	Stages  []PipelineResult    `json:"stages"`
}

// Count returns the number of ranked records
func (r *RankedResult) Count() int {
	return len(r.Records)
}

// Top returns the first n records (or all when fewer)
func (r *RankedResult) Top(n int) []ScoredRecord {
	if n < 0 || n > len(r.Records) {
		n = len(r.Records)
	}
	return r.Records[:n]
}

// Aggregates are derived views over the ranked records
type Aggregates struct {
	Summary            Summary             `json:"summary"`
	Industries         []IndustryStats     `json:"industries"`
	TrendingIndustries []IndustryStats     `json:"trending_industries"`
	TopMovers          []Mover             `json:"top_movers"`
	VolumeLeaders      []Mover             `json:"volume_leaders"`
	BreakoutCandidates []BreakoutCandidate `json:"breakout_candidates"`
}

// EmptyAggregates returns aggregates with non-nil empty lists
func EmptyAggregates() Aggregates {
	return Aggregates{
		Industries:         []IndustryStats{},
		TrendingIndustries: []IndustryStats{},
		TopMovers:          []Mover{},
		VolumeLeaders:      []Mover{},
		BreakoutCandidates: []BreakoutCandidate{},
	}
}

// Summary holds batch level statistics
type Summary struct {
	Total             int     `json:"total"`
	Skipped           int     `json:"skipped"`
	AvgComposite      float64 `json:"avg_composite"`
	AvgConfidence     float64 `json:"avg_confidence"`
	TopCount          int     `json:"top_count"`
	TopAvgComposite   float64 `json:"top_avg_composite"`
	EarningsSafeCount int     `json:"earnings_safe_count"`
}

// IndustryStats is one row of the industry breakdown
type IndustryStats struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgComposite  float64 `json:"avg_composite"`
	AvgConfidence float64 `json:"avg_confidence"`
	TopSymbol     string  `json:"top_symbol"`
}

// Mover is a record selected by a single metric
type Mover struct {
	Symbol string  `json:"symbol"`
	Rank   int     `json:"rank"`
	Value  float64 `json:"value"`
}

// BreakoutCandidate is a record near or above its 52-week high
type BreakoutCandidate struct {
	Symbol   string  `json:"symbol"`
	Rank     int     `json:"rank"`
	Position float64 `json:"position"`
	NewHigh  bool    `json:"new_high"`
	Score    float64 `json:"score"`
}
