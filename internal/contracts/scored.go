package contracts

// FactorScore is the output of one factor scorer
type FactorScore struct {
	Score   float64 `json:"score"`
	Used    []Field `json:"used"`    // 점수 계산에 실제 사용된 필드
	Missing []Field `json:"missing"` // 누락되어 건너뛴 필드
}

// SubScores holds the five bounded factor scores
type SubScores struct {
	PriceMomentum  float64 `json:"price_momentum"`  // 0 ~ 40
	VolumeMomentum float64 `json:"volume_momentum"` // 0 ~ 30
	Technical      float64 `json:"technical"`       // 0 ~ 10
	Breakout       float64 `json:"breakout"`        // 0 ~ 10
	Stability      float64 `json:"stability"`       // 0 ~ 10
}

// Sum returns the unweighted sum of all sub-scores
func (s SubScores) Sum() float64 {
	return s.PriceMomentum + s.VolumeMomentum + s.Technical + s.Breakout + s.Stability
}

// ConfidenceBreakdown keeps every confidence factor inspectable
type ConfidenceBreakdown struct {
	Completeness      float64 `json:"completeness"`
	IndexMembership   float64 `json:"index_membership"`
	MarketCapTier     float64 `json:"market_cap_tier"`
	MarketCapTierName string  `json:"market_cap_tier_name"`
	EarningsSafety    float64 `json:"earnings_safety"`
	Value             float64 `json:"value"`
}

// StockSignals is the per-record output of S2, before ranking
// ⭐ SSOT: S2 → S4 종목별 시그널 전달
type StockSignals struct {
	Record Record    `json:"record"`
	Scores SubScores `json:"scores"`

	BreakoutPosition float64 `json:"breakout_position"` // 0 ~ 1
	NewHigh          bool    `json:"new_high"`

	Confidence   ConfidenceBreakdown `json:"confidence"`
	EarningsSafe bool                `json:"earnings_safe"`

	// Missing is the union of normalizer and scorer missing masks
	Missing FieldSet `json:"missing"`
}

// ScoredRecord is a record with its scores and final rank
type ScoredRecord struct {
	Record

	Scores     SubScores           `json:"scores"`
	Composite  float64             `json:"composite"`  // 0 ~ 100
	Confidence float64             `json:"confidence"` // 0 ~ 1
	Breakdown  ConfidenceBreakdown `json:"confidence_breakdown"`

	BreakoutPosition float64 `json:"breakout_position"`
	NewHigh          bool    `json:"new_high"`

	Rank         int  `json:"rank"` // 1-based
	IsTop        bool `json:"is_top"`
	EarningsSafe bool `json:"earnings_safe"`
}

// IsTopRanked checks if the record is in top N ranks
func (r *ScoredRecord) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
