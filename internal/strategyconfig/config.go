package strategyconfig

// Config는 모멘텀 스코어링 전략의 전체 설정
// ⭐ SSOT: 모든 점수 상수는 이 구조체에서만 정의 (공식 내부 하드코딩 금지)
type Config struct {
	Meta           Meta           `yaml:"meta" json:"meta"`
	Factors        FactorMaxima   `yaml:"factors" json:"factors"`
	PriceMomentum  PriceMomentum  `yaml:"price_momentum" json:"price_momentum"`
	VolumeMomentum VolumeMomentum `yaml:"volume_momentum" json:"volume_momentum"`
	Technical      Technical      `yaml:"technical" json:"technical"`
	Breakout       Breakout       `yaml:"breakout" json:"breakout"`
	Stability      Stability      `yaml:"stability" json:"stability"`
	Confidence     Confidence     `yaml:"confidence" json:"confidence"`
	Ranking        Ranking        `yaml:"ranking" json:"ranking"`
	Quality        Quality        `yaml:"quality" json:"quality"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id" validate:"required"`
	Version     string `yaml:"version" json:"version" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

// FactorMaxima 서브스코어 상한 (합 = 100)
type FactorMaxima struct {
	PriceMomentum  float64 `yaml:"price_momentum" json:"price_momentum" validate:"gt=0"`
	VolumeMomentum float64 `yaml:"volume_momentum" json:"volume_momentum" validate:"gt=0"`
	Technical      float64 `yaml:"technical" json:"technical" validate:"gt=0"`
	Breakout       float64 `yaml:"breakout" json:"breakout" validate:"gt=0"`
	Stability      float64 `yaml:"stability" json:"stability" validate:"gt=0"`
}

// Sum returns total of all maxima
func (f FactorMaxima) Sum() float64 {
	return f.PriceMomentum + f.VolumeMomentum + f.Technical + f.Breakout + f.Stability
}

// PriceMomentum 가격 모멘텀 (기간별 수익률 가중합)
type PriceMomentum struct {
	Weights        TimeframeWeights `yaml:"weights" json:"weights"`
	Scale          float64          `yaml:"scale" json:"scale" validate:"gt=0"`
	AlignmentBonus float64          `yaml:"alignment_bonus" json:"alignment_bonus" validate:"gte=0"`
	// 정배열 판정: perf1M > perf3M / ShortDivisor, perf3M > perf6M / LongDivisor
	ShortDivisor float64 `yaml:"short_divisor" json:"short_divisor" validate:"gt=0"`
	LongDivisor  float64 `yaml:"long_divisor" json:"long_divisor" validate:"gt=0"`
}

// TimeframeWeights 기간별 가중치 (합 = 1.0)
type TimeframeWeights struct {
	W1W float64 `yaml:"w_1w" json:"w_1w" validate:"gte=0,lte=1"`
	W1M float64 `yaml:"w_1m" json:"w_1m" validate:"gte=0,lte=1"`
	W3M float64 `yaml:"w_3m" json:"w_3m" validate:"gte=0,lte=1"`
	W6M float64 `yaml:"w_6m" json:"w_6m" validate:"gte=0,lte=1"`
}

// Slice returns weights in 1W, 1M, 3M, 6M order
func (w TimeframeWeights) Slice() []float64 {
	return []float64{w.W1W, w.W1M, w.W3M, w.W6M}
}

// VolumeMomentum 거래량 모멘텀 (상대 거래량 배수)
type VolumeMomentum struct {
	RelVolumeMultiplier   float64 `yaml:"rel_volume_multiplier" json:"rel_volume_multiplier" validate:"gte=0"`
	RelVolume1WMultiplier float64 `yaml:"rel_volume_1w_multiplier" json:"rel_volume_1w_multiplier" validate:"gte=0"`
	RelVolume1MMultiplier float64 `yaml:"rel_volume_1m_multiplier" json:"rel_volume_1m_multiplier" validate:"gte=0"`
	AccelerationBonus     float64 `yaml:"acceleration_bonus" json:"acceleration_bonus" validate:"gte=0"`
}

// Technical 이동평균/베타 게이트
type Technical struct {
	AboveEMA50Points  float64 `yaml:"above_ema50_points" json:"above_ema50_points" validate:"gte=0"`
	AboveEMA200Points float64 `yaml:"above_ema200_points" json:"above_ema200_points" validate:"gte=0"`
	EMAAlignPoints    float64 `yaml:"ema_align_points" json:"ema_align_points" validate:"gte=0"`
	BetaPoints        float64 `yaml:"beta_points" json:"beta_points" validate:"gte=0"`
	BetaMin           float64 `yaml:"beta_min" json:"beta_min"`
	BetaMax           float64 `yaml:"beta_max" json:"beta_max"`
}

// Breakout 52주 레인지 위치
type Breakout struct {
	PositionPoints float64 `yaml:"position_points" json:"position_points" validate:"gte=0"`
	NewHighBonus   float64 `yaml:"new_high_bonus" json:"new_high_bonus" validate:"gte=0"`
}

// Stability 변동성 (ATR%)
type Stability struct {
	Base          float64 `yaml:"base" json:"base" validate:"gte=0"`
	ATRDivisor    float64 `yaml:"atr_divisor" json:"atr_divisor" validate:"gt=0"`
	OptimalMin    float64 `yaml:"optimal_min" json:"optimal_min" validate:"gte=0"`
	OptimalMax    float64 `yaml:"optimal_max" json:"optimal_max" validate:"gte=0"`
	OptimalBonus  float64 `yaml:"optimal_bonus" json:"optimal_bonus" validate:"gte=0"`
	NeutralATRPct float64 `yaml:"neutral_atr_pct" json:"neutral_atr_pct" validate:"gte=0"`
}

// Confidence 데이터 신뢰도 (composite 와 독립)
type Confidence struct {
	Weights  ConfidenceWeights `yaml:"weights" json:"weights"`
	Index    IndexMembership   `yaml:"index" json:"index"`
	Tiers    []MarketCapTier   `yaml:"market_cap_tiers" json:"market_cap_tiers" validate:"required,min=1,dive"`
	Earnings EarningsSafety    `yaml:"earnings" json:"earnings"`

	// UnclassifiedScore 시가총액 누락 시 점수
	UnclassifiedScore float64 `yaml:"unclassified_score" json:"unclassified_score" validate:"gte=0,lte=1"`
}

// ConfidenceWeights 신뢰도 팩터 가중치 (합 = 1.0)
type ConfidenceWeights struct {
	Completeness    float64 `yaml:"completeness" json:"completeness" validate:"gte=0,lte=1"`
	IndexMembership float64 `yaml:"index_membership" json:"index_membership" validate:"gte=0,lte=1"`
	MarketCapTier   float64 `yaml:"market_cap_tier" json:"market_cap_tier" validate:"gte=0,lte=1"`
	EarningsSafety  float64 `yaml:"earnings_safety" json:"earnings_safety" validate:"gte=0,lte=1"`
}

// Slice returns weights in completeness, index, tier, earnings order
func (w ConfidenceWeights) Slice() []float64 {
	return []float64{w.Completeness, w.IndexMembership, w.MarketCapTier, w.EarningsSafety}
}

// IndexMembership 지수 편입 점수
type IndexMembership struct {
	Recognized        []string `yaml:"recognized" json:"recognized" validate:"dive,required"`
	RecognizedScore   float64  `yaml:"recognized_score" json:"recognized_score" validate:"gte=0,lte=1"`
	UnrecognizedScore float64  `yaml:"unrecognized_score" json:"unrecognized_score" validate:"gte=0,lte=1"`
	NoneScore         float64  `yaml:"none_score" json:"none_score" validate:"gte=0,lte=1"`
}

// MarketCapTier 시가총액 구간 (min_cap 내림차순)
type MarketCapTier struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	MinCap float64 `yaml:"min_cap" json:"min_cap" validate:"gte=0"`
	Score  float64 `yaml:"score" json:"score" validate:"gte=0,lte=1"`
}

// EarningsSafety 실적 발표 근접도
type EarningsSafety struct {
	HorizonDays int     `yaml:"horizon_days" json:"horizon_days" validate:"gte=0"`
	NearScore   float64 `yaml:"near_score" json:"near_score" validate:"gte=0,lte=1"`
	FarScore    float64 `yaml:"far_score" json:"far_score" validate:"gte=0,lte=1"`
}

// Ranking S4: 랭킹 및 집계 뷰
type Ranking struct {
	TopCount            int     `yaml:"top_count" json:"top_count" validate:"gte=0"`
	TopMoversCount      int     `yaml:"top_movers_count" json:"top_movers_count" validate:"gte=0"`
	VolumeLeadersCount  int     `yaml:"volume_leaders_count" json:"volume_leaders_count" validate:"gte=0"`
	BreakoutPositionMin float64 `yaml:"breakout_position_min" json:"breakout_position_min" validate:"gte=0,lte=1"`
	BreakoutLimit       int     `yaml:"breakout_limit" json:"breakout_limit" validate:"gte=0"` // 0 = 제한 없음
	TrendingMinCount    int     `yaml:"trending_min_count" json:"trending_min_count" validate:"gte=1"`
	TrendingLimit       int     `yaml:"trending_limit" json:"trending_limit" validate:"gte=0"`
}

// Quality S0: 배치 입력 커버리지 기준 (미달 시 경고만)
type Quality struct {
	MinScore float64 `yaml:"min_score" json:"min_score" validate:"gte=0,lte=1"`
}

// Default returns the documented default configuration
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID:  "momentum_v1",
			Version:     "1.0.0",
			Description: "5-factor momentum composite with independent data-quality confidence",
		},
		Factors: FactorMaxima{
			PriceMomentum:  40,
			VolumeMomentum: 30,
			Technical:      10,
			Breakout:       10,
			Stability:      10,
		},
		PriceMomentum: PriceMomentum{
			Weights:        TimeframeWeights{W1W: 0.15, W1M: 0.25, W3M: 0.30, W6M: 0.30},
			Scale:          2.0,
			AlignmentBonus: 5,
			ShortDivisor:   3,
			LongDivisor:    2,
		},
		VolumeMomentum: VolumeMomentum{
			RelVolumeMultiplier:   10,
			RelVolume1WMultiplier: 8,
			RelVolume1MMultiplier: 5,
			AccelerationBonus:     5,
		},
		Technical: Technical{
			AboveEMA50Points:  3,
			AboveEMA200Points: 3,
			EMAAlignPoints:    2,
			BetaPoints:        2,
			BetaMin:           0.8,
			BetaMax:           1.5,
		},
		Breakout: Breakout{
			PositionPoints: 8,
			NewHighBonus:   2,
		},
		Stability: Stability{
			Base:          10,
			ATRDivisor:    2,
			OptimalMin:    2,
			OptimalMax:    8,
			OptimalBonus:  2,
			NeutralATRPct: 20,
		},
		Confidence: Confidence{
			Weights: ConfidenceWeights{
				Completeness:    0.4,
				IndexMembership: 0.2,
				MarketCapTier:   0.2,
				EarningsSafety:  0.2,
			},
			Index: IndexMembership{
				Recognized: []string{
					"S&P 500",
					"NASDAQ 100",
					"DOW JONES INDUSTRIAL AVERAGE",
					"RUSSELL 1000",
				},
				RecognizedScore:   1.0,
				UnrecognizedScore: 0.3,
				NoneScore:         0.0,
			},
			Tiers: []MarketCapTier{
				{Name: "mega", MinCap: 100e9, Score: 1.0},
				{Name: "large", MinCap: 50e9, Score: 0.8},
				{Name: "mid_high", MinCap: 20e9, Score: 0.6},
				{Name: "mid", MinCap: 10e9, Score: 0.4},
				{Name: "small", MinCap: 2e9, Score: 0.25},
				{Name: "micro", MinCap: 0, Score: 0.1},
			},
			Earnings: EarningsSafety{
				HorizonDays: 5,
				NearScore:   0.2,
				FarScore:    1.0,
			},
			UnclassifiedScore: 0.1,
		},
		Ranking: Ranking{
			TopCount:            20,
			TopMoversCount:      5,
			VolumeLeadersCount:  5,
			BreakoutPositionMin: 0.9,
			BreakoutLimit:       0,
			TrendingMinCount:    2,
			TrendingLimit:       5,
		},
		Quality: Quality{
			MinScore: 0.5,
		},
	}
}
