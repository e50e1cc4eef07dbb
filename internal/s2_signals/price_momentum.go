package s2_signals

import (
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// PriceMomentumScorer scores multi-timeframe price performance
// ⭐ SSOT: 가격 모멘텀 점수 계산은 여기서만
type PriceMomentumScorer struct {
	cfg *strategyconfig.Config
}

// NewPriceMomentumScorer creates a new price momentum scorer
func NewPriceMomentumScorer(cfg *strategyconfig.Config) *PriceMomentumScorer {
	return &PriceMomentumScorer{cfg: cfg}
}

// Score returns a value in [0, factors.price_momentum].
// raw = Σ perf×weight (퍼센트 포인트), scaled = raw × scale, +정배열 보너스
func (s *PriceMomentumScorer) Score(rec contracts.Record) contracts.FactorScore {
	pm := s.cfg.PriceMomentum
	maxScore := s.cfg.Factors.PriceMomentum

	fs := newFactorScore(
		input{contracts.FieldPerf1W, rec.Perf1W},
		input{contracts.FieldPerf1M, rec.Perf1M},
		input{contracts.FieldPerf3M, rec.Perf3M},
		input{contracts.FieldPerf6M, rec.Perf6M},
	)

	// 누락 기간은 0 기여
	raw := rec.Perf1W.Or(0)*pm.Weights.W1W +
		rec.Perf1M.Or(0)*pm.Weights.W1M +
		rec.Perf3M.Or(0)*pm.Weights.W3M +
		rec.Perf6M.Or(0)*pm.Weights.W6M

	score := clamp(raw*pm.Scale, 0, maxScore)
	if s.aligned(rec) {
		score += pm.AlignmentBonus
	}

	fs.Score = clamp(score, 0, maxScore)
	return fs
}

// aligned reports short-term acceleration across the four timeframes.
// 누락 기간은 raw 와 같이 0 으로 평가 (누락은 신뢰도에만 반영)
func (s *PriceMomentumScorer) aligned(rec contracts.Record) bool {
	pm := s.cfg.PriceMomentum
	p1w, p1m, p3m, p6m := rec.Perf1W.Or(0), rec.Perf1M.Or(0), rec.Perf3M.Or(0), rec.Perf6M.Or(0)
	return p1w > 0 &&
		p1m > p3m/pm.ShortDivisor &&
		p3m > p6m/pm.LongDivisor
}
