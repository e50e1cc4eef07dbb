package s2_signals

import (
	"math"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// StabilityScorer scores volatility (ATR% of price)
// ⭐ SSOT: 안정성 점수 계산은 여기서만
type StabilityScorer struct {
	cfg *strategyconfig.Config
}

// NewStabilityScorer creates a new stability scorer
func NewStabilityScorer(cfg *strategyconfig.Config) *StabilityScorer {
	return &StabilityScorer{cfg: cfg}
}

// Score returns a value in [0, factors.stability].
// base = max(0, base − ATR/divisor), 최적 구간이면 보너스. ATR 누락 시 neutral_atr_pct 사용
func (s *StabilityScorer) Score(rec contracts.Record) contracts.FactorScore {
	st := s.cfg.Stability

	fs := newFactorScore(input{contracts.FieldATR14DPct, rec.ATR14DPct})
	atr := rec.ATR14DPct.Or(st.NeutralATRPct)

	score := math.Max(0, st.Base-atr/st.ATRDivisor)
	if atr >= st.OptimalMin && atr <= st.OptimalMax {
		score += st.OptimalBonus
	}

	fs.Score = clamp(score, 0, s.cfg.Factors.Stability)
	return fs
}
