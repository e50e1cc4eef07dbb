package s2_signals

import (
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// BreakoutResult is the breakout score plus the values the aggregator needs
type BreakoutResult struct {
	contracts.FactorScore
	Position float64 // 52주 레인지 내 위치 (0 ~ 1)
	NewHigh  bool    // price >= high52W
}

// BreakoutScorer scores proximity to the 52-week high
// ⭐ SSOT: 돌파 점수 계산은 여기서만
type BreakoutScorer struct {
	cfg *strategyconfig.Config
}

// NewBreakoutScorer creates a new breakout scorer
func NewBreakoutScorer(cfg *strategyconfig.Config) *BreakoutScorer {
	return &BreakoutScorer{cfg: cfg}
}

// Score returns a value in [0, factors.breakout].
// 입력 누락 또는 레인지 퇴화 (high <= low) 시 position = 0, high/low 누락 처리
func (s *BreakoutScorer) Score(rec contracts.Record) BreakoutResult {
	b := s.cfg.Breakout

	res := BreakoutResult{
		FactorScore: newFactorScore(
			input{contracts.FieldPrice, rec.Price},
			input{contracts.FieldHigh52W, rec.High52W},
			input{contracts.FieldLow52W, rec.Low52W},
		),
	}

	if !rec.Price.Valid || !rec.High52W.Valid || !rec.Low52W.Valid ||
		rec.High52W.Value <= rec.Low52W.Value {
		res.Missing = appendMissing(res.Missing, contracts.FieldHigh52W, contracts.FieldLow52W)
		return res
	}

	price, high, low := rec.Price.Value, rec.High52W.Value, rec.Low52W.Value
	res.Position = clamp((price-low)/(high-low), 0, 1)
	res.NewHigh = price >= high

	score := res.Position * b.PositionPoints
	if res.NewHigh {
		score += b.NewHighBonus
	}

	res.Score = clamp(score, 0, s.cfg.Factors.Breakout)
	return res
}

// appendMissing adds fields not already present
func appendMissing(missing []contracts.Field, fields ...contracts.Field) []contracts.Field {
	for _, f := range fields {
		found := false
		for _, m := range missing {
			if m == f {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f)
		}
	}
	return missing
}
