package s2_signals

import (
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// TechnicalScorer scores trend alignment and beta
// ⭐ SSOT: 기술적 지표 점수 계산은 여기서만
type TechnicalScorer struct {
	cfg *strategyconfig.Config
}

// NewTechnicalScorer creates a new technical scorer
func NewTechnicalScorer(cfg *strategyconfig.Config) *TechnicalScorer {
	return &TechnicalScorer{cfg: cfg}
}

// Score returns a value in [0, factors.technical].
// 입력이 없는 게이트는 건너뜀 (0점)
func (s *TechnicalScorer) Score(rec contracts.Record) contracts.FactorScore {
	t := s.cfg.Technical

	fs := newFactorScore(
		input{contracts.FieldPrice, rec.Price},
		input{contracts.FieldEMA50, rec.EMA50},
		input{contracts.FieldEMA200, rec.EMA200},
		input{contracts.FieldBeta1Y, rec.Beta1Y},
	)

	score := 0.0
	if rec.Price.Valid && rec.EMA50.Valid && rec.Price.Value > rec.EMA50.Value {
		score += t.AboveEMA50Points
	}
	if rec.Price.Valid && rec.EMA200.Valid && rec.Price.Value > rec.EMA200.Value {
		score += t.AboveEMA200Points
	}
	if rec.EMA50.Valid && rec.EMA200.Valid && rec.EMA50.Value > rec.EMA200.Value {
		score += t.EMAAlignPoints
	}
	if rec.Beta1Y.Valid && rec.Beta1Y.Value >= t.BetaMin && rec.Beta1Y.Value <= t.BetaMax {
		score += t.BetaPoints
	}

	fs.Score = clamp(score, 0, s.cfg.Factors.Technical)
	return fs
}
