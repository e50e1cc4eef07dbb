package s2_signals

import (
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// VolumeMomentumScorer scores relative volume expansion
// ⭐ SSOT: 거래량 모멘텀 점수 계산은 여기서만
type VolumeMomentumScorer struct {
	cfg *strategyconfig.Config
}

// NewVolumeMomentumScorer creates a new volume momentum scorer
func NewVolumeMomentumScorer(cfg *strategyconfig.Config) *VolumeMomentumScorer {
	return &VolumeMomentumScorer{cfg: cfg}
}

// Score returns a value in [0, factors.volume_momentum]
func (s *VolumeMomentumScorer) Score(rec contracts.Record) contracts.FactorScore {
	vm := s.cfg.VolumeMomentum
	maxScore := s.cfg.Factors.VolumeMomentum

	fs := newFactorScore(
		input{contracts.FieldRelVolume, rec.RelVolume},
		input{contracts.FieldRelVolume1W, rec.RelVolume1W},
		input{contracts.FieldRelVolume1M, rec.RelVolume1M},
	)

	raw := rec.RelVolume.Or(0)*vm.RelVolumeMultiplier +
		rec.RelVolume1W.Or(0)*vm.RelVolume1WMultiplier +
		rec.RelVolume1M.Or(0)*vm.RelVolume1MMultiplier

	score := clamp(raw, 0, maxScore)

	// 가속: 주간 상대거래량 > 월간 (누락은 0)
	if rec.RelVolume1W.Or(0) > rec.RelVolume1M.Or(0) {
		score += vm.AccelerationBonus
	}

	fs.Score = clamp(score, 0, maxScore)
	return fs
}
