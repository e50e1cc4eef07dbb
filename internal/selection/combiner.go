package selection

import (
	"errors"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

// ErrSubScoreOutOfRange is returned when a scorer produced a value outside
// its configured bounds. This is always a programming error.
var ErrSubScoreOutOfRange = errors.New("sub-score out of range")

const boundsTolerance = 1e-9

// Combiner sums the five sub-scores into the 0~100 composite
type Combiner struct {
	maxima strategyconfig.FactorMaxima
}

// NewCombiner creates a new combiner
func NewCombiner(cfg *strategyconfig.Config) *Combiner {
	return &Combiner{maxima: cfg.Factors}
}

// Combine checks every sub-score against [0, max] and returns the sum
func (c *Combiner) Combine(s contracts.SubScores) (float64, error) {
	checks := []struct {
		name  string
		value float64
		max   float64
	}{
		{"price_momentum", s.PriceMomentum, c.maxima.PriceMomentum},
		{"volume_momentum", s.VolumeMomentum, c.maxima.VolumeMomentum},
		{"technical", s.Technical, c.maxima.Technical},
		{"breakout", s.Breakout, c.maxima.Breakout},
		{"stability", s.Stability, c.maxima.Stability},
	}
	for _, chk := range checks {
		if !within(chk.value, 0, chk.max) {
			return 0, fmt.Errorf("%w: %s=%v (max %v)", ErrSubScoreOutOfRange, chk.name, chk.value, chk.max)
		}
	}

	composite := s.Sum()
	if !within(composite, 0, c.maxima.Sum()) {
		return 0, fmt.Errorf("%w: composite=%v", ErrSubScoreOutOfRange, composite)
	}
	return composite, nil
}

// within also rejects NaN
func within(v, lo, hi float64) bool {
	return v >= lo-boundsTolerance && v <= hi+boundsTolerance
}
