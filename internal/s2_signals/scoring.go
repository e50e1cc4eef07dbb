package s2_signals

import (
	"math"

	"github.com/wonny/momentum/internal/contracts"
)

// input pairs a field with its optional value
type input struct {
	field contracts.Field
	value contracts.OptFloat
}

// newFactorScore splits inputs into used and missing fields
func newFactorScore(inputs ...input) contracts.FactorScore {
	fs := contracts.FactorScore{
		Used:    make([]contracts.Field, 0, len(inputs)),
		Missing: make([]contracts.Field, 0),
	}
	for _, in := range inputs {
		if in.value.Valid {
			fs.Used = append(fs.Used, in.field)
		} else {
			fs.Missing = append(fs.Missing, in.field)
		}
	}
	return fs
}

// clamp restricts v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
