package yahoo

import (
	"math"
	"time"

	"github.com/wonny/momentum/internal/contracts"
)

// closes pairs timestamps with non-null closes, oldest first
func closes(r chartResult) []point {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	raw := r.Indicators.Quote[0].Close

	out := make([]point, 0, len(raw))
	for i, c := range raw {
		if c == nil || i >= len(r.Timestamp) || math.IsNaN(*c) || *c <= 0 {
			continue
		}
		out = append(out, point{ts: time.Unix(r.Timestamp[i], 0).UTC(), close: *c})
	}
	return out
}

// changeBack is the change from the close n trading days before the last one
func changeBack(points []point, current float64, n int) contracts.OptFloat {
	idx := len(points) - 1 - n
	if idx < 0 {
		return contracts.None()
	}
	return pctChange(points[idx].close, current)
}

// changeYTD uses the last close of the previous year as base,
// or the first close of this year when the series starts in January
func changeYTD(points []point, current float64, now time.Time) contracts.OptFloat {
	year := now.UTC().Year()

	for i, p := range points {
		if p.ts.Year() < year {
			continue
		}
		if i > 0 {
			return pctChange(points[i-1].close, current)
		}
		return pctChange(p.close, current)
	}
	return contracts.None()
}

func pctChange(base, current float64) contracts.OptFloat {
	if base <= 0 {
		return contracts.None()
	}
	return contracts.Some((current - base) / base * 100)
}
