package s2_signals

import (
	"math"
	"strings"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

const tierUnclassified = "unclassified"

// ConfidenceEstimator scores data quality independently of the composite
// ⭐ SSOT: 신뢰도 계산은 여기서만 (composite 에 영향 없음)
type ConfidenceEstimator struct {
	cfg        *strategyconfig.Config
	recognized map[string]struct{}
}

// NewConfidenceEstimator creates a new confidence estimator
func NewConfidenceEstimator(cfg *strategyconfig.Config) *ConfidenceEstimator {
	recognized := make(map[string]struct{}, len(cfg.Confidence.Index.Recognized))
	for _, idx := range cfg.Confidence.Index.Recognized {
		recognized[strings.ToUpper(strings.TrimSpace(idx))] = struct{}{}
	}
	return &ConfidenceEstimator{cfg: cfg, recognized: recognized}
}

// Estimate returns the confidence breakdown and the earnings-safe flag.
// missing must be the union of normalizer and scorer masks.
func (e *ConfidenceEstimator) Estimate(rec contracts.Record, missing contracts.FieldSet, asOf time.Time) (contracts.ConfidenceBreakdown, bool) {
	w := e.cfg.Confidence.Weights

	b := contracts.ConfidenceBreakdown{
		Completeness:    e.completeness(missing),
		IndexMembership: e.indexMembership(rec.Indexes),
	}
	b.MarketCapTier, b.MarketCapTierName = e.marketCapTier(rec.MarketCap)

	near := e.earningsNear(rec.EarningsDate, asOf)
	b.EarningsSafety = e.cfg.Confidence.Earnings.FarScore
	if near {
		b.EarningsSafety = e.cfg.Confidence.Earnings.NearScore
	}

	b.Value = clamp(
		b.Completeness*w.Completeness+
			b.IndexMembership*w.IndexMembership+
			b.MarketCapTier*w.MarketCapTier+
			b.EarningsSafety*w.EarningsSafety,
		0, 1)

	return b, !near
}

// completeness = 1 − |missing ∩ required| / |required|
func (e *ConfidenceEstimator) completeness(missing contracts.FieldSet) float64 {
	n := 0
	for _, f := range contracts.ScoringInputs {
		if missing.Has(f) {
			n++
		}
	}
	return 1 - float64(n)/float64(len(contracts.ScoringInputs))
}

func (e *ConfidenceEstimator) indexMembership(indexes []string) float64 {
	idx := e.cfg.Confidence.Index
	if len(indexes) == 0 {
		return idx.NoneScore
	}
	for _, name := range indexes {
		if _, ok := e.recognized[name]; ok {
			return idx.RecognizedScore
		}
	}
	return idx.UnrecognizedScore
}

// marketCapTier picks the first tier whose min_cap the value reaches
func (e *ConfidenceEstimator) marketCapTier(mcap contracts.OptFloat) (float64, string) {
	c := e.cfg.Confidence
	if !mcap.Valid {
		return c.UnclassifiedScore, tierUnclassified
	}
	for _, tier := range c.Tiers {
		if mcap.Value >= tier.MinCap {
			return tier.Score, tier.Name
		}
	}
	return c.UnclassifiedScore, tierUnclassified
}

// earningsNear compares calendar days in UTC. The window is symmetric:
// a report up to horizon_days in the past also counts as near.
func (e *ConfidenceEstimator) earningsNear(earnings *time.Time, asOf time.Time) bool {
	if earnings == nil {
		return false
	}
	return math.Abs(float64(DaysBetween(asOf, *earnings))) <= float64(e.cfg.Confidence.Earnings.HorizonDays)
}

// DaysBetween returns whole calendar days from a to b (UTC dates)
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.UTC().Year(), a.UTC().Month(), a.UTC().Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.UTC().Year(), b.UTC().Month(), b.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(db.Sub(da).Hours() / 24))
}
