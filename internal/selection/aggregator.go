package selection

import (
	"math"
	"sort"
	"strings"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/logger"
)

// UnknownIndustry labels records with a blank industry
const UnknownIndustry = "Unknown"

// Aggregator builds derived views over a ranked batch
type Aggregator struct {
	cfg    strategyconfig.Ranking
	logger *logger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(cfg *strategyconfig.Config, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{cfg: cfg.Ranking, logger: log}
}

// Aggregate expects records in rank order
func (a *Aggregator) Aggregate(ranked []contracts.ScoredRecord, skipped int) contracts.Aggregates {
	agg := contracts.EmptyAggregates()
	agg.Summary = a.summary(ranked, skipped)
	if len(ranked) == 0 {
		return agg
	}

	agg.Industries = a.industries(ranked)
	agg.TrendingIndustries = a.trending(agg.Industries)
	agg.TopMovers = topBy(ranked, a.cfg.TopMoversCount, func(r *contracts.ScoredRecord) (float64, float64, bool) {
		return math.Abs(r.Perf1W.Value), r.Perf1W.Value, r.Perf1W.Valid
	})
	agg.VolumeLeaders = topBy(ranked, a.cfg.VolumeLeadersCount, func(r *contracts.ScoredRecord) (float64, float64, bool) {
		return r.RelVolume.Value, r.RelVolume.Value, r.RelVolume.Valid
	})
	agg.BreakoutCandidates = a.breakouts(ranked)

	a.logger.WithFields(map[string]interface{}{
		"industries": len(agg.Industries),
		"trending":   len(agg.TrendingIndustries),
		"breakouts":  len(agg.BreakoutCandidates),
	}).Debug("Aggregates built")

	return agg
}

func (a *Aggregator) summary(ranked []contracts.ScoredRecord, skipped int) contracts.Summary {
	s := contracts.Summary{Total: len(ranked), Skipped: skipped}
	if len(ranked) == 0 {
		return s
	}

	var compositeSum, confidenceSum, topSum float64
	for i := range ranked {
		r := &ranked[i]
		compositeSum += r.Composite
		confidenceSum += r.Confidence
		if r.IsTop {
			s.TopCount++
			topSum += r.Composite
		}
		if r.EarningsSafe {
			s.EarningsSafeCount++
		}
	}

	n := float64(len(ranked))
	s.AvgComposite = compositeSum / n
	s.AvgConfidence = confidenceSum / n
	if s.TopCount > 0 {
		s.TopAvgComposite = topSum / float64(s.TopCount)
	}
	return s
}

// industries groups by industry; ordered by mean composite desc, name asc
func (a *Aggregator) industries(ranked []contracts.ScoredRecord) []contracts.IndustryStats {
	type acc struct {
		count      int
		composite  float64
		confidence float64
		topSymbol  string
		topRank    int
	}
	groups := make(map[string]*acc)

	for i := range ranked {
		r := &ranked[i]
		name := strings.TrimSpace(r.Industry)
		if name == "" {
			name = UnknownIndustry
		}
		g, ok := groups[name]
		if !ok {
			g = &acc{}
			groups[name] = g
		}
		g.count++
		g.composite += r.Composite
		g.confidence += r.Confidence
		if g.topSymbol == "" || r.Rank < g.topRank {
			g.topSymbol, g.topRank = r.Symbol, r.Rank
		}
	}

	out := make([]contracts.IndustryStats, 0, len(groups))
	for name, g := range groups {
		out = append(out, contracts.IndustryStats{
			Name:          name,
			Count:         g.count,
			AvgComposite:  g.composite / float64(g.count),
			AvgConfidence: g.confidence / float64(g.count),
			TopSymbol:     g.topSymbol,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgComposite != out[j].AvgComposite {
			return out[i].AvgComposite > out[j].AvgComposite
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (a *Aggregator) trending(industries []contracts.IndustryStats) []contracts.IndustryStats {
	out := make([]contracts.IndustryStats, 0)
	for _, ind := range industries {
		if len(out) >= a.cfg.TrendingLimit {
			break
		}
		if ind.Count >= a.cfg.TrendingMinCount {
			out = append(out, ind)
		}
	}
	return out
}

func (a *Aggregator) breakouts(ranked []contracts.ScoredRecord) []contracts.BreakoutCandidate {
	out := make([]contracts.BreakoutCandidate, 0)
	for i := range ranked {
		r := &ranked[i]
		if r.BreakoutPosition < a.cfg.BreakoutPositionMin && !r.NewHigh {
			continue
		}
		out = append(out, contracts.BreakoutCandidate{
			Symbol:   r.Symbol,
			Rank:     r.Rank,
			Position: r.BreakoutPosition,
			NewHigh:  r.NewHigh,
			Score:    r.Scores.Breakout,
		})
		if a.cfg.BreakoutLimit > 0 && len(out) >= a.cfg.BreakoutLimit {
			break
		}
	}
	return out
}

// topBy picks the n records with the largest key; missing values are
// excluded and ties keep rank order
func topBy(ranked []contracts.ScoredRecord, n int, key func(r *contracts.ScoredRecord) (sortKey, value float64, ok bool)) []contracts.Mover {
	type candidate struct {
		mover contracts.Mover
		key   float64
	}
	candidates := make([]candidate, 0, len(ranked))
	for i := range ranked {
		k, v, ok := key(&ranked[i])
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			mover: contracts.Mover{Symbol: ranked[i].Symbol, Rank: ranked[i].Rank, Value: v},
			key:   k,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].key != candidates[j].key {
			return candidates[i].key > candidates[j].key
		}
		return candidates[i].mover.Rank < candidates[j].mover.Rank
	})

	if n < len(candidates) {
		candidates = candidates[:n]
	}
	out := make([]contracts.Mover, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.mover)
	}
	return out
}
