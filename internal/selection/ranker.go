package selection

import (
	"fmt"
	"sort"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/logger"
)

// Ranker implements S4: composite + total ordering + rank assignment
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	combiner *Combiner
	topCount int
	logger   *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(cfg *strategyconfig.Config, log *logger.Logger) *Ranker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Ranker{
		combiner: NewCombiner(cfg),
		topCount: cfg.Ranking.TopCount,
		logger:   log,
	}
}

// Rank combines sub-scores and sorts records.
// Order: composite desc, confidence desc, symbol asc, input index asc.
func (r *Ranker) Rank(signals []contracts.StockSignals) ([]contracts.ScoredRecord, error) {
	ranked := make([]contracts.ScoredRecord, 0, len(signals))

	for _, sig := range signals {
		composite, err := r.combiner.Combine(sig.Scores)
		if err != nil {
			return nil, fmt.Errorf("rank %s: %w", sig.Record.Symbol, err)
		}

		rec := sig.Record
		rec.Missing = sig.Missing

		ranked = append(ranked, contracts.ScoredRecord{
			Record:           rec,
			Scores:           sig.Scores,
			Composite:        composite,
			Confidence:       sig.Confidence.Value,
			Breakdown:        sig.Confidence,
			BreakoutPosition: sig.BreakoutPosition,
			NewHigh:          sig.NewHigh,
			EarningsSafe:     sig.EarningsSafe,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(&ranked[i], &ranked[j])
	})

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].IsTop = ranked[i].IsTopRanked(r.topCount)
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"stage":      "S4",
			"total":      len(ranked),
			"top_score":  ranked[0].Composite,
			"top_symbol": ranked[0].Symbol,
			"top_count":  r.topCount,
		}).Info("Ranking completed")
	}

	return ranked, nil
}

func less(a, b *contracts.ScoredRecord) bool {
	if a.Composite != b.Composite {
		return a.Composite > b.Composite
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	return a.InputIndex < b.InputIndex
}
