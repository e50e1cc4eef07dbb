package s2_signals

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/logger"
)

// Builder orchestrates all scorers to generate per-record signals
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	// Factor scorers
	price      *PriceMomentumScorer
	volume     *VolumeMomentumScorer
	technical  *TechnicalScorer
	breakout   *BreakoutScorer
	stability  *StabilityScorer
	confidence *ConfidenceEstimator

	workers int
	logger  *logger.Logger
}

// NewBuilder creates a new signal builder. workers <= 0 uses GOMAXPROCS.
func NewBuilder(cfg *strategyconfig.Config, workers int, log *logger.Logger) *Builder {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Builder{
		price:      NewPriceMomentumScorer(cfg),
		volume:     NewVolumeMomentumScorer(cfg),
		technical:  NewTechnicalScorer(cfg),
		breakout:   NewBreakoutScorer(cfg),
		stability:  NewStabilityScorer(cfg),
		confidence: NewConfidenceEstimator(cfg),
		workers:    workers,
		logger:     log,
	}
}

// Workers returns the concurrency limit
func (b *Builder) Workers() int {
	return b.workers
}

// Build scores every record concurrently. Each goroutine writes only its
// own slot, so output order and values do not depend on worker count.
func (b *Builder) Build(ctx context.Context, records []contracts.Record, asOf time.Time) ([]contracts.StockSignals, error) {
	start := time.Now()
	out := make([]contracts.StockSignals, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range records {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = b.ScoreRecord(records[i], asOf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build signals: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build signals: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"stage":       "S2",
		"records":     len(records),
		"workers":     b.workers,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("signals built")

	return out, nil
}

// ScoreRecord runs every scorer on one record
func (b *Builder) ScoreRecord(rec contracts.Record, asOf time.Time) contracts.StockSignals {
	price := b.price.Score(rec)
	volume := b.volume.Score(rec)
	technical := b.technical.Score(rec)
	breakout := b.breakout.Score(rec)
	stability := b.stability.Score(rec)

	// 정규화 누락 + 각 스코어러 누락 합집합
	missing := rec.Missing.Union(nil)
	for _, fs := range []contracts.FactorScore{price, volume, technical, breakout.FactorScore, stability} {
		missing.Add(fs.Missing...)
	}

	breakdown, earningsSafe := b.confidence.Estimate(rec, missing, asOf)

	return contracts.StockSignals{
		Record: rec,
		Scores: contracts.SubScores{
			PriceMomentum:  price.Score,
			VolumeMomentum: volume.Score,
			Technical:      technical.Score,
			Breakout:       breakout.Score,
			Stability:      stability.Score,
		},
		BreakoutPosition: breakout.Position,
		NewHigh:          breakout.NewHigh,
		Confidence:       breakdown,
		EarningsSafe:     earningsSafe,
		Missing:          missing,
	}
}
