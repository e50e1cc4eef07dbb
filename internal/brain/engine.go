package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/internal/s0_data"
	"github.com/wonny/momentum/internal/s0_data/quality"
	"github.com/wonny/momentum/internal/s2_signals"
	"github.com/wonny/momentum/internal/selection"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/logger"
)

// Engine coordinates the scoring pipeline for one batch
// S0 (normalize/quality) → S2 (signals) → S4 (rank/aggregate)
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Engine struct {
	cfg        *strategyconfig.Config
	configHash string

	// Stage components
	normalizer    contracts.RecordNormalizer
	qualityGate   contracts.QualityGate
	signalBuilder contracts.SignalBuilder
	ranker        contracts.Ranker
	aggregator    contracts.Aggregator

	metrics *metrics.Registry // nil이면 기록 안 함
	clock   func() time.Time
	logger  *logger.Logger
}

// Options holds optional engine settings
type Options struct {
	Workers int              // <= 0: GOMAXPROCS
	Clock   func() time.Time // as-of 시각 (기본: time.Now)
	Metrics *metrics.Registry
	Logger  *logger.Logger
}

// NewEngine validates the config and wires every stage.
// An invalid config is rejected before any scoring happens.
func NewEngine(cfg *strategyconfig.Config, opts Options) (*Engine, error) {
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	for _, w := range strategyconfig.Warn(cfg) {
		log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	return &Engine{
		cfg:           cfg,
		configHash:    hash,
		normalizer:    s0_data.NewNormalizer(log),
		qualityGate:   quality.NewQualityGate(cfg.Quality.MinScore, log),
		signalBuilder: s2_signals.NewBuilder(cfg, opts.Workers, log),
		ranker:        selection.NewRanker(cfg, log),
		aggregator:    selection.NewAggregator(cfg, log),
		metrics:       opts.Metrics,
		clock:         clock,
		logger:        log,
	}, nil
}

// Config returns the active scoring config
func (e *Engine) Config() *strategyconfig.Config {
	return e.cfg
}

// ConfigHash returns the sha256 of the active config
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Now returns the engine clock reading used as the default as-of
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Run scores a batch using the engine clock as the as-of instant
func (e *Engine) Run(ctx context.Context, raws []contracts.RawRecord) (*contracts.RankedResult, error) {
	return e.RunAt(ctx, raws, e.clock())
}

// RunAt scores a batch at the given as-of instant.
// Same input, config and as-of always produce the same result.
func (e *Engine) RunAt(ctx context.Context, raws []contracts.RawRecord, asOf time.Time) (*contracts.RankedResult, error) {
	startTime := time.Now()

	result := &contracts.RankedResult{
		Records:    make([]contracts.ScoredRecord, 0),
		ConfigHash: e.configHash,
		AsOf:       asOf.UTC(),
		Aggregates: contracts.EmptyAggregates(),
		Stages:     make([]contracts.PipelineResult, 0, len(contracts.AllStages())),
	}

	e.logger.WithFields(map[string]interface{}{
		"rows":        len(raws),
		"as_of":       result.AsOf.Format(time.RFC3339),
		"strategy_id": e.cfg.Meta.StrategyID,
		"config_hash": e.configHash[:12],
	}).Info("Starting ranking run")

	// S0: Normalize + Quality
	records := e.runS0(raws, result)

	// S2: Signals
	signals, err := e.runS2(ctx, records, asOf, result)
	if err != nil {
		return e.fail(result, fmt.Errorf("S2 failed: %w", err))
	}

	// S4: Rank + Aggregate
	if err := e.runS4(signals, result); err != nil {
		return e.fail(result, fmt.Errorf("S4 failed: %w", err))
	}

	if e.metrics != nil {
		e.metrics.ObserveBatch(result, nil)
	}

	e.logger.WithFields(map[string]interface{}{
		"ranked":      result.Count(),
		"skipped":     result.Skipped,
		"quality":     result.Quality.QualityScore,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Ranking run completed")

	return result, nil
}

// runS0 executes S0: normalization and input quality
func (e *Engine) runS0(raws []contracts.RawRecord, result *contracts.RankedResult) []contracts.Record {
	start := time.Now()

	records, skipped := e.normalizer.NormalizeBatch(raws)
	result.SkippedRecords = skipped
	result.Skipped = len(skipped)

	snapshot := e.qualityGate.Check(records)
	result.Quality = *snapshot

	e.recordStage(result, contracts.StageData, start, len(raws), len(records), nil, map[string]interface{}{
		"skipped":       len(skipped),
		"quality_score": snapshot.QualityScore,
		"passed":        snapshot.Passed,
	})
	return records
}

// runS2 executes S2: factor scores and confidence
func (e *Engine) runS2(ctx context.Context, records []contracts.Record, asOf time.Time, result *contracts.RankedResult) ([]contracts.StockSignals, error) {
	start := time.Now()

	signals, err := e.signalBuilder.Build(ctx, records, asOf)
	e.recordStage(result, contracts.StageSignals, start, len(records), len(signals), err, nil)
	if err != nil {
		return nil, fmt.Errorf("signal build: %w", err)
	}
	return signals, nil
}

// runS4 executes S4: composite, ordering and aggregates
func (e *Engine) runS4(signals []contracts.StockSignals, result *contracts.RankedResult) error {
	start := time.Now()

	ranked, err := e.ranker.Rank(signals)
	if err != nil {
		e.recordStage(result, contracts.StageRanker, start, len(signals), 0, err, nil)
		return fmt.Errorf("ranking: %w", err)
	}
	result.Records = ranked
	result.Aggregates = e.aggregator.Aggregate(ranked, result.Skipped)

	meta := map[string]interface{}{"top_count": result.Aggregates.Summary.TopCount}
	if len(ranked) > 0 {
		meta["top_symbol"] = ranked[0].Symbol
		meta["top_score"] = ranked[0].Composite
	}
	e.recordStage(result, contracts.StageRanker, start, len(signals), len(ranked), nil, meta)
	return nil
}

func (e *Engine) recordStage(result *contracts.RankedResult, stage contracts.Stage, start time.Time, in, out int, err error, meta map[string]interface{}) {
	elapsed := time.Since(start)

	pr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    elapsed.Milliseconds(),
		Metadata:    meta,
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)

	if e.metrics != nil {
		e.metrics.ObserveStage(stage, elapsed, err)
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":       stage.ShortName(),
		"input":       in,
		"output":      out,
		"duration_ms": pr.Duration,
		"success":     pr.Success,
	}).Debug(fmt.Sprintf("%s completed", stage.ShortName()))
}

func (e *Engine) fail(result *contracts.RankedResult, err error) (*contracts.RankedResult, error) {
	if e.metrics != nil {
		e.metrics.ObserveBatch(nil, err)
	}
	e.logger.WithError(err).Error("Ranking run failed")
	return result, err
}
