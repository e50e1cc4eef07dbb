package brain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/internal/strategyconfig"
)

var fixedNow = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func raw(symbol string, perf1W float64) contracts.RawRecord {
	return contracts.RawRecord{
		"Symbol":                symbol,
		"Description":           symbol + " Inc.",
		"Industry":              "Software",
		"Market Capitalization": "250B",
		"Price":                 "110",
		"Perf 1W":               perf1W,
		"Perf 1M":               "8.3%",
		"Perf 3M":               "15.2%",
		"Perf 6M":               "25%",
		"Relative Volume":       "1.2",
		"Relative Volume 1W":    "1.1",
		"Relative Volume 1M":    "0.9",
		"EMA(50)":               "100",
		"EMA(200)":              "90",
		"Beta 1Y":               "1.1",
		"ATR(14D)":              "3%",
		"52W High":              "120",
		"52W Low":               "70",
		"Indexes":               "S&P 500",
	}
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	e, err := NewEngine(strategyconfig.Default(), opts)
	require.NoError(t, err)
	return e
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Factors.PriceMomentum = 50

	_, err := NewEngine(cfg, Options{})
	require.Error(t, err)

	var verr strategyconfig.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "factors", verr.Field)
}

func TestRun_EmptyBatch(t *testing.T) {
	e := newEngine(t, Options{})

	result, err := e.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.NotNil(t, result.Records)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, e.ConfigHash(), result.ConfigHash)
	assert.Equal(t, contracts.EmptyAggregates(), result.Aggregates)
	assert.Len(t, result.Stages, 3)
}

func TestRun_WorkedBatch(t *testing.T) {
	e := newEngine(t, Options{Workers: 2})

	raws := []contracts.RawRecord{
		raw("AAPL", 2.5),
		{"Description": "no symbol"},
		raw("MSFT", -1),
		raw("NVDA", 2.5),
	}
	delete(raws[3], "ATR(14D)")

	result, err := e.Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, fixedNow, result.AsOf)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.SkippedRecords, 1)
	assert.Equal(t, 1, result.SkippedRecords[0].InputIndex)

	require.Equal(t, 3, result.Count())
	// AAPL 과 NVDA 는 ATR 을 제외하고 동일 → AAPL 이 stability 만큼 앞섬
	assert.Equal(t, "AAPL", result.Records[0].Symbol)
	assert.InDelta(t, 34.02, result.Records[0].Scores.PriceMomentum, 1e-9)
	assert.True(t, result.Records[0].IsTop)

	var nvda contracts.ScoredRecord
	for _, r := range result.Records {
		if r.Symbol == "NVDA" {
			nvda = r
		}
	}
	assert.True(t, nvda.Missing.Has(contracts.FieldATR14DPct))
	assert.Less(t, nvda.Confidence, result.Records[0].Confidence)

	for i, r := range result.Records {
		assert.Equal(t, i+1, r.Rank)
	}

	assert.Equal(t, 3, result.Aggregates.Summary.Total)
	assert.Equal(t, 1, result.Aggregates.Summary.Skipped)
	require.Len(t, result.Aggregates.Industries, 1)
	assert.Equal(t, "Software", result.Aggregates.Industries[0].Name)

	require.Len(t, result.Stages, 3)
	for i, stage := range contracts.AllStages() {
		assert.Equal(t, stage, result.Stages[i].Stage)
		assert.True(t, result.Stages[i].Success)
	}
	assert.Equal(t, 4, result.Stages[0].InputCount)
	assert.Equal(t, 3, result.Stages[0].OutputCount)
}

func TestRunAt_DeterministicAcrossWorkers(t *testing.T) {
	raws := make([]contracts.RawRecord, 0, 50)
	for i := 0; i < 50; i++ {
		raws = append(raws, raw(fmt.Sprintf("S%02d", i), float64(i%9)-4))
	}

	base, err := newEngine(t, Options{Workers: 1}).RunAt(context.Background(), raws, fixedNow)
	require.NoError(t, err)

	for _, workers := range []int{3, 16} {
		got, err := newEngine(t, Options{Workers: workers}).RunAt(context.Background(), raws, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, base.Records, got.Records, "workers=%d", workers)
		assert.Equal(t, base.Aggregates, got.Aggregates, "workers=%d", workers)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newEngine(t, Options{}).Run(ctx, []contracts.RawRecord{raw("A", 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	last := result.Stages[len(result.Stages)-1]
	assert.Equal(t, contracts.StageSignals, last.Stage)
	assert.False(t, last.Success)
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := metrics.NewRegistry()
	e := newEngine(t, Options{Metrics: m})

	_, err := e.Run(context.Background(), []contracts.RawRecord{raw("A", 1), raw("B", 2), {"Price": "1"}})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Batches.WithLabelValues(metrics.ResultSuccess)))
}
