package s2_signals

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

func batch(n int) []contracts.Record {
	records := make([]contracts.Record, n)
	for i := range records {
		r := completeRecord(fmt.Sprintf("S%03d", i))
		r.InputIndex = i
		r.Perf1W = some(float64(i%7) - 3)
		r.RelVolume = some(float64(i%5) * 0.4)
		if i%4 == 0 {
			r.ATR14DPct = contracts.None()
			r.Missing = contracts.NewFieldSet(contracts.FieldATR14DPct)
		}
		records[i] = r
	}
	return records
}

func TestBuilder_DeterministicAcrossWorkers(t *testing.T) {
	cfg := strategyconfig.Default()
	records := batch(64)

	base, err := NewBuilder(cfg, 1, nil).Build(context.Background(), records, asOf)
	require.NoError(t, err)
	require.Len(t, base, len(records))

	for _, workers := range []int{2, 8, 32} {
		got, err := NewBuilder(cfg, workers, nil).Build(context.Background(), records, asOf)
		require.NoError(t, err)
		assert.Equal(t, base, got, "workers=%d", workers)
	}

	for i, s := range base {
		assert.Equal(t, records[i].Symbol, s.Record.Symbol, "slot order")
	}
}

func TestBuilder_Empty(t *testing.T) {
	got, err := NewBuilder(strategyconfig.Default(), 4, nil).Build(context.Background(), nil, asOf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(strategyconfig.Default(), 2, nil).Build(ctx, batch(10), asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_DefaultWorkers(t *testing.T) {
	assert.Greater(t, NewBuilder(strategyconfig.Default(), 0, nil).Workers(), 0)
}

func TestScoreRecord_MissingATRLowersConfidence(t *testing.T) {
	b := NewBuilder(strategyconfig.Default(), 1, nil)

	complete := completeRecord("AAA")
	noATR := completeRecord("AAA")
	noATR.ATR14DPct = contracts.None()
	noATR.Missing = contracts.NewFieldSet(contracts.FieldATR14DPct)

	full := b.ScoreRecord(complete, asOf)
	partial := b.ScoreRecord(noATR, asOf)

	assert.Equal(t, 0.0, partial.Scores.Stability, "neutral ATR contributes 0")
	assert.Less(t, partial.Confidence.Value, full.Confidence.Value)
	assert.True(t, partial.Missing.Has(contracts.FieldATR14DPct))

	// composite 입력 중 stability 외에는 동일
	assert.Equal(t, full.Scores.PriceMomentum, partial.Scores.PriceMomentum)
	assert.Equal(t, full.Scores.VolumeMomentum, partial.Scores.VolumeMomentum)
}

func TestScoreRecord_MissingPerfLowersConfidenceOnly(t *testing.T) {
	b := NewBuilder(strategyconfig.Default(), 1, nil)

	zero := completeRecord("AAA")
	zero.Perf6M = contracts.Some(0)
	absent := completeRecord("AAA")
	absent.Perf6M = contracts.None()
	absent.Missing = contracts.NewFieldSet(contracts.FieldPerf6M)

	withZero := b.ScoreRecord(zero, asOf)
	withMissing := b.ScoreRecord(absent, asOf)

	assert.InDelta(t, withZero.Scores.Sum(), withMissing.Scores.Sum(), 1e-9)
	assert.Less(t, withMissing.Confidence.Value, withZero.Confidence.Value)
	assert.True(t, withMissing.Missing.Has(contracts.FieldPerf6M))
}

func TestScoreRecord_DegenerateRangeMarksMissing(t *testing.T) {
	rec := completeRecord("FLAT")
	rec.High52W, rec.Low52W, rec.Price = some(50), some(50), some(50)

	s := NewBuilder(strategyconfig.Default(), 1, nil).ScoreRecord(rec, asOf)

	assert.Equal(t, 0.0, s.BreakoutPosition)
	assert.Equal(t, 0.0, s.Scores.Breakout)
	assert.True(t, s.Missing.Has(contracts.FieldHigh52W))
	assert.True(t, s.Missing.Has(contracts.FieldLow52W))
	assert.InDelta(t, 1-2.0/14.0, s.Confidence.Completeness, 1e-12)

	// 원본 Record 의 누락 집합은 변경되지 않음
	assert.Zero(t, rec.Missing.Len())
}

func TestScoreRecord_Bounds(t *testing.T) {
	b := NewBuilder(strategyconfig.Default(), 1, nil)
	for _, rec := range batch(40) {
		s := b.ScoreRecord(rec, asOf)
		assert.LessOrEqual(t, s.Scores.Sum(), 100.0)
		assert.GreaterOrEqual(t, s.Scores.Sum(), 0.0)
		assert.GreaterOrEqual(t, s.Confidence.Value, 0.0)
		assert.LessOrEqual(t, s.Confidence.Value, 1.0)
	}
}
