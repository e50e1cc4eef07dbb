package selection

import (
	"fmt"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/strategyconfig"
)

func signal(symbol string, price, confidence float64) contracts.StockSignals {
	return contracts.StockSignals{
		Record: contracts.Record{
			Symbol:   symbol,
			Industry: "Software",
			Missing:  contracts.NewFieldSet(),
		},
		Scores:     contracts.SubScores{PriceMomentum: price},
		Confidence: contracts.ConfidenceBreakdown{Value: confidence},
		Missing:    contracts.NewFieldSet(),
	}
}

func TestCombiner(t *testing.T) {
	c := NewCombiner(strategyconfig.Default())

	tests := []struct {
		name    string
		scores  contracts.SubScores
		want    float64
		wantErr bool
	}{
		{"zero", contracts.SubScores{}, 0, false},
		{"max", contracts.SubScores{PriceMomentum: 40, VolumeMomentum: 30, Technical: 10, Breakout: 10, Stability: 10}, 100, false},
		{"mixed", contracts.SubScores{PriceMomentum: 34.02, VolumeMomentum: 29.8, Technical: 10, Breakout: 8, Stability: 10.5 - 0.5}, 91.82, false},
		{"tolerance", contracts.SubScores{PriceMomentum: 40 + 1e-12}, 40 + 1e-12, false},
		{"price over", contracts.SubScores{PriceMomentum: 41}, 0, true},
		{"negative", contracts.SubScores{Stability: -0.1}, 0, true},
		{"nan", contracts.SubScores{Technical: math.NaN()}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Combine(tt.scores)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSubScoreOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRanker_Ordering(t *testing.T) {
	signals := []contracts.StockSignals{
		signal("CCC", 20, 0.5),
		signal("BBB", 30, 0.4),
		signal("AAA", 20, 0.9), // 동점 → confidence 높은 쪽
		signal("ZZZ", 20, 0.5), // composite, confidence 동점 → symbol
		signal("CCC", 20, 0.5), // 완전 동점 → input index
	}
	for i := range signals {
		signals[i].Record.InputIndex = i
	}

	ranked, err := NewRanker(strategyconfig.Default(), nil).Rank(signals)
	require.NoError(t, err)
	require.Len(t, ranked, 5)

	got := make([]string, 0, len(ranked))
	for i, r := range ranked {
		got = append(got, fmt.Sprintf("%s#%d", r.Symbol, r.InputIndex))
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"BBB#1", "AAA#2", "CCC#0", "CCC#4", "ZZZ#3"}, got)
}

func TestRanker_IsTopAndIdempotent(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Ranking.TopCount = 2

	signals := []contracts.StockSignals{
		signal("A", 10, 0.5), signal("B", 30, 0.5), signal("C", 20, 0.5),
	}
	r := NewRanker(cfg, nil)

	first, err := r.Rank(signals)
	require.NoError(t, err)
	second, err := r.Rank(signals)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.True(t, first[0].IsTop)
	assert.True(t, first[1].IsTop)
	assert.False(t, first[2].IsTop)
	assert.Equal(t, "A", first[2].Symbol)
}

func TestRanker_CarriesSignalFields(t *testing.T) {
	s := signal("A", 10, 0.7)
	s.Missing = contracts.NewFieldSet(contracts.FieldATR14DPct)
	s.BreakoutPosition = 0.95
	s.NewHigh = true
	s.EarningsSafe = true

	ranked, err := NewRanker(strategyconfig.Default(), nil).Rank([]contracts.StockSignals{s})
	require.NoError(t, err)

	r := ranked[0]
	assert.Equal(t, 0.7, r.Confidence)
	assert.Equal(t, 0.7, r.Breakdown.Value)
	assert.True(t, r.Missing.Has(contracts.FieldATR14DPct))
	assert.Equal(t, 0.95, r.BreakoutPosition)
	assert.True(t, r.NewHigh)
	assert.True(t, r.EarningsSafe)
}

func TestRanker_OutOfRange(t *testing.T) {
	_, err := NewRanker(strategyconfig.Default(), nil).Rank([]contracts.StockSignals{signal("BAD", 99, 1)})
	assert.ErrorIs(t, err, ErrSubScoreOutOfRange)
}

func TestRanker_Empty(t *testing.T) {
	ranked, err := NewRanker(strategyconfig.Default(), nil).Rank(nil)
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

// scored builds a ranked record directly (already in rank order)
func scored(rank int, symbol, industry string, composite float64) contracts.ScoredRecord {
	return contracts.ScoredRecord{
		Record:     contracts.Record{Symbol: symbol, Industry: industry},
		Composite:  composite,
		Confidence: 0.5,
		Rank:       rank,
	}
}

func TestAggregator_Empty(t *testing.T) {
	agg := NewAggregator(strategyconfig.Default(), nil).Aggregate(nil, 3)

	assert.Equal(t, 0, agg.Summary.Total)
	assert.Equal(t, 3, agg.Summary.Skipped)
	assert.NotNil(t, agg.Industries)
	assert.NotNil(t, agg.TrendingIndustries)
	assert.NotNil(t, agg.TopMovers)
	assert.NotNil(t, agg.VolumeLeaders)
	assert.NotNil(t, agg.BreakoutCandidates)
}

func TestAggregator_SummaryAndIndustries(t *testing.T) {
	ranked := []contracts.ScoredRecord{
		scored(1, "A", "Semis", 80),
		scored(2, "B", "Software", 70),
		scored(3, "C", "Semis", 60),
		scored(4, "D", "", 70),
		scored(5, "E", " ", 50),
		scored(6, "F", "Banks", 70),
	}
	ranked[0].IsTop, ranked[1].IsTop = true, true
	ranked[0].EarningsSafe, ranked[3].EarningsSafe = true, true
	ranked[2].Confidence = 1.0

	agg := NewAggregator(strategyconfig.Default(), nil).Aggregate(ranked, 1)

	s := agg.Summary
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Skipped)
	assert.InDelta(t, 400.0/6, s.AvgComposite, 1e-9)
	assert.InDelta(t, 3.5/6, s.AvgConfidence, 1e-9)
	assert.Equal(t, 2, s.TopCount)
	assert.InDelta(t, 75, s.TopAvgComposite, 1e-9)
	assert.Equal(t, 2, s.EarningsSafeCount)

	names := make([]string, 0, len(agg.Industries))
	for _, ind := range agg.Industries {
		names = append(names, ind.Name)
	}
	// Semis 70, Banks 70, Software 70 (이름순), Unknown 60
	assert.Equal(t, []string{"Banks", "Semis", "Software", UnknownIndustry}, names)

	semis := agg.Industries[1]
	assert.Equal(t, 2, semis.Count)
	assert.Equal(t, "A", semis.TopSymbol)
	assert.InDelta(t, 0.75, semis.AvgConfidence, 1e-9)

	unknown := agg.Industries[3]
	assert.Equal(t, 2, unknown.Count)
	assert.Equal(t, "D", unknown.TopSymbol)

	require.Len(t, agg.TrendingIndustries, 2)
	assert.Equal(t, "Semis", agg.TrendingIndustries[0].Name)
	assert.Equal(t, UnknownIndustry, agg.TrendingIndustries[1].Name)
}

func TestAggregator_TrendingLimit(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Ranking.TrendingLimit = 1
	cfg.Ranking.TrendingMinCount = 1

	ranked := []contracts.ScoredRecord{scored(1, "A", "X", 50), scored(2, "B", "Y", 40)}
	agg := NewAggregator(cfg, nil).Aggregate(ranked, 0)

	require.Len(t, agg.TrendingIndustries, 1)
	assert.Equal(t, "X", agg.TrendingIndustries[0].Name)
}

func TestAggregator_TopMoversAndVolumeLeaders(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Ranking.TopMoversCount = 3
	cfg.Ranking.VolumeLeadersCount = 2

	ranked := make([]contracts.ScoredRecord, 0, 5)
	perf := []contracts.OptFloat{contracts.Some(3), contracts.Some(-8), contracts.None(), contracts.Some(8), contracts.Some(1)}
	relVol := []contracts.OptFloat{contracts.Some(1.2), contracts.None(), contracts.Some(2.5), contracts.Some(1.2), contracts.Some(0.4)}
	for i := range perf {
		r := scored(i+1, fmt.Sprintf("S%d", i+1), "X", float64(90-i))
		r.Perf1W = perf[i]
		r.RelVolume = relVol[i]
		ranked = append(ranked, r)
	}

	agg := NewAggregator(cfg, nil).Aggregate(ranked, 0)

	// |perf1W| 동점 8 → rank 순 (S2 먼저)
	require.Len(t, agg.TopMovers, 3)
	assert.Equal(t, contracts.Mover{Symbol: "S2", Rank: 2, Value: -8}, agg.TopMovers[0])
	assert.Equal(t, "S4", agg.TopMovers[1].Symbol)
	assert.Equal(t, "S1", agg.TopMovers[2].Symbol)

	require.Len(t, agg.VolumeLeaders, 2)
	assert.Equal(t, "S3", agg.VolumeLeaders[0].Symbol)
	assert.Equal(t, "S1", agg.VolumeLeaders[1].Symbol)
}

func TestAggregator_BreakoutCandidates(t *testing.T) {
	ranked := []contracts.ScoredRecord{
		scored(1, "A", "X", 90),
		scored(2, "B", "X", 80),
		scored(3, "C", "X", 70),
		scored(4, "D", "X", 60),
	}
	ranked[0].BreakoutPosition = 0.5
	ranked[1].BreakoutPosition = 0.9
	ranked[2].BreakoutPosition, ranked[2].NewHigh = 1, true
	ranked[3].BreakoutPosition = 0.95

	cfg := strategyconfig.Default()
	agg := NewAggregator(cfg, nil).Aggregate(ranked, 0)
	require.Len(t, agg.BreakoutCandidates, 3)
	assert.Equal(t, "B", agg.BreakoutCandidates[0].Symbol)
	assert.True(t, agg.BreakoutCandidates[1].NewHigh)

	cfg.Ranking.BreakoutLimit = 1
	agg = NewAggregator(cfg, nil).Aggregate(ranked, 0)
	require.Len(t, agg.BreakoutCandidates, 1)
	assert.Equal(t, "B", agg.BreakoutCandidates[0].Symbol)
}

func filterFixture() []contracts.ScoredRecord {
	a := scored(1, "NVDA", "Semis", 90)
	a.Description, a.IsTop, a.Perf1W, a.Confidence = "NVIDIA Corp", true, contracts.Some(4), 0.6
	b := scored(2, "MSFT", "Software", 80)
	b.Description, b.IsTop, b.Perf1W, b.Confidence = "Microsoft", true, contracts.None(), 0.9
	c := scored(3, "AMD", "Semis", 70)
	c.Description, c.Perf1W, c.Confidence = "Advanced Micro Devices", contracts.Some(-2), 0.8
	return []contracts.ScoredRecord{a, b, c}
}

func symbols(records []contracts.ScoredRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Symbol)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero keeps rank order", Filter{}, []string{"NVDA", "MSFT", "AMD"}},
		{"industry", Filter{Industry: "Semis"}, []string{"NVDA", "AMD"}},
		{"search symbol", Filter{Search: "md"}, []string{"AMD"}},
		{"search description", Filter{Search: "micro"}, []string{"MSFT", "AMD"}},
		{"top only", Filter{TopOnly: true}, []string{"NVDA", "MSFT"}},
		{"symbol asc", Filter{SortBy: SortBySymbol}, []string{"AMD", "MSFT", "NVDA"}},
		{"confidence desc", Filter{SortBy: SortByConfidence, Desc: true}, []string{"MSFT", "AMD", "NVDA"}},
		{"rank desc", Filter{SortBy: SortByRank, Desc: true}, []string{"AMD", "MSFT", "NVDA"}},
		{"industry keeps rank on ties", Filter{SortBy: SortByIndustry}, []string{"NVDA", "AMD", "MSFT"}},
		{"perf_1w asc missing last", Filter{SortBy: SortByPerf1W}, []string{"AMD", "NVDA", "MSFT"}},
		{"perf_1w desc missing last", Filter{SortBy: SortByPerf1W, Desc: true}, []string{"NVDA", "AMD", "MSFT"}},
		{"no match", Filter{Industry: "Banks"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := filterFixture()
			got := tt.filter.Apply(records)
			assert.Equal(t, tt.want, symbols(got))
			assert.Equal(t, []string{"NVDA", "MSFT", "AMD"}, symbols(records), "input untouched")
		})
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(url.Values{
		"industry": {" Semis "},
		"search":   {"nv"},
		"top_only": {"true"},
		"sort_by":  {"SCORE"},
		"sort_dir": {"desc"},
	})
	assert.Equal(t, Filter{Industry: "Semis", Search: "nv", TopOnly: true, SortBy: SortByScore, Desc: true}, f)
	assert.False(t, f.IsZero())

	f = ParseFilter(url.Values{"sort_by": {"market_cap"}, "top_only": {"maybe"}})
	assert.Equal(t, SortByRank, f.SortBy)
	assert.False(t, f.TopOnly)
	assert.True(t, f.IsZero())
}
