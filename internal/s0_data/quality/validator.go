package quality

import (
	"sort"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// Group is a set of fields measured together
type Group struct {
	Name   string
	Fields []contracts.Field
	Weight float64
}

// Groups are the coverage groups and their weights (합계 = 1.0)
var Groups = []Group{
	{Name: "performance", Fields: []contracts.Field{contracts.FieldPerf1W, contracts.FieldPerf1M, contracts.FieldPerf3M, contracts.FieldPerf6M}, Weight: 0.30},
	{Name: "volume", Fields: []contracts.Field{contracts.FieldRelVolume, contracts.FieldRelVolume1W, contracts.FieldRelVolume1M}, Weight: 0.25},
	{Name: "price", Fields: []contracts.Field{contracts.FieldPrice, contracts.FieldEMA50, contracts.FieldEMA200, contracts.FieldHigh52W, contracts.FieldLow52W}, Weight: 0.25},
	{Name: "volatility", Fields: []contracts.Field{contracts.FieldATR14DPct, contracts.FieldBeta1Y}, Weight: 0.10},
	{Name: "market_cap", Fields: []contracts.Field{contracts.FieldMarketCap}, Weight: 0.10},
}

// worstFieldsLimit caps DataQualitySnapshot.WorstFields
const worstFieldsLimit = 3

// QualityGate measures input coverage of a normalized batch
type QualityGate struct {
	minScore float64
	logger   *logger.Logger
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(minScore float64, log *logger.Logger) *QualityGate {
	if log == nil {
		log = logger.NewNop()
	}
	return &QualityGate{minScore: minScore, logger: log}
}

// Check computes per-group coverage and a weighted quality score
// ⭐ SSOT: S0 배치 품질 측정 (실패해도 스코어링은 계속)
func (g *QualityGate) Check(records []contracts.Record) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		TotalRecords: len(records),
		Coverage:     make(map[string]float64, len(Groups)),
		WorstFields:  []contracts.Field{},
	}

	if len(records) == 0 {
		for _, grp := range Groups {
			snapshot.Coverage[grp.Name] = 0
		}
		return snapshot
	}

	for _, grp := range Groups {
		snapshot.Coverage[grp.Name] = groupCoverage(records, grp.Fields)
	}

	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Passed = snapshot.QualityScore >= g.minScore
	snapshot.WorstFields = WorstFields(records, worstFieldsLimit)

	if !snapshot.Passed {
		g.logger.WithFields(map[string]interface{}{
			"stage":         "S0",
			"quality_score": snapshot.QualityScore,
			"min_score":     g.minScore,
			"worst_fields":  snapshot.WorstFields,
		}).Warn("input coverage below minimum")
	}

	return snapshot
}

// FieldMissingCounts returns how many records miss each field
func FieldMissingCounts(records []contracts.Record) map[contracts.Field]int {
	counts := make(map[contracts.Field]int)
	for _, r := range records {
		for f := range r.Missing {
			counts[f]++
		}
	}
	return counts
}

// WorstFields returns the n fields with the lowest coverage, worst first
func WorstFields(records []contracts.Record, n int) []contracts.Field {
	counts := FieldMissingCounts(records)
	fields := make([]contracts.Field, 0, len(counts))
	for f := range counts {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		if counts[fields[i]] != counts[fields[j]] {
			return counts[fields[i]] > counts[fields[j]]
		}
		return fields[i] < fields[j]
	})
	if n >= 0 && n < len(fields) {
		fields = fields[:n]
	}
	return fields
}

// groupCoverage is the share of present (record, field) cells
func groupCoverage(records []contracts.Record, fields []contracts.Field) float64 {
	total := len(records) * len(fields)
	if total == 0 {
		return 0
	}
	present := 0
	for _, r := range records {
		for _, f := range fields {
			if !r.Missing.Has(f) {
				present++
			}
		}
	}
	return float64(present) / float64(total)
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for _, grp := range Groups {
		if cov, exists := coverage[grp.Name]; exists {
			score += cov * grp.Weight
		}
	}
	return score
}
