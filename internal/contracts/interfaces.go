package contracts

import (
	"context"
	"time"
)

// RecordNormalizer converts raw rows into records (S0)
// ⭐ SSOT: S0 정규화 인터페이스
type RecordNormalizer interface {
	NormalizeBatch(raws []RawRecord) ([]Record, []SkippedRecord)
}

// QualityGate measures input coverage (S0)
// ⭐ SSOT: S0 데이터 품질 측정 인터페이스
type QualityGate interface {
	Check(records []Record) *DataQualitySnapshot
}

// SignalBuilder scores records (S2)
// ⭐ SSOT: S2 시그널 생성 인터페이스
type SignalBuilder interface {
	Build(ctx context.Context, records []Record, asOf time.Time) ([]StockSignals, error)
}

// Ranker ranks records by composite score (S4)
// ⭐ SSOT: S4 랭킹 인터페이스
type Ranker interface {
	Rank(signals []StockSignals) ([]ScoredRecord, error)
}

// Aggregator derives summary views from ranked records (S4)
type Aggregator interface {
	Aggregate(ranked []ScoredRecord, skipped int) Aggregates
}
