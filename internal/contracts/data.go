package contracts

// DataQualitySnapshot represents input coverage for one batch
// ⭐ SSOT: S0 → 결과 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	TotalRecords int                `json:"total_records"`
	Coverage     map[string]float64 `json:"coverage"`      // 그룹별 커버리지 (0~1)
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`        // 최소 품질 충족 여부
	WorstFields  []Field            `json:"worst_fields"`  // 누락이 많은 필드 순
}

// IsValid checks if the snapshot passed and has records
func (d *DataQualitySnapshot) IsValid() bool {
	return d.Passed && d.TotalRecords > 0
}
