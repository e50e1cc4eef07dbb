package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 실행 결과에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (배치 단위, 상태 없음):
//   S0 → S2 → S4
//   Normalize/Quality  Signals  Rank/Aggregate

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 입력 정규화 및 품질 측정
	// 책임: 헤더 매핑, 숫자 변환, 누락 필드 판정, 커버리지
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageSignals S2: 팩터 점수 계산
	// 책임: 5개 서브스코어 + 신뢰도 (병렬)
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageRanker S4: 종합 점수 산출 및 순위 부여
	// 책임: 서브스코어 합산, 정렬, 집계 뷰
	// 위치: internal/selection/
	StageRanker Stage = "S4_RANKER"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S2")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageSignals:
		return "S2"
	case StageRanker:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "입력 정규화/품질"
	case StageSignals:
		return "팩터 점수 계산"
	case StageRanker:
		return "종합 점수/순위"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageSignals,
		StageRanker,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
