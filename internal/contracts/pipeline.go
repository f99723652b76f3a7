package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (리밸런싱 사이클 1회):
//   S0 → S1 → S2 → S3 → S4 → S5 → S6
//   Data  Universe  Screening  Factor  Selection  Rebalance  Execution

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 캘린더/펀더멘털/가격 데이터 조회
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageUniverse S1: 지수 구성종목 (초기화 시 1회)
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageScreening S2: 가치투자 조건 스크리닝 (활성 조건 교집합)
	// 위치: internal/screening/
	StageScreening Stage = "S2_SCREENING"

	// StageFactor S3: 팩터 정제 (결측 대체 → 윈저라이즈 → 표준화 → 중립화)
	// 위치: internal/factor/
	StageFactor Stage = "S3_FACTOR"

	// StageSelection S4: 정렬 및 최종 후보 리스트
	// 위치: internal/selection/
	StageSelection Stage = "S4_SELECTION"

	// StageRebalance S5: 동일 비중 목표 금액 산출
	// 위치: internal/portfolio/
	StageRebalance Stage = "S5_REBALANCE"

	// StageExecution S6: 주문 제출
	// 위치: internal/execution/
	StageExecution Stage = "S6_EXECUTION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageScreening:
		return "S2"
	case StageFactor:
		return "S3"
	case StageSelection:
		return "S4"
	case StageRebalance:
		return "S5"
	case StageExecution:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageUniverse,
		StageScreening,
		StageFactor,
		StageSelection,
		StageRebalance,
		StageExecution,
	}
}
