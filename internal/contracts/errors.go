package contracts

import "errors"

// ⭐ SSOT: 사이클 에러 종류는 여기서만 정의
//
// 종목 단위 ErrDataUnavailable / ErrDegenerateComputation 은 제외 처리로 흡수되고,
// 나머지는 사이클 전체를 중단시킨다 (주문 없음, 기존 보유 유지).
var (
	// ErrDataUnavailable 필수 필드/날짜 데이터 없음
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrDegenerateComputation 0/음수 분모, 분산 0 등
	ErrDegenerateComputation = errors.New("degenerate computation")

	// ErrEmptyCandidateSet 스크리닝 결과가 비어 있음
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrEmptyTarget 목표 종목 수가 0 (동일 비중 나눗셈 불가)
	ErrEmptyTarget = errors.New("empty rebalance target")

	// ErrNoActiveScreens 활성 스크린 없음 + empty_policy=fail
	ErrNoActiveScreens = errors.New("no active screens")

	// ErrBondYieldUndefined 기준일이 금리 시계열 시작 이전
	ErrBondYieldUndefined = errors.New("bond yield undefined for date")
)

// IsCycleAbort reports whether err aborts the whole cycle
func IsCycleAbort(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrDataUnavailable) &&
		!errors.Is(err, ErrDegenerateComputation)
}
