package contracts

// RankedStock is one entry of the ranked candidate list
// ⭐ SSOT: S4 → S5 랭킹 결과 전달
type RankedStock struct {
	Code  string  `json:"code"`
	Rank  int     `json:"rank"`  // 1-based
	Value float64 `json:"value"` // 정렬 기준 컬럼의 정제된 값
}

// Codes returns codes in ranked order
func Codes(ranked []RankedStock) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Code
	}
	return out
}
