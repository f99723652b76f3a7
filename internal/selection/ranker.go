package selection

import (
	"fmt"
	"sort"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// SortPolicy selects the ranking column and direction.
// 기본값은 내림차순: 중립화 잔차가 큰 종목이 상위 (원 전략의 PE 내림차순 정렬을 그대로 따름)
type SortPolicy struct {
	Column    contracts.Field `yaml:"sort_by" json:"sort_by"`
	Ascending bool            `yaml:"ascending" json:"ascending"`
	TopK      int             `yaml:"top_k" json:"top_k"` // 0 = 전체
}

// DefaultSortPolicy returns pe_ratio descending without truncation
func DefaultSortPolicy() SortPolicy {
	return SortPolicy{Column: contracts.FieldPERatio}
}

// Validate checks the policy
func (p SortPolicy) Validate() error {
	if p.Column == "" {
		return fmt.Errorf("sort column is required")
	}
	if p.Column.IsLabel() {
		return fmt.Errorf("sort column %q is categorical", p.Column)
	}
	if p.TopK < 0 {
		return fmt.Errorf("top_k must be >= 0, got %d", p.TopK)
	}
	return nil
}

// Ranker implements S4: ranked list over a cleaned factor table
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	policy SortPolicy
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(policy SortPolicy, logger *logger.Logger) (*Ranker, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{
		policy: policy,
		logger: logger,
	}, nil
}

// Policy returns the sort policy
func (r *Ranker) Policy() SortPolicy {
	return r.policy
}

// Rank sorts stocks by the policy column.
// 값이 없는 종목은 제외, 동점은 종목코드 오름차순
func (r *Ranker) Rank(table *contracts.FactorTable) ([]contracts.RankedStock, error) {
	ranked := make([]contracts.RankedStock, 0, table.Len())
	missing := 0

	for _, code := range table.Codes() {
		v, ok := table.Value(code, r.policy.Column)
		if !ok {
			missing++
			continue
		}
		ranked = append(ranked, contracts.RankedStock{Code: code, Value: v})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Value == b.Value {
			return a.Code < b.Code
		}
		if r.policy.Ascending {
			return a.Value < b.Value
		}
		return a.Value > b.Value
	})

	if r.policy.TopK > 0 && len(ranked) > r.policy.TopK {
		ranked = ranked[:r.policy.TopK]
	}

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	fields := map[string]interface{}{
		"column":    r.policy.Column,
		"ascending": r.policy.Ascending,
		"top_k":     r.policy.TopK,
		"ranked":    len(ranked),
		"missing":   missing,
	}
	if len(ranked) > 0 {
		fields["top_code"] = ranked[0].Code
		fields["top_value"] = ranked[0].Value
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	if len(ranked) == 0 {
		return ranked, fmt.Errorf("ranking by %s: %w", r.policy.Column, contracts.ErrEmptyCandidateSet)
	}
	return ranked, nil
}
