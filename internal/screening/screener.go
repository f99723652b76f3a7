package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// Combine is the composition operator over active screens
type Combine string

const (
	CombineIntersection Combine = "intersection"
	CombineUnion        Combine = "union"
)

// EmptyPolicy decides the outcome when no screen is active
type EmptyPolicy string

const (
	EmptyPassAll EmptyPolicy = "pass_all" // 유니버스 전체 통과
	EmptyFail    EmptyPolicy = "fail"     // ErrNoActiveScreens
)

// Policy is the declarative screen activation
type Policy struct {
	Active      []string
	Combine     Combine
	EmptyPolicy EmptyPolicy
}

// Outcome is the composed screening result of one cycle
type Outcome struct {
	Candidates contracts.StockSet
	Results    []*contracts.ScreenResult // 활성 스크린 순서
}

// Screener implements S2: active predicates combined by policy
// ⭐ SSOT: S2 스크리닝 조합 로직은 여기서만
type Screener struct {
	registry *Registry
	policy   Policy
	logger   *logger.Logger
}

// NewScreener validates the policy against the registry
func NewScreener(registry *Registry, policy Policy, log *logger.Logger) (*Screener, error) {
	for _, id := range policy.Active {
		if !registry.Has(id) {
			return nil, fmt.Errorf("unknown screen %q (known: %v)", id, registry.IDs())
		}
	}
	switch policy.Combine {
	case "":
		policy.Combine = CombineIntersection
	case CombineIntersection, CombineUnion:
	default:
		return nil, fmt.Errorf("unknown combine %q", policy.Combine)
	}
	switch policy.EmptyPolicy {
	case "":
		policy.EmptyPolicy = EmptyPassAll
	case EmptyPassAll, EmptyFail:
	default:
		return nil, fmt.Errorf("unknown empty policy %q", policy.EmptyPolicy)
	}

	return &Screener{registry: registry, policy: policy, logger: log}, nil
}

// Policy returns the normalized policy
func (s *Screener) Policy() Policy {
	return s.policy
}

// Screen runs every active predicate and composes the results.
// 후보가 비면 ErrEmptyCandidateSet (Outcome은 기록용으로 함께 반환)
func (s *Screener) Screen(ctx context.Context, in Input) (*Outcome, error) {
	out := &Outcome{}

	if len(s.policy.Active) == 0 {
		if s.policy.EmptyPolicy == EmptyFail {
			return out, fmt.Errorf("screening: %w", contracts.ErrNoActiveScreens)
		}
		out.Candidates = in.Universe.Set()
		s.logger.WithFields(map[string]interface{}{
			"policy":     s.policy.EmptyPolicy,
			"candidates": out.Candidates.Len(),
		}).Warn("No active screens, passing whole universe")
		if out.Candidates.Len() == 0 {
			return out, fmt.Errorf("screening: %w", contracts.ErrEmptyCandidateSet)
		}
		return out, nil
	}

	var combined contracts.StockSet
	for _, id := range s.policy.Active {
		pred, _ := s.registry.Get(id)

		start := time.Now()
		result, err := pred.Screen(ctx, in)
		if err != nil {
			return out, fmt.Errorf("screen %s: %w", id, err)
		}
		out.Results = append(out.Results, result)

		s.logger.WithFields(map[string]interface{}{
			"screen":   id,
			"passed":   result.PassedCount(),
			"excluded": result.Excluded,
			"duration": time.Since(start).String(),
		}).Info("Screen completed")

		switch {
		case combined == nil:
			combined = result.Passed
		case s.policy.Combine == CombineUnion:
			combined = combined.Union(result.Passed)
		default:
			combined = combined.Intersect(result.Passed)
		}
	}

	// 유니버스 밖 종목은 제외
	out.Candidates = combined.Intersect(in.Universe.Set())

	s.logger.WithFields(map[string]interface{}{
		"universe":   in.Universe.Count(),
		"active":     s.policy.Active,
		"combine":    s.policy.Combine,
		"candidates": out.Candidates.Len(),
	}).Info("Screening completed")

	if out.Candidates.Len() == 0 {
		return out, fmt.Errorf("screening: %w", contracts.ErrEmptyCandidateSet)
	}
	return out, nil
}
