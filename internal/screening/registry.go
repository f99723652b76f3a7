package screening

import (
	"fmt"
	"sort"
)

// Registry holds predicates by id
// ⭐ SSOT: 스크린 ID 목록은 여기서만 관리 (설정 검증, CLI 목록)
type Registry struct {
	predicates map[string]Predicate
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string]Predicate)}
}

// DefaultRegistry registers every built-in predicate with the given thresholds
func DefaultRegistry(p Params) *Registry {
	r := NewRegistry()
	for _, pred := range []Predicate{
		newPEVsBondYield(p),
		&peHistoryScreen{fraction: p.PEMaxFraction, window: p.PEMaxWindow},
		&dividendScreen{ratio: p.DividendRatio, lookbackDays: p.DividendLookbackDays},
		newMarketCapVsTangibleAssets(p),
		newMarketCapVsNetCurrentAssets(p),
		newLiabilityVsTangibleAssets(p),
		newCurrentRatio(p),
		newLiabilityVsNetCurrentAssets(p),
		&cagrScreen{years: p.CAGRYears, min: p.CAGRMin},
		&lossYearsScreen{years: p.LossYears, threshold: p.LossThreshold, max: p.MaxLossYears},
	} {
		// 내장 ID는 중복되지 않음
		_ = r.Register(pred)
	}
	return r
}

// Register adds a predicate; duplicate ids are rejected
func (r *Registry) Register(p Predicate) error {
	if _, exists := r.predicates[p.ID()]; exists {
		return fmt.Errorf("screen %q already registered", p.ID())
	}
	r.predicates[p.ID()] = p
	return nil
}

// Get returns a predicate by id
func (r *Registry) Get(id string) (Predicate, bool) {
	p, ok := r.predicates[id]
	return p, ok
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.predicates[id]
	return ok
}

// IDs returns all registered ids, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.predicates))
	for id := range r.predicates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuiltinIDs lists the ids of DefaultRegistry
func BuiltinIDs() []string {
	return DefaultRegistry(DefaultParams()).IDs()
}
