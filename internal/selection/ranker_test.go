package selection

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

func rankTable() *contracts.FactorTable {
	t := contracts.NewFactorTable(contracts.FieldPERatio)
	t.Set("A", contracts.FieldPERatio, 0.5)
	t.Set("B", contracts.FieldPERatio, 1.5)
	t.Set("C", contracts.FieldPERatio, -0.7)
	t.Set("D", contracts.FieldPERatio, 0.5)
	t.Set("E", contracts.FieldPERatio, math.NaN())
	return t
}

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name   string
		policy SortPolicy
		want   []string
	}{
		{"descending default", DefaultSortPolicy(), []string{"B", "A", "D", "C"}},
		{"ascending", SortPolicy{Column: contracts.FieldPERatio, Ascending: true}, []string{"C", "A", "D", "B"}},
		{"top k", SortPolicy{Column: contracts.FieldPERatio, TopK: 2}, []string{"B", "A"}},
		{"top k larger than list", SortPolicy{Column: contracts.FieldPERatio, TopK: 10}, []string{"B", "A", "D", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRanker(tt.policy, logger.NewNop())
			require.NoError(t, err)

			ranked, err := r.Rank(rankTable())
			require.NoError(t, err)
			assert.Equal(t, tt.want, contracts.Codes(ranked))
			for i, rs := range ranked {
				assert.Equal(t, i+1, rs.Rank)
			}
		})
	}
}

func TestRanker_EmptyResult(t *testing.T) {
	r, err := NewRanker(SortPolicy{Column: contracts.FieldMarketCap}, logger.NewNop())
	require.NoError(t, err)

	_, err = r.Rank(rankTable())
	assert.True(t, errors.Is(err, contracts.ErrEmptyCandidateSet))
}

func TestSortPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultSortPolicy().Validate())
	assert.Error(t, SortPolicy{}.Validate())
	assert.Error(t, SortPolicy{Column: contracts.FieldIndustry}.Validate())
	assert.Error(t, SortPolicy{Column: contracts.FieldPERatio, TopK: -1}.Validate())
}
