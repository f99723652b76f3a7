package s1_universe

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// Config holds universe selection criteria
type Config struct {
	IndexID string   `yaml:"index_id" json:"index_id"` // 구성종목을 가져올 지수
	Exclude []string `yaml:"exclude" json:"exclude"`   // 제외 종목 코드
}

// Builder constructs the investable universe
type Builder struct {
	provider contracts.FundamentalsProvider
	config   Config
	logger   *logger.Logger
}

// NewBuilder creates a new Universe Builder
func NewBuilder(provider contracts.FundamentalsProvider, config Config, logger *logger.Logger) *Builder {
	return &Builder{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Build returns index constituents at date minus excluded codes
// ⭐ SSOT: S1 → S2 유니버스 생성
func (b *Builder) Build(ctx context.Context, date time.Time) (*contracts.Universe, error) {
	if b.config.IndexID == "" {
		return nil, fmt.Errorf("universe index id is required")
	}

	members, err := b.provider.IndexMembers(ctx, b.config.IndexID, date)
	if err != nil {
		return nil, fmt.Errorf("get index members %s: %w", b.config.IndexID, err)
	}

	excluded := contracts.NewStockSet(b.config.Exclude...)
	codes := make([]string, 0, len(members))
	skipped := 0
	for _, code := range members {
		if excluded.Has(code) {
			skipped++
			continue
		}
		codes = append(codes, code)
	}

	universe := contracts.NewUniverse(b.config.IndexID, contracts.Day(date), codes)

	b.logger.WithFields(map[string]interface{}{
		"index_id": b.config.IndexID,
		"date":     contracts.DateString(date),
		"members":  len(members),
		"excluded": skipped,
		"universe": universe.Count(),
	}).Info("Universe built")

	if universe.Count() == 0 {
		return universe, fmt.Errorf("index %s has no members at %s: %w",
			b.config.IndexID, contracts.DateString(date), contracts.ErrDataUnavailable)
	}
	return universe, nil
}
