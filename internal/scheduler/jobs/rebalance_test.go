package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/brain"
	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

type fakeTicker struct {
	ticks []time.Time
	err   error
}

func (f *fakeTicker) Tick(ctx context.Context, now time.Time) (*brain.RunResult, error) {
	f.ticks = append(f.ticks, now)
	if f.err != nil {
		return &brain.RunResult{Status: brain.StatusAborted}, f.err
	}
	return &brain.RunResult{RunID: "r1", Month: len(f.ticks), Status: brain.StatusSkipped}, nil
}

func TestRebalanceJob_Run(t *testing.T) {
	ticker := &fakeTicker{}
	job := NewRebalanceJob(ticker, "", logger.NewNop())
	fixed := time.Date(2015, 4, 1, 9, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	assert.Equal(t, DefaultRebalanceSchedule, job.Schedule())
	assert.Equal(t, 0, job.MaxRetries())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []time.Time{fixed}, ticker.ticks)
}

func TestRebalanceJob_PropagatesAbort(t *testing.T) {
	ticker := &fakeTicker{err: contracts.ErrEmptyCandidateSet}
	job := NewRebalanceJob(ticker, "@monthly", logger.NewNop())

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrEmptyCandidateSet))
	assert.Equal(t, "@monthly", job.Schedule())
}
