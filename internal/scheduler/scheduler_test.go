package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/pkg/logger"
)

type countingJob struct {
	name  string
	fails int // 처음 fails번 실패
	calls int
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return "0 0 9 1 * *" }

func (j *countingJob) Run(ctx context.Context) error {
	j.calls++
	if j.calls <= j.fails {
		return errors.New("boom")
	}
	return nil
}

type noRetryJob struct{ countingJob }

func (j *noRetryJob) MaxRetries() int { return 0 }

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.NewNop(), WithRetries(2, time.Millisecond))
	job := &countingJob{name: "flaky", fails: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, job.calls)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestScheduler_RetryPolicyOverride(t *testing.T) {
	s := New(logger.NewNop(), WithRetries(3, time.Millisecond))
	job := &noRetryJob{countingJob{name: "rebalance", fails: 1}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("rebalance")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, 1, job.calls)

	stats := s.GetJobStats()["rebalance"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(&countingJob{name: "a"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a"}))
	require.NoError(t, s.AddJob(&countingJob{name: "b"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.RunJob("a")
	assert.Error(t, err)
}

func TestScheduler_NextRun(t *testing.T) {
	loc := time.UTC
	s := New(logger.NewNop(), WithLocation(loc))
	require.NoError(t, s.AddJob(&countingJob{name: "monthly"}))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("monthly")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Day())
	assert.Equal(t, 9, next.Hour())
	assert.True(t, next.After(time.Now()))
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), 50)
	assert.Equal(t, 0.5, h.GetSuccessRate())
}
