package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 앞의 N회 실패
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 */15 * * * *"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	err := s.AddJob(&fakeJob{name: "a", schedule: "@hourly"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&fakeJob{name: "bad", schedule: "every minute"})
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := New(nil).WithRetry(2, time.Millisecond)
	job := &fakeJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int32(3), job.calls.Load())

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := New(nil).WithRetry(1, time.Millisecond)
	job := &fakeJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("broken")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)
	assert.Equal(t, int32(2), job.calls.Load())

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	assert.Equal(t, 0.0, history.GetSuccessRate())
	assert.Len(t, history.GetFailedResults(), 1)
}

func TestRunJob_LogsRetriesAndFailure(t *testing.T) {
	var buf bytes.Buffer
	s := New(logger.NewWithWriter(&buf, "debug")).WithRetry(1, time.Millisecond)
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@hourly", failures: 100}))

	_, err := s.RunJob("broken")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Retrying broken in 1ms (1/1)")
	assert.Contains(t, out, "Job failed after all retries: transient")
}

func TestRunJob_Unknown(t *testing.T) {
	_, err := New(nil).RunJob("nope")
	assert.Error(t, err)
}

func TestStopCancelsRetryWait(t *testing.T) {
	s := New(nil).WithRetry(5, time.Hour)
	job := &fakeJob{name: "slow", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJob("slow")
		done <- result
	}()

	require.Eventually(t, func() bool { return job.calls.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case result := <-done:
		assert.False(t, result.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetLatestResults(500), 100)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
