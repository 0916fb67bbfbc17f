package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func TestRegister(t *testing.T) {
	s := New(nil)

	assert.ErrorIs(t, s.Register(nil, time.Second), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, 0), ErrInvalidInterval)
	require.NoError(t, s.Register(&countingJob{name: "a"}, time.Second))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, time.Second), ErrJobAlreadyExists)
}

func TestRunNow_RecordsResult(t *testing.T) {
	s := New(nil)
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.Register(ok, time.Hour))
	require.NoError(t, s.Register(bad, time.Hour))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = s.RunNow(context.Background(), "bad")
	assert.EqualError(t, err, "boom")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	infos := s.ListJobs()
	require.Len(t, infos, 2)
	assert.Equal(t, "bad", infos[0].Name)
	assert.EqualValues(t, 1, infos[0].FailCount)
	assert.EqualValues(t, 1, infos[1].RunCount)
	assert.EqualValues(t, 0, infos[1].FailCount)
}

func TestRunNow_NoOverlap(t *testing.T) {
	s := New(nil)
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, time.Hour))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.RunNow(context.Background(), "slow")
	}()

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(job.block)
	wg.Wait()
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	s.RunOnStart = true
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, 10*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(nil)
	s.RunOnStart = true
	job := &countingJob{name: "blocked", block: make(chan struct{})}
	require.NoError(t, s.Register(job, time.Hour))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	infos := s.ListJobs()
	require.NotNil(t, infos[0].LastResult)
	assert.ErrorIs(t, infos[0].LastResult.Error, context.Canceled)
}
