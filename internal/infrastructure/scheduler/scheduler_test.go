package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(DefaultConfig(), zaptest.NewLogger(t))
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "a", Spec: "@every 1h", Run: noop}))

	err := s.Register(Job{Name: "a", Spec: "@every 1h", Run: noop})
	assert.ErrorIs(t, err, ErrDuplicateJob)

	err = s.Register(Job{Name: "b", Spec: "not a cron", Run: noop})
	assert.Error(t, err)

	err = s.Register(Job{Name: "c", Spec: "@every 1h"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()
	err = s.Register(Job{Name: "d", Spec: "@every 1h", Run: noop})
	assert.ErrorIs(t, err, ErrSchedulerRunning)
}

func TestScheduler_RunNowRecordsState(t *testing.T) {
	s := NewScheduler(DefaultConfig(), zaptest.NewLogger(t))
	fail := true
	require.NoError(t, s.Register(Job{
		Name: "flaky",
		Spec: "0 3 * * *",
		Run: func(context.Context) error {
			if fail {
				return errors.New("database unavailable")
			}
			return nil
		},
	}))

	err := s.RunNow("flaky")
	require.Error(t, err)
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobStatusFailed, jobs[0].Status)
	assert.Equal(t, "database unavailable", jobs[0].Error)

	fail = false
	require.NoError(t, s.RunNow("flaky"))
	jobs = s.Jobs()
	assert.Equal(t, JobStatusSuccess, jobs[0].Status)
	assert.Empty(t, jobs[0].Error)
	assert.Equal(t, 2, jobs[0].Runs)
	assert.Equal(t, 1, jobs[0].Failures)

	assert.ErrorIs(t, s.RunNow("missing"), ErrJobNotFound)
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := NewScheduler(Config{JobTimeout: 20 * time.Millisecond}, zap.NewNop())
	require.NoError(t, s.Register(Job{
		Name: "slow",
		Spec: "@every 1h",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	err := s.RunNow("slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := NewScheduler(DefaultConfig(), zaptest.NewLogger(t))
	var runs atomic.Int32
	require.NoError(t, s.Register(Job{
		Name: "tick",
		Spec: "@every 1s",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	s.Start(context.Background())
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].NextRunAt)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}

type countingExpirer struct{ calls int }

func (c *countingExpirer) ExpireStale(context.Context) (int, error) {
	c.calls++
	return 2, nil
}

type failingPurger struct{}

func (failingPurger) Purge(context.Context) (int64, error) { return 0, errors.New("locked") }

func TestMaintenanceJobs(t *testing.T) {
	orders := &countingExpirer{}
	specs := DefaultSpecs()
	specs.OutboxReport = ""

	jobs := MaintenanceJobs(specs, orders, failingPurger{}, nil, zap.NewNop())

	require.Len(t, jobs, 2)
	assert.Equal(t, JobExpireOrders, jobs[0].Name)
	assert.Equal(t, JobPurgeNotifications, jobs[1].Name)

	s := NewScheduler(DefaultConfig(), zap.NewNop())
	for _, job := range jobs {
		require.NoError(t, s.Register(job))
	}
	require.NoError(t, s.RunNow(JobExpireOrders))
	assert.Equal(t, 1, orders.calls)
	assert.Error(t, s.RunNow(JobPurgeNotifications))
}
