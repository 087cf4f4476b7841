package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealist/surrealist/internal/testutil"
)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestRegisterTask_DuplicateID(t *testing.T) {
	s := newScheduler(t)
	task := TaskConfig{ID: "a", Name: "A", Cron: "0 0 * * *", Func: func(context.Context) error { return nil }}

	require.NoError(t, s.RegisterTask(task))
	assert.Error(t, s.RegisterTask(task))
}

func TestRegisterTask_InvalidCron(t *testing.T) {
	s := newScheduler(t)
	err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestStart_RunsStartupTasks(t *testing.T) {
	s := newScheduler(t)
	var runs atomic.Int32

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "boot", Name: "Boot", Cron: "0 0 * * *", RunOnStart: true,
		Func: func(context.Context) error { runs.Add(1); return nil },
	}))
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "idle", Name: "Idle", Cron: "0 0 * * *",
		Func: func(context.Context) error { runs.Add(10); return nil },
	}))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_FailingTaskDoesNotStopOthers(t *testing.T) {
	s := newScheduler(t)
	var runs atomic.Int32

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "fail", Name: "Fail", Cron: "0 0 * * *", RunOnStart: true,
		Func: func(context.Context) error { runs.Add(1); return errors.New("boom") },
	}))
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "ok", Name: "OK", Cron: "0 0 * * *", RunOnStart: true,
		Func: func(context.Context) error { runs.Add(1); return nil },
	}))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestStop_CancelsRunningTask(t *testing.T) {
	s, err := New(testutil.NopLogger())
	require.NoError(t, err)

	started := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "long", Name: "Long", Cron: "0 0 * * *", RunOnStart: true,
		Func: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	s.Start()
	<-started

	done := make(chan struct{})
	go func() { _ = s.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not cancel the running task")
	}
}
