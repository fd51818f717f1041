package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/safe_close"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	runs     atomic.Int32
	loop     time.Duration
	startup  bool
	delay    time.Duration
	closed   atomic.Bool
	panicOne bool
}

func (c *countingTask) Name() string                { return "counting" }
func (c *countingTask) LoopInterval() time.Duration { return c.loop }
func (c *countingTask) IsStartupRun() bool          { return c.startup }
func (c *countingTask) StartupDelay() time.Duration { return c.delay }
func (c *countingTask) Close()                      { c.closed.Store(true) }

func (c *countingTask) Run(ctx context.Context) error {
	n := c.runs.Add(1)
	if c.panicOne && n == 1 {
		panic("boom")
	}
	return nil
}

func TestScheduler_StartupRunAfterDelay(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{startup: true, delay: 20 * time.Millisecond}
	s.AddTask(task)
	s.Start()

	assert.Zero(t, task.runs.Load())
	require.Eventually(t, func() bool { return task.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
	assert.True(t, task.closed.Load())
}

func TestScheduler_StopCancelsPendingStartup(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{startup: true, delay: time.Hour}
	s.AddTask(task)
	s.Start()

	s.Stop()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, task.runs.Load())
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestScheduler_TicksSurvivePanics(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{loop: time.Second, panicOne: true}
	s.AddTask(task)
	s.Start()
	defer func() {
		sc.SendCloseSignal(nil)
		_ = sc.WaitClosed()
	}()

	require.Eventually(t, func() bool { return task.runs.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestScheduler_NoTasks(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	s.Start()
	s.Stop()
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
}
