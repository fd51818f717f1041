package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/service"
	"github.com/haierkeys/bento-note-sync/pkg/clock"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type taskMockSettings struct {
	service.SettingService
	mu       sync.Mutex
	settings domain.BackupSettings
	observer service.SettingObserver
}

func (m *taskMockSettings) Get(ctx context.Context) (domain.BackupSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *taskMockSettings) Subscribe(fn service.SettingObserver) func() {
	m.observer = fn
	return func() { m.observer = nil }
}

func (m *taskMockSettings) current() domain.BackupSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *taskMockSettings) set(fn func(s *domain.BackupSettings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.settings)
}

type taskMockBackup struct {
	service.BackupService
	settings *taskMockSettings
	clock    clock.Clock
	runs     atomic.Int32
	err      error
}

func (m *taskMockBackup) RunScheduledBackup(ctx context.Context, uid string) (bool, error) {
	m.runs.Add(1)
	if m.err != nil {
		return false, m.err
	}
	now := m.clock.Now().UnixMilli()
	m.settings.set(func(s *domain.BackupSettings) { s.LastBackupTime = now })
	return true, nil
}

func newTaskFixture(t *testing.T, interval domain.BackupInterval, last int64) (*BackupTask, *taskMockSettings, *taskMockBackup, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	settings := &taskMockSettings{settings: domain.BackupSettings{
		Interval:       interval,
		Location:       domain.LocationWebDAV,
		LastBackupTime: last,
	}}
	backup := &taskMockBackup{settings: settings, clock: clk}
	task := NewBackupTask(backup, settings, clk, BackupTaskConfig{UID: "u1", Tick: time.Minute, StartupDelay: 10 * time.Millisecond}, zap.NewNop())
	t.Cleanup(task.Close)
	return task, settings, backup, clk
}

func TestIsDue(t *testing.T) {
	hour := time.Hour
	tests := []struct {
		name     string
		now      int64
		last     int64
		interval time.Duration
		want     bool
	}{
		{"never backed up", 1000, 0, hour, true},
		{"off", 1000, 0, 0, false},
		{"just backed up", 1000, 1000, hour, false},
		{"exactly one interval", hour.Milliseconds() + 1, 1, hour, false},
		{"one ms past", hour.Milliseconds() + 2, 1, hour, true},
		{"long asleep", 10 * hour.Milliseconds(), 1, hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.now, tt.last, tt.interval))
		})
	}
}

func TestIsDue_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	intervals := []interface{}{}
	for _, i := range domain.Intervals() {
		if i.Enabled() {
			intervals = append(intervals, i.Duration())
		}
	}

	properties.Property("due iff strictly more than one interval elapsed", prop.ForAll(
		func(last int64, elapsed int64, interval time.Duration) bool {
			now := last + elapsed
			return IsDue(now, last, interval) == (elapsed > interval.Milliseconds())
		},
		gen.Int64Range(1, 1<<40),
		gen.Int64Range(0, 48*time.Hour.Milliseconds()),
		gen.OneConstOf(intervals...),
	))

	properties.TestingRun(t)
}

func TestBackupTask_JustBackedUpIsNotDue(t *testing.T) {
	for _, interval := range domain.Intervals() {
		clk := clock.NewMock()
		task, _, backup, _ := newTaskFixture(t, interval, clk.Now().UnixMilli())
		require.NoError(t, task.Run(context.Background()))
		assert.Zero(t, backup.runs.Load(), interval)
	}
}

func TestBackupTask_MissedIntervalsBackUpOnce(t *testing.T) {
	clk := clock.NewMock()
	last := clk.Now().Add(-3*time.Hour - time.Minute).UnixMilli()
	task, _, backup, taskClock := newTaskFixture(t, domain.Interval1h, last)

	for i := 0; i < 5; i++ {
		require.NoError(t, task.Run(context.Background()))
		taskClock.Advance(time.Minute)
	}
	assert.Equal(t, int32(1), backup.runs.Load())

	// next natural due time
	taskClock.Advance(time.Hour)
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, int32(2), backup.runs.Load())
}

func TestBackupTask_IdleDoesNothing(t *testing.T) {
	task, _, backup, _ := newTaskFixture(t, domain.IntervalOff, 0)
	require.NoError(t, task.Run(context.Background()))
	assert.Zero(t, backup.runs.Load())
	assert.Equal(t, StateIdle, task.State())
}

func TestBackupTask_FailureKeepsTicking(t *testing.T) {
	task, _, backup, clk := newTaskFixture(t, domain.Interval15m, 0)
	backup.err = errors.New("webdav unreachable")

	require.NoError(t, task.Run(context.Background()), "failures never leave the task")
	clk.Advance(time.Minute)
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, int32(2), backup.runs.Load(), "a failed attempt is retried on the next tick")
	assert.Equal(t, StateArmed, task.State())
}

func TestBackupTask_ArmingChecksAfterDelay(t *testing.T) {
	task, settings, backup, _ := newTaskFixture(t, domain.IntervalOff, 0)
	require.NotNil(t, settings.observer)

	old := settings.current()
	settings.set(func(s *domain.BackupSettings) { s.Interval = domain.Interval6h })
	settings.observer(old, settings.current())

	assert.Equal(t, StateArmed, task.State())
	require.Eventually(t, func() bool { return backup.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// disarming
	armed := settings.current()
	settings.set(func(s *domain.BackupSettings) { s.Interval = domain.IntervalOff })
	settings.observer(armed, settings.current())
	assert.Equal(t, StateIdle, task.State())
}

func TestBackupTask_CloseUnsubscribes(t *testing.T) {
	task, settings, _, _ := newTaskFixture(t, domain.IntervalOff, 0)
	task.Close()
	assert.Nil(t, settings.observer)
}
