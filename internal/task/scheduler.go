package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/logger"
	"github.com/haierkeys/bento-note-sync/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	LoopInterval() time.Duration   // 执行间隔
	IsStartupRun() bool            // 启动后是否执行一次
}

// StartupDelayer lets a task postpone its startup run, e.g. until local storage is ready.
type StartupDelayer interface {
	StartupDelay() time.Duration
}

// Closer is called once when the scheduler stops.
type Closer interface {
	Close()
}

// Scheduler 任务调度器，基于 cron 的固定间隔调度
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
	cron   *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Tasks 已注册的任务
func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		s.Stop()
	})
}

// Stop stops the ticks, cancels running tasks and waits for them.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		stopped := s.cron.Stop()
		s.cancel()
		<-stopped.Done()
		for _, task := range s.tasks {
			if c, ok := task.(Closer); ok {
				c.Close()
			}
		}
		s.logger.Info("tasks stopped", zap.Int("count", len(s.tasks)))
	})
}

// startTask 启动单个任务
func (s *Scheduler) startTask(task Task) {
	if task.IsStartupRun() {
		var delay time.Duration
		if d, ok := task.(StartupDelayer); ok {
			delay = d.StartupDelay()
		}
		go s.startupRun(task, delay)
	}

	if task.LoopInterval() <= 0 {
		return
	}
	// cron.Every rounds to whole seconds, minimum one second
	s.cron.Schedule(cron.Every(task.LoopInterval()), cron.FuncJob(func() {
		s.logger.Debug("task running", zap.String(logger.FieldTask, task.Name()), zap.Bool("loopRun", true))
		if err := task.Run(s.ctx); err != nil {
			s.logger.Error("task running error",
				zap.String(logger.FieldTask, task.Name()),
				zap.Bool("loopRun", true),
				zap.Error(err))
		}
	}))
}

func (s *Scheduler) startupRun(task Task, delay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task startupRun panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Info("task running", zap.String(logger.FieldTask, task.Name()), zap.Bool("startupRun", true))
	if err := task.Run(s.ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.Bool("startupRun", true),
			zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
