// Package writequeue serializes store writes per user key.
// Package writequeue 按用户串行化存储写操作，避免 SQLite "database is locked"
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 当用户写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity 每用户队列容量
	QueueCapacity int `yaml:"queue-capacity" default:"64"`
	// WriteTimeout 单次写操作等待上限
	WriteTimeout time.Duration `yaml:"write-timeout" default:"30s"`
	// IdleTimeout 空闲队列回收时间
	IdleTimeout time.Duration `yaml:"idle-timeout" default:"10m"`
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity: 64,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type userQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func (q *userQueue) stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// Manager owns one FIFO worker per user key.
// Manager 为每个用户维护一个 FIFO 写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*userQueue
	closed bool

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// New creates write queue manager; zero fields of cfg fall back to DefaultConfig.
// New 创建写队列管理器
func New(cfg Config, logger *zap.Logger) *Manager {
	def := DefaultConfig()
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:      cfg,
		logger:      logger,
		queues:      make(map[string]*userQueue),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Execute runs fn on the key's worker and waits for its result.
// 同一 key 的写操作按提交顺序依次执行
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	q := m.queue(key)
	if q == nil {
		return ErrWriteQueueClosed
	}

	op := writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.ch <- op:
	default:
		return ErrWriteQueueFull
	}

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (m *Manager) queue(key string) *userQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if q, ok := m.queues[key]; ok {
		q.lastUsed.Store(time.Now().UnixNano())
		return q
	}
	q := &userQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	q.lastUsed.Store(time.Now().UnixNano())
	m.queues[key] = q
	go m.worker(q)

	m.logger.Debug("write queue created", zap.String("uid", key))
	return q
}

func (m *Manager) worker(q *userQueue) {
	defer close(q.done)
	for {
		select {
		case op := <-q.ch:
			m.run(q, op)
		case <-q.stopCh:
			// 排空剩余操作
			for {
				select {
				case op := <-q.ch:
					m.run(q, op)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) run(q *userQueue, op writeOp) {
	q.lastUsed.Store(time.Now().UnixNano())
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCleanup:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Manager) cleanup() {
	threshold := time.Now().Add(-m.config.IdleTimeout).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, q := range m.queues {
		if q.lastUsed.Load() < threshold && len(q.ch) == 0 {
			q.stop()
			delete(m.queues, key)
			m.logger.Debug("write queue idle, removed", zap.String("uid", key))
		}
	}
}

// Shutdown stops accepting writes and waits for queued ones to finish.
// Shutdown 停止接收写操作，并等待队列中的操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*userQueue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.queues = map[string]*userQueue{}
	m.mu.Unlock()

	close(m.stopCleanup)
	for _, q := range queues {
		q.stop()
	}

	for _, q := range queues {
		select {
		case <-q.done:
		case <-ctx.Done():
			m.logger.Warn("write queue shutdown timeout")
			return ctx.Err()
		}
	}
	<-m.cleanupDone
	return nil
}

// QueueCount 返回当前活跃队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
