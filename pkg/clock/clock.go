// Package clock abstracts time.Now so timestamps can be pinned in tests.
package clock

import (
	"sync"
	"time"
)

// Clock 时间来源
type Clock interface {
	Now() time.Time
}

type clock struct{}

func (c *clock) Now() time.Time {
	return time.Now()
}

// New returns the wall clock.
func New() Clock {
	return &clock{}
}

// Mock 可手动设置的时钟，用于测试
type Mock struct {
	mu          sync.RWMutex
	currentTime time.Time
}

func NewMock() *Mock {
	return &Mock{currentTime: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Mock) SetNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// SetMillis pins the clock to an epoch-millisecond instant.
func (c *Mock) SetMillis(ms int64) {
	c.SetNow(time.UnixMilli(ms))
}

// Advance moves the clock forward by d.
func (c *Mock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

func (c *Mock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTime
}
