// Package safe_close coordinates shutdown of long running goroutines.
// Package safe_close 协调长期运行的 goroutine 安全退出
package safe_close

import "sync"

// SafeClose 关闭协调器
type SafeClose struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	signal   chan struct{}
	once     sync.Once
	closeErr error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{signal: make(chan struct{})}
}

// Attach starts fn in a goroutine. fn must call done when it returns control and
// should stop once closeSignal is closed.
// Attach 启动一个受管理的 goroutine，closeSignal 关闭后应尽快退出并调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.signal)
}

// SendCloseSignal broadcasts the close signal; the first non-nil err is kept.
// SendCloseSignal 广播关闭信号，记录第一个错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	if err != nil && s.closeErr == nil {
		s.closeErr = err
	}
	s.mu.Unlock()
	s.once.Do(func() { close(s.signal) })
}

// Closing reports whether the close signal has been sent.
func (s *SafeClose) Closing() <-chan struct{} {
	return s.signal
}

// WaitClosed blocks until every attached goroutine called done.
// WaitClosed 等待所有 goroutine 退出
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}
