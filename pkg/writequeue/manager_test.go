package writequeue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestExecuteSerializesPerKey(t *testing.T) {
	m := New(Config{}, nil)
	defer m.Shutdown(context.Background())

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		order   []int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Execute(context.Background(), "alice", func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				order = append(order, i)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Execute: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one concurrent write, saw %d", maxSeen)
	}
	if len(order) != 20 {
		t.Errorf("expected 20 writes, got %d", len(order))
	}
}

func TestExecuteReturnsFnError(t *testing.T) {
	m := New(Config{}, nil)
	defer m.Shutdown(context.Background())

	want := errors.New("boom")
	if err := m.Execute(context.Background(), "bob", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestExecuteAfterShutdown(t *testing.T) {
	m := New(Config{}, nil)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	err := m.Execute(context.Background(), "carol", func() error { return nil })
	if !errors.Is(err, ErrWriteQueueClosed) {
		t.Fatalf("expected ErrWriteQueueClosed, got %v", err)
	}
}

func TestCleanupRemovesIdleQueue(t *testing.T) {
	m := New(Config{IdleTimeout: time.Hour}, nil)
	defer m.Shutdown(context.Background())

	_ = m.Execute(context.Background(), "dave", func() error { return nil })
	if m.QueueCount() != 1 {
		t.Fatalf("expected 1 queue, got %d", m.QueueCount())
	}

	m.mu.Lock()
	m.queues["dave"].lastUsed.Store(time.Now().Add(-2 * time.Hour).UnixNano())
	m.mu.Unlock()

	m.cleanup()
	if m.QueueCount() != 0 {
		t.Fatalf("expected idle queue removed, got %d", m.QueueCount())
	}
}
