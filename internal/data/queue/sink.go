package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"serialguard/internal/core/ports"
)

const (
	DefaultCapacity  = 256
	DefaultBatchSize = 32
	pollInterval     = 250 * time.Millisecond
)

// AsyncSink queues notifications and delivers them to next from a single
// worker goroutine, preserving order.
type AsyncSink struct {
	next  ports.NotificationSink
	queue *MemoryQueue
	batch int

	mu      sync.Mutex
	cond    *sync.Cond
	pending int

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ ports.NotificationSink = (*AsyncSink)(nil)

func NewAsyncSink(next ports.NotificationSink, capacity, batch int) *AsyncSink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &AsyncSink{
		next:   next,
		queue:  NewMemoryQueue(capacity),
		batch:  batch,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run(ctx)
	return s
}

// Notify enqueues n. When the queue is full n is dropped and logged.
func (s *AsyncSink) Notify(_ context.Context, n ports.Notification) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	if s.queue.Enqueue(n) == EnqueueDropped {
		slog.Warn("notification queue full, dropping", "id", n.ID, "path", n.Path)
		s.delivered(1)
	}
}

// Sync blocks until every accepted notification has been delivered.
func (s *AsyncSink) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.cond.Wait()
	}
}

// Pending reports queued notifications not yet delivered.
func (s *AsyncSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Close stops accepting notifications and drains what is queued.
func (s *AsyncSink) Close() error {
	s.once.Do(func() {
		_ = s.queue.Close()
		<-s.done
		s.cancel()
	})
	return nil
}

func (s *AsyncSink) run(ctx context.Context) {
	defer close(s.done)
	for {
		batch, err := s.queue.DequeueBatch(ctx, s.batch, pollInterval)
		for _, n := range batch {
			s.deliver(ctx, n)
		}
		s.delivered(len(batch))
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			slog.Warn("notification queue stopped", "error", err)
			return
		}
	}
}

func (s *AsyncSink) deliver(ctx context.Context, n ports.Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("queued notification sink panicked", "sink", fmt.Sprintf("%T", s.next), "panic", r)
		}
	}()
	s.next.Notify(ctx, n)
}

func (s *AsyncSink) delivered(count int) {
	if count == 0 {
		return
	}
	s.mu.Lock()
	s.pending -= count
	s.mu.Unlock()
	s.cond.Broadcast()
}
