// Package queue moves notifications off the check goroutines so slow sinks
// such as the sqlite history never delay a check.
package queue

import (
	"context"
	"io"
	"sync"
	"time"

	"serialguard/internal/core/ports"
)

type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	EnqueueDropped  EnqueueResult = "dropped"
)

// MemoryQueue is a bounded FIFO of notifications. A full or closed queue
// drops instead of blocking.
type MemoryQueue struct {
	ch     chan ports.Notification
	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryQueue{ch: make(chan ports.Notification, capacity)}
}

func (q *MemoryQueue) Enqueue(n ports.Notification) EnqueueResult {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return EnqueueDropped
	}
	select {
	case q.ch <- n:
		return EnqueueAccepted
	default:
		return EnqueueDropped
	}
}

// DequeueBatch waits up to wait for a first item, then takes whatever else
// is ready up to maxItems. A non-positive wait never blocks. io.EOF means
// the queue is closed and drained; it may accompany the final batch.
func (q *MemoryQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]ports.Notification, error) {
	if maxItems <= 0 {
		maxItems = 1
	}
	batch := make([]ports.Notification, 0, maxItems)

	if wait <= 0 {
		select {
		case n, ok := <-q.ch:
			if !ok {
				return nil, io.EOF
			}
			batch = append(batch, n)
		default:
			return nil, nil
		}
	} else {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case n, ok := <-q.ch:
			if !ok {
				return nil, io.EOF
			}
			batch = append(batch, n)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		}
	}

	for len(batch) < maxItems {
		select {
		case n, ok := <-q.ch:
			if !ok {
				return batch, io.EOF
			}
			batch = append(batch, n)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

func (q *MemoryQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ch)
}
