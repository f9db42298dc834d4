package broadcast

import "sync"

// Queue bounded outbound queue implementing Subscriber.
// The owner drains C() and calls Close when the peer goes away.
type Queue struct {
	id     string
	ch     chan Message
	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue holding at most size messages.
func NewQueue(id string, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{id: id, ch: make(chan Message, size)}
}

func (q *Queue) ID() string { return q.id }

// Send enqueues without blocking.
func (q *Queue) Send(msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// C delivery channel, closed by Close.
func (q *Queue) C() <-chan Message {
	return q.ch
}

// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
