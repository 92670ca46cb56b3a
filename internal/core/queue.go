package core

import (
	"sync"

	"github.com/gammazero/deque"

	"github.com/vovakirdan/linechat/internal/proto"
)

// MessageQueue is an unbounded FIFO of outbound frames owned by one user.
type MessageQueue struct {
	mu     sync.Mutex
	items  deque.Deque[proto.Message]
	closed bool

	ready chan struct{}
	done  chan struct{}
}

// NewMessageQueue returns an empty, open queue.
func NewMessageQueue() *MessageQueue {
	return &MessageQueue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Enqueue appends msg and wakes one waiting consumer. It never blocks.
// Messages enqueued after Shutdown are dropped.
func (q *MessageQueue) Enqueue(msg proto.Message) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items.PushBack(msg)
	q.mu.Unlock()

	q.signal()
}

// Dequeue blocks until a message is available or the queue is shut down.
// ok is false once the queue has been shut down.
func (q *MessageQueue) Dequeue() (msg proto.Message, ok bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return proto.Message{}, false
		}
		if q.items.Len() > 0 {
			msg = q.items.PopFront()
			more := q.items.Len() > 0
			q.mu.Unlock()
			if more {
				// pass the wakeup on to another consumer
				q.signal()
			}
			return msg, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
		}
	}
}

// Shutdown releases blocked consumers and makes every later Dequeue return
// immediately. Pending messages are discarded. Safe to call more than once.
func (q *MessageQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.items.Clear()
	close(q.done)
}

// Len reports the number of pending messages.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *MessageQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
