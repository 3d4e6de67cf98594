package events

import (
	"context"
	"sync"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
)

const DefaultQueueSize int = 256

type queued struct {
	ctx context.Context
	msg TopicMessage
}

// Queue runs a handler on its own goroutine, fed through a bounded buffer. Enqueue never
// blocks: messages that arrive while the buffer is full are logged and dropped.
type Queue struct {
	name  string
	h     Handler
	items chan queued
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewQueue(name string, size int, h Handler) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}

	q := &Queue{
		name:  name,
		h:     h,
		items: make(chan queued, size),
		done:  make(chan struct{}),
	}

	go q.run()

	return q
}

// Enqueue has the Handler signature so that it can be subscribed to a Bus directly.
func (q *Queue) Enqueue(ctx context.Context, msg TopicMessage) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return
	}

	select {
	case q.items <- queued{ctx: context.WithoutCancel(ctx), msg: msg}:
	default:
		log := logging.GetFromContext(ctx)
		log.Error().Str("queue", q.name).Str("topic", msg.TopicName()).Msg("queue is full, dropping message")
	}
}

// Close stops accepting messages and waits for the buffered ones to be handled, or for
// ctx to expire. Calling Close more than once is safe.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for item := range q.items {
		deliver(item.ctx, q.h, item.msg)
	}
}
