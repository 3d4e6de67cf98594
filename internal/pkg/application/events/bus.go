package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
)

type TopicMessage interface {
	ContentType() string
	TopicName() string
	Body() []byte
}

type Handler func(ctx context.Context, msg TopicMessage)

// Bus delivers messages synchronously to subscribers in registration order. A panicking
// subscriber is logged and does not prevent delivery to the subscribers after it.
type Bus interface {
	Subscribe(topic string, h Handler)
	SubscribeAll(h Handler)
	Publish(ctx context.Context, msg TopicMessage)
}

type subscription struct {
	topic string
	h     Handler
}

type bus struct {
	mu   sync.RWMutex
	subs []subscription
}

func NewBus() Bus {
	return &bus{}
}

func (b *bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{topic: topic, h: h})
}

// SubscribeAll registers a handler for every topic.
func (b *bus) SubscribeAll(h Handler) {
	b.Subscribe("", h)
}

func (b *bus) Publish(ctx context.Context, msg TopicMessage) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	topic := msg.TopicName()

	for _, s := range subs {
		if s.topic != "" && s.topic != topic {
			continue
		}
		deliver(ctx, s.h, msg)
	}
}

func deliver(ctx context.Context, h Handler, msg TopicMessage) {
	defer func() {
		if r := recover(); r != nil {
			log := logging.GetFromContext(ctx)
			log.Error().Str("topic", msg.TopicName()).Err(fmt.Errorf("%v", r)).Msg("subscriber panicked")
		}
	}()

	h(ctx, msg)
}
