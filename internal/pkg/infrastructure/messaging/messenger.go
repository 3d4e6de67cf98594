package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/diwise/messaging-golang/pkg/messaging"
)

// TransportMessenger selects the diwise messenger, configured from the RABBITMQ_* environment.
const TransportMessenger string = "messenger"

// Messenger publishes topic messages through a diwise messaging context.
type Messenger struct {
	mu sync.Mutex
	mc messaging.MsgContext
}

func NewMessenger(ctx context.Context, serviceName string, logger *slog.Logger) (*Messenger, error) {
	mc, err := messaging.Initialize(ctx, messaging.LoadConfiguration(ctx, serviceName, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to init messenger: %w", err)
	}

	mc.Start()

	return newMessenger(mc), nil
}

func newMessenger(mc messaging.MsgContext) *Messenger {
	return &Messenger{mc: mc}
}

func (m *Messenger) Publish(ctx context.Context, msg TopicMessage) error {
	m.mu.Lock()
	mc := m.mc
	m.mu.Unlock()

	if mc == nil {
		return ErrClosed
	}

	return mc.PublishOnTopic(ctx, msg)
}

// Close stops the messaging context. Calling Close more than once is safe.
func (m *Messenger) Close() error {
	m.mu.Lock()
	mc := m.mc
	m.mc = nil
	m.mu.Unlock()

	if mc != nil {
		mc.Close()
	}
	return nil
}
