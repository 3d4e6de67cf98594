package application

import (
	"context"
	"errors"
	"sync"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/alarms"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/devicemanagement"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/events"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/webevents"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/messaging"
)

//go:generate moq -rm -out publisher_mock.go . Publisher

// Publisher forwards bus messages to an external broker.
type Publisher interface {
	Publish(ctx context.Context, msg messaging.TopicMessage) error
	Close() error
}

type App interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	DeviceManagement() devicemanagement.DeviceManagement
	WebEvents() webevents.WebEvents
}

const forwardQueueSize int = 1024

type Option func(*app)

// WithPublisher mirrors every bus message to p.
func WithPublisher(p Publisher) Option {
	return func(a *app) {
		a.publisher = p
	}
}

// WithNotifier pushes emergency alerts to the notifier's subscribers.
func WithNotifier(n *events.Notifier) Option {
	return func(a *app) {
		a.notifier = n
	}
}

// WithDeviceOptions passes options through to the device manager.
func WithDeviceOptions(opts ...devicemanagement.Option) Option {
	return func(a *app) {
		a.dmOpts = append(a.dmOpts, opts...)
	}
}

type app struct {
	cfg Config

	bus       events.Bus
	dm        devicemanagement.DeviceManagement
	webEvents webevents.WebEvents
	publisher Publisher
	forwarder *events.Queue
	notifier  *events.Notifier
	dmOpts    []devicemanagement.Option

	stopOnce sync.Once
}

func New(cfg Config, opts ...Option) App {
	a := &app{
		cfg:       cfg,
		bus:       events.NewBus(),
		webEvents: webevents.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.dm = devicemanagement.New(a.bus, alarms.New(), a.dmOpts...)

	a.webEvents.Register(a.bus)

	if a.notifier != nil {
		a.notifier.Register(a.bus)
	}

	if a.publisher != nil {
		p := a.publisher
		a.forwarder = events.NewQueue("publisher", forwardQueueSize, func(ctx context.Context, msg events.TopicMessage) {
			if err := p.Publish(ctx, msg); err != nil {
				log := logging.GetFromContext(ctx)
				log.Error().Err(err).Str("topic", msg.TopicName()).Msg("failed to forward message to broker")
			}
		})
		a.bus.SubscribeAll(a.forwarder.Enqueue)
	}

	return a
}

func (a *app) Start(ctx context.Context) error {
	return a.dm.Initialize(ctx, a.cfg.Gateway)
}

// Stop shuts down the adapters before the outbound bridges so that final events still go out.
// Queued notifications and broker messages are drained until ctx expires.
func (a *app) Stop(ctx context.Context) error {
	var err error

	a.stopOnce.Do(func() {
		err = a.dm.Shutdown(ctx)

		err = errors.Join(err, a.webEvents.Shutdown(ctx))

		if a.notifier != nil {
			err = errors.Join(err, a.notifier.Close(ctx))
		}

		if a.forwarder != nil {
			err = errors.Join(err, a.forwarder.Close(ctx))
		}

		if a.publisher != nil {
			err = errors.Join(err, a.publisher.Close())
		}
	})

	return err
}

func (a *app) DeviceManagement() devicemanagement.DeviceManagement {
	return a.dm
}

func (a *app) WebEvents() webevents.WebEvents {
	return a.webEvents
}
