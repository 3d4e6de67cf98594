package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/pkg/types"
	"golang.org/x/sys/unix"
	yaml "gopkg.in/yaml.v2"
)

const (
	EmergencyAlertEventType string = "gateway.emergencyAlert"
	DefaultSendTimeout             = 10 * time.Second
)

type Sender interface {
	Send(ctx context.Context, alert types.Alert) error
}

// Notifier pushes emergency alerts as CloudEvents to the subscribers configured for
// the gateway.emergencyAlert notification type. Deliveries run on the notifier's own
// queue so that publishers on the bus never wait for a subscriber endpoint.
type Notifier struct {
	subscribers map[string][]SubscriberConfig
	client      cloudevents.Client
	timeout     time.Duration
	queue       *Queue
}

func NewNotifier(cfg *Config) (*Notifier, error) {
	n := &Notifier{
		subscribers: make(map[string][]SubscriberConfig),
		timeout:     DefaultSendTimeout,
	}

	if cfg != nil {
		for _, s := range cfg.Notifications {
			n.subscribers[s.Type] = append(n.subscribers[s.Type], s.Subscribers...)
		}
	}

	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, err
	}
	n.client = c

	return n, nil
}

// Register subscribes the notifier to emergency alerts on the bus.
func (n *Notifier) Register(b Bus) {
	n.queue = NewQueue("notifier", DefaultQueueSize, func(ctx context.Context, msg TopicMessage) {
		ea, ok := msg.(*types.EmergencyAlert)
		if !ok {
			return
		}

		if err := n.Send(ctx, ea.Alert); err != nil {
			log := logging.GetFromContext(ctx)
			log.Error().Err(err).Str("alert_id", ea.Alert.ID).Msg("failed to notify subscribers of emergency alert")
		}
	})

	b.Subscribe(types.TopicEmergencyAlert, n.queue.Enqueue)
}

// Close waits for queued notifications to be sent or for ctx to expire.
func (n *Notifier) Close(ctx context.Context) error {
	if n.queue == nil {
		return nil
	}
	return n.queue.Close(ctx)
}

func (n *Notifier) Send(ctx context.Context, alert types.Alert) error {
	subscribers, ok := n.subscribers[EmergencyAlertEventType]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	event := cloudevents.NewEvent()
	event.SetID(alert.ID)
	event.SetTime(alert.Timestamp)
	event.SetSource("github.com/diwise/iot-device-gateway")
	event.SetType(EmergencyAlertEventType)

	if alert.Timestamp.IsZero() {
		event.SetTime(time.Now().UTC())
	}

	err := event.SetData(cloudevents.ApplicationJSON, alert)
	if err != nil {
		return err
	}

	logger := logging.GetFromContext(ctx)

	var sendErr error

	for _, s := range subscribers {
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		result := n.client.Send(cloudevents.ContextWithTarget(sendCtx, s.Endpoint), event)
		cancel()

		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) || errors.Is(result, context.DeadlineExceeded) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			sendErr = fmt.Errorf("%w", result)
		}
	}

	return sendErr
}

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type Config struct {
	Notifications []Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err == nil {
		return &cfg, nil
	} else {
		return nil, err
	}
}
