package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "iot-device-gateway"

var ErrClosed = errors.New("publisher is closed")

// Config selects how bus messages leave the gateway. With Transport set to "messenger" the
// broker settings are read from the RABBITMQ_* environment and URL and Exchange are ignored.
type Config struct {
	Transport string `mapstructure:"transport"`
	URL       string `mapstructure:"url"`
	Exchange  string `mapstructure:"exchange"`
}

type TopicMessage interface {
	ContentType() string
	TopicName() string
	Body() []byte
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards topic messages to a topic exchange using the topic name as routing key.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	appID    string
}

func NewPublisher(cfg Config, appID string) (*Publisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange, appID: appID}, nil
}

func (p *Publisher) Publish(ctx context.Context, msg TopicMessage) error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(ctx, p.exchange, msg.TopicName(), false, false, amqp.Publishing{
		ContentType: msg.ContentType(),
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Type:        msg.TopicName(),
		AppId:       p.appID,
		Body:        msg.Body(),
	})
}

// Close releases the channel and connection. Calling Close more than once is safe.
func (p *Publisher) Close() error {
	p.mu.Lock()
	ch, conn := p.ch, p.conn
	p.ch, p.conn = nil, nil
	p.mu.Unlock()

	var err error
	if ch != nil {
		err = ch.Close()
	}
	if conn != nil {
		err = errors.Join(err, conn.Close())
	}
	return err
}
