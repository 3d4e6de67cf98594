package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestThatMessagesArePublishedWithTopicAsRoutingKey(t *testing.T) {
	is := is.New(t)

	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "gw", appID: "iot-device-gateway"}

	is.NoErr(p.Publish(context.Background(), message{topic: "deviceConnected", body: `{"id":"tracker:TRK001"}`}))

	is.Equal(len(ch.published), 1)
	is.Equal(ch.exchange, "gw")
	is.Equal(ch.key, "deviceConnected")
	is.Equal(ch.published[0].ContentType, "application/json")
	is.Equal(ch.published[0].AppId, "iot-device-gateway")
	is.Equal(string(ch.published[0].Body), `{"id":"tracker:TRK001"}`)
	is.True(ch.published[0].MessageId != "")
}

func TestThatClosedPublisherRejectsMessages(t *testing.T) {
	is := is.New(t)

	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "gw"}

	is.NoErr(p.Close())
	is.True(ch.closed)
	is.NoErr(p.Close())

	err := p.Publish(context.Background(), message{topic: "alert"})
	is.True(errors.Is(err, ErrClosed))
}

type message struct {
	topic string
	body  string
}

func (m message) ContentType() string { return "application/json" }
func (m message) TopicName() string   { return m.topic }
func (m message) Body() []byte        { return []byte(m.body) }

type fakeChannel struct {
	exchange  string
	key       string
	published []amqp.Publishing
	closed    bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key = exchange, key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}
