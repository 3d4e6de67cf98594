package webevents

import (
	"context"
	"net/http"

	gosse "github.com/alexandrevicenzi/go-sse"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/events"
)

type WebEvents interface {
	http.Handler
	Register(b events.Bus)
	Publish(event string, data []byte)
	Shutdown(ctx context.Context) error
}

type webEvents struct {
	s     *gosse.Server
	queue *events.Queue
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{}),
	}
}

func (we *webEvents) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	we.s.ServeHTTP(w, r)
}

// Shutdown drains queued messages, bounded by ctx, and disconnects all clients.
func (we *webEvents) Shutdown(ctx context.Context) error {
	var err error
	if we.queue != nil {
		err = we.queue.Close(ctx)
	}

	we.s.Shutdown()

	return err
}

// Register mirrors every bus message to connected clients, using the topic as event name.
// Clients are written to from a queue since a slow reader holds up the sse server.
func (we *webEvents) Register(b events.Bus) {
	we.queue = events.NewQueue("webevents", events.DefaultQueueSize, func(ctx context.Context, msg events.TopicMessage) {
		we.Publish(msg.TopicName(), msg.Body())
	})
	b.SubscribeAll(we.queue.Enqueue)
}

func (we *webEvents) Publish(event string, data []byte) {
	we.s.SendMessage("", gosse.NewMessage("", string(data), event))
}
