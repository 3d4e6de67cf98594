package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

func TestThatQueuedHandlerDoesNotBlockPublisher(t *testing.T) {
	is, ctx := testSetup(t)

	release := make(chan struct{})
	handled := make(chan string, 8)

	q := NewQueue("test", 8, func(ctx context.Context, msg TopicMessage) {
		<-release
		handled <- msg.(*types.AlertCreated).Alert.ID
	})

	b := NewBus()
	b.SubscribeAll(q.Enqueue)

	published := make(chan struct{})
	go func() {
		b.Publish(ctx, &types.AlertCreated{Alert: types.Alert{ID: "a1"}})
		b.Publish(ctx, &types.AlertCreated{Alert: types.Alert{ID: "a2"}})
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish waited for a queued handler")
	}

	close(release)
	is.NoErr(q.Close(ctx))

	is.Equal(<-handled, "a1")
	is.Equal(<-handled, "a2")
}

func TestThatFullQueueDropsMessages(t *testing.T) {
	is, ctx := testSetup(t)

	release := make(chan struct{})
	handled := 0

	q := NewQueue("test", 1, func(ctx context.Context, msg TopicMessage) {
		<-release
		handled++
	})

	for i := 0; i < 3; i++ {
		q.Enqueue(ctx, &types.AlertCreated{})
	}

	close(release)
	is.NoErr(q.Close(ctx))
	is.True(handled < 3)
}

func TestThatCloseGivesUpWhenContextExpires(t *testing.T) {
	is, ctx := testSetup(t)

	release := make(chan struct{})
	defer close(release)

	q := NewQueue("test", 1, func(ctx context.Context, msg TopicMessage) {
		<-release
	})
	q.Enqueue(ctx, &types.AlertCreated{})

	expiring, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := q.Close(expiring)
	is.True(errors.Is(err, context.DeadlineExceeded))

	q.Enqueue(ctx, &types.AlertCreated{})
}

func TestThatQueuedMessagesOutliveCancelledContext(t *testing.T) {
	is, _ := testSetup(t)

	handled := make(chan error, 1)
	q := NewQueue("test", 1, func(ctx context.Context, msg TopicMessage) {
		handled <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.Enqueue(ctx, &types.AlertCreated{})
	cancel()

	is.NoErr(q.Close(context.Background()))
	is.NoErr(<-handled)
}
