package events

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

func TestConfig(t *testing.T) {
	is, _ := testSetup(t)
	config := strings.NewReader(`
notifications:
  - id: paging
    name: Emergency paging
    type: gateway.emergencyAlert
    subscribers:
    - endpoint: http://paging-service:8990
`)
	cfg, err := LoadConfiguration(config)

	is.NoErr(err)
	is.Equal(len(cfg.Notifications), 1)
	is.Equal(cfg.Notifications[0].ID, "paging")
	is.Equal(cfg.Notifications[0].Subscribers[0].Endpoint, "http://paging-service:8990")
}

func TestThatEmergencyAlertsArePushedAsCloudEvents(t *testing.T) {
	is, ctx := testSetup(t)

	received := make(chan string, 1)
	var ceType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ceType = r.Header.Get("Ce-Type")
		received <- string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewNotifier(&Config{
		Notifications: []Notification{{
			ID: "paging", Type: EmergencyAlertEventType,
			Subscribers: []SubscriberConfig{{Endpoint: server.URL}},
		}},
	})
	is.NoErr(err)

	b := NewBus()
	n.Register(b)

	b.Publish(ctx, &types.EmergencyAlert{Alert: types.Alert{
		ID: "a1", DeviceID: "tracker:TRK001", Type: "sos", Severity: types.AlertLevelEmergency,
		Message: "SOS Emergency Alert", Timestamp: time.Now().UTC(),
	}})

	select {
	case body := <-received:
		is.True(strings.Contains(body, "SOS Emergency Alert"))
		is.Equal(ceType, EmergencyAlertEventType)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestThatNotifierWithoutSubscribersIsANoop(t *testing.T) {
	is, ctx := testSetup(t)

	n, err := NewNotifier(nil)
	is.NoErr(err)

	is.NoErr(n.Send(ctx, types.Alert{ID: "a1"}))
}

func TestThatSlowSubscriberDoesNotDelayPublisher(t *testing.T) {
	is, ctx := testSetup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer func() {
		server.CloseClientConnections()
		server.Close()
	}()

	n, err := NewNotifier(&Config{
		Notifications: []Notification{{
			ID: "paging", Type: EmergencyAlertEventType,
			Subscribers: []SubscriberConfig{{Endpoint: server.URL}},
		}},
	})
	is.NoErr(err)
	n.timeout = 200 * time.Millisecond

	b := NewBus()
	n.Register(b)

	start := time.Now()
	b.Publish(ctx, &types.EmergencyAlert{Alert: types.Alert{ID: "a1", Severity: types.AlertLevelEmergency}})
	is.True(time.Since(start) < n.timeout)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	is.NoErr(n.Close(closeCtx))
}

func TestThatSendIsBoundedByTimeout(t *testing.T) {
	is, ctx := testSetup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer func() {
		server.CloseClientConnections()
		server.Close()
	}()

	n, err := NewNotifier(&Config{
		Notifications: []Notification{{
			ID: "paging", Type: EmergencyAlertEventType,
			Subscribers: []SubscriberConfig{{Endpoint: server.URL}},
		}},
	})
	is.NoErr(err)
	n.timeout = 100 * time.Millisecond

	start := time.Now()
	err = n.Send(ctx, types.Alert{ID: "a1", Severity: types.AlertLevelEmergency})
	is.True(err != nil)
	is.True(time.Since(start) < 2*time.Second)
	is.NoErr(n.Close(ctx))
}
