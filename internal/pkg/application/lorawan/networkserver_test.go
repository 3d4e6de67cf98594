package lorawan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
)

func TestThatDeviceRosterIsFetched(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodGet)
		is.Equal(r.URL.Path, "/api/devices")
		is.Equal(r.URL.Query().Get("applicationID"), "3")
		is.Equal(r.URL.Query().Get("limit"), "1000")
		is.Equal(r.Header.Get("Grpc-Metadata-Authorization"), "Bearer secret")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"totalCount":"1","result":[{"devEUI":"0102030405060708","name":"door-1","description":"back entry","applicationID":"3"}]}`))
	}))
	defer s.Close()

	ns := NewNetworkServerClient(s.URL, "secret", "3")

	devices, err := ns.ListDevices(context.Background())
	is.NoErr(err)
	is.Equal(len(devices), 1)
	is.Equal(devices[0].Name, "door-1")
	is.Equal(devices[0].Description, "back entry")
}

func TestThatRosterErrorStatusIsReported(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer s.Close()

	_, err := NewNetworkServerClient(s.URL, "bad", "3").ListDevices(context.Background())
	is.True(errors.Is(err, ErrUnexpectedStatus))
}

func TestThatDownlinkIsQueued(t *testing.T) {
	is := is.New(t)

	var received enqueueRequest

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodPost)
		is.Equal(r.URL.Path, "/api/devices/0102030405060708/queue")

		b, _ := io.ReadAll(r.Body)
		is.NoErr(json.Unmarshal(b, &received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"fCnt":12}`))
	}))
	defer s.Close()

	err := NewNetworkServerClient(s.URL, "", "3").EnqueueDownlink(context.Background(), Downlink{
		DevEUI:    "0102030405060708",
		FPort:     10,
		Data:      []byte{0x01, 0x02},
		Confirmed: true,
	})
	is.NoErr(err)

	is.Equal(received.DeviceQueueItem.Data, "AQI=")
	is.Equal(received.DeviceQueueItem.FPort, uint8(10))
	is.True(received.DeviceQueueItem.Confirmed)
}

func TestThatRejectedDownlinkIsAnError(t *testing.T) {
	is := is.New(t)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer s.Close()

	err := NewNetworkServerClient(s.URL, "", "3").EnqueueDownlink(context.Background(), Downlink{DevEUI: "0102030405060708"})
	is.True(errors.Is(err, ErrUnexpectedStatus))
}
