package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/devicemanagement"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

func TestThatHealthReturnsNoContent(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/health")

	is.Equal(resp.StatusCode, http.StatusNoContent)
}

func TestThatSystemStatusIsReturnedAsJSON(t *testing.T) {
	is, server, dm := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/status")

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get("Content-Type"), "application/json")
	is.Equal(len(dm.GetSystemStatusCalls()), 1)

	status := types.SystemStatus{}
	is.NoErr(json.Unmarshal([]byte(body), &status))
	is.True(status.Tracker.Enabled)
	is.True(status.Tracker.Online)
	is.Equal(status.Tracker.Devices, 2)
	is.Equal(status.ActiveDevices, 1)
	is.Equal(status.UnacknowledgedAlerts, 3)
}

func TestThatEventsAreRoutedToStream(t *testing.T) {
	is, server, _ := testSetup(t)

	resp, body := testRequest(is, server, http.MethodGet, "/api/v0/events")

	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(body, "stream")
}

func testSetup(t *testing.T) (*is.I, *httptest.Server, *devicemanagement.DeviceManagementMock) {
	is := is.New(t)

	dm := &devicemanagement.DeviceManagementMock{
		GetSystemStatusFunc: func(ctx context.Context) types.SystemStatus {
			return types.SystemStatus{
				Tracker:              types.AdapterStatus{Enabled: true, Online: true, Devices: 2},
				TotalDevices:         2,
				ActiveDevices:        1,
				UnacknowledgedAlerts: 3,
				Timestamp:            time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			}
		},
	}

	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stream"))
	})

	r := RegisterHandlers(context.Background(), router.New("test"), dm, stream)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return is, server, dm
}

func testRequest(is *is.I, ts *httptest.Server, method, path string) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, nil)
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)

	respBody, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}
