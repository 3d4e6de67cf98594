package lorawan

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

const rosterPageSize = 1000

type DeviceInfo struct {
	DevEUI            string `json:"devEUI"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	ApplicationID     string `json:"applicationID"`
	DeviceProfileName string `json:"deviceProfileName"`
}

type Downlink struct {
	DevEUI    string
	FPort     uint8
	Data      []byte
	Confirmed bool
}

//go:generate moq -rm -out networkserver_mock.go . NetworkServer
type NetworkServer interface {
	ListDevices(ctx context.Context) ([]DeviceInfo, error)
	EnqueueDownlink(ctx context.Context, d Downlink) error
}

type listDevicesResponse struct {
	TotalCount string       `json:"totalCount"`
	Result     []DeviceInfo `json:"result"`
}

type deviceQueueItem struct {
	Confirmed bool   `json:"confirmed"`
	Data      string `json:"data"`
	DevEUI    string `json:"devEUI"`
	FPort     uint8  `json:"fPort"`
}

type enqueueRequest struct {
	DeviceQueueItem deviceQueueItem `json:"deviceQueueItem"`
}

type networkServerClient struct {
	client        *resty.Client
	applicationID string
}

// NewNetworkServerClient returns a client for the network server REST API. The token is sent
// as a bearer token in the grpc-gateway metadata header.
func NewNetworkServerClient(baseURL, token, applicationID string) NetworkServer {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	if token != "" {
		c.SetHeader("Grpc-Metadata-Authorization", "Bearer "+token)
	}

	return &networkServerClient{
		client:        c,
		applicationID: applicationID,
	}
}

func (n *networkServerClient) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-devices")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"applicationID": n.applicationID,
			"limit":         strconv.Itoa(rosterPageSize),
		}).
		SetResult(&listDevicesResponse{}).
		Get("/api/devices")
	if err != nil {
		err = fmt.Errorf("failed to fetch device roster: %w", err)
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		err = fmt.Errorf("%w: device roster request returned %d", ErrUnexpectedStatus, resp.StatusCode())
		return nil, err
	}

	result, ok := resp.Result().(*listDevicesResponse)
	if !ok || result == nil {
		return []DeviceInfo{}, nil
	}

	return result.Result, nil
}

func (n *networkServerClient) EnqueueDownlink(ctx context.Context, d Downlink) error {
	var err error
	ctx, span := tracer.Start(ctx, "enqueue-downlink")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body := enqueueRequest{
		DeviceQueueItem: deviceQueueItem{
			Confirmed: d.Confirmed,
			Data:      base64.StdEncoding.EncodeToString(d.Data),
			DevEUI:    d.DevEUI,
			FPort:     d.FPort,
		},
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetPathParam("devEUI", d.DevEUI).
		SetBody(body).
		Post("/api/devices/{devEUI}/queue")
	if err != nil {
		err = fmt.Errorf("failed to enqueue downlink: %w", err)
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		err = fmt.Errorf("%w: downlink request returned %d", ErrUnexpectedStatus, resp.StatusCode())
		return err
	}

	return nil
}
