package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

var ErrUnexpectedStatus = fmt.Errorf("unexpected response status")

// GatewayClient reads the diagnostics surface of a running gateway.
type GatewayClient interface {
	Healthy(ctx context.Context) bool
	GetSystemStatus(ctx context.Context) (types.SystemStatus, error)
}

type gatewayClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("iot-device-gateway/client")

func NewGatewayClient(gatewayURL string) GatewayClient {
	return &gatewayClient{
		url: strings.TrimSuffix(gatewayURL, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (gc *gatewayClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gc.url+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent
}

func (gc *gatewayClient) GetSystemStatus(ctx context.Context) (types.SystemStatus, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-system-status")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gc.url+"/api/v0/status", nil)
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return types.SystemStatus{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to retrieve system status: %w", err)
		return types.SystemStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Msgf("request failed with status code %d", resp.StatusCode)
		err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		return types.SystemStatus{}, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return types.SystemStatus{}, err
	}

	status := types.SystemStatus{}

	err = json.Unmarshal(respBody, &status)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal response body: %w", err)
		return types.SystemStatus{}, err
	}

	return status, nil
}
