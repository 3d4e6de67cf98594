package devicemanagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/alarms"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/events"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/lorawan"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/proximity"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/tracker"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-device-gateway/pkg/types"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-device-gateway/devicemanagement")

var (
	ErrDeviceNotFound     = fmt.Errorf("device not found")
	ErrAlreadyInitialized = fmt.Errorf("device manager is already initialized")
	ErrNoScanner          = fmt.Errorf("proximity is enabled but no scanner is available")
	ErrProximityDisabled  = fmt.Errorf("proximity adapter is not enabled")
)

// Config enables an adapter by providing its section. A nil section leaves the adapter disabled.
type Config struct {
	Tracker   *tracker.Config   `mapstructure:"tracker"`
	LoRaWAN   *lorawan.Config   `mapstructure:"lorawan"`
	Proximity *proximity.Config `mapstructure:"proximity"`
}

//go:generate moq -rm -out devicemanagement_mock.go . DeviceManagement
type DeviceManagement interface {
	Initialize(ctx context.Context, cfg Config) error
	Shutdown(ctx context.Context) error

	GetAllDevices(ctx context.Context) []types.Device
	GetDevicesByType(ctx context.Context, sensorType types.SensorType) []types.Device
	GetActiveDevices(ctx context.Context) []types.Device
	GetDevice(ctx context.Context, deviceID string) (types.Device, error)

	GetAlerts(ctx context.Context, acknowledged *bool) []types.Alert
	AcknowledgeAlert(ctx context.Context, alertID, actor string) bool

	CutOffEngine(ctx context.Context, deviceID string) bool
	RestoreEngine(ctx context.Context, deviceID string) bool
	SendDownlink(ctx context.Context, deviceID string, fPort uint8, data []byte, confirmed bool) bool

	RegisterBeaconRegion(ctx context.Context, region types.BeaconRegion) error
	RemoveBeaconRegion(ctx context.Context, regionID string) bool
	GetBeaconRegions(ctx context.Context) []types.BeaconRegion
	GetDevicesInRegion(ctx context.Context, regionID string) ([]types.Device, error)

	GetSystemStatus(ctx context.Context) types.SystemStatus
}

type trackerAdapter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Online() bool
	CutOffEngine(ctx context.Context, deviceID string) bool
	RestoreEngine(ctx context.Context, deviceID string) bool
}

type lorawanAdapter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Online() bool
	SendDownlink(ctx context.Context, devEUI string, fPort uint8, data []byte, confirmed bool) bool
}

type proximityAdapter interface {
	StartScanning(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Scanning() bool
	RegisterRegion(r types.BeaconRegion) error
	RemoveRegion(id string) bool
	Regions() []types.BeaconRegion
	GetDevicesInRegion(regionID string) ([]proximity.Device, error)
}

type Option func(*manager)

// WithScanner sets the radio used when the proximity adapter is enabled.
func WithScanner(s proximity.Scanner) Option {
	return func(m *manager) {
		m.scanner = s
	}
}

// WithNetworkServer replaces the LoRaWAN network server REST client.
func WithNetworkServer(ns lorawan.NetworkServer) Option {
	return func(m *manager) {
		m.lorawanOpts = append(m.lorawanOpts, lorawan.WithNetworkServer(ns))
	}
}

type manager struct {
	bus    events.Bus
	alerts alarms.AlarmService

	scanner     proximity.Scanner
	lorawanOpts []lorawan.Option

	newTracker   func(cfg tracker.Config, h tracker.EventHandler) trackerAdapter
	newLoRaWAN   func(cfg lorawan.Config, h lorawan.EventHandler) lorawanAdapter
	newProximity func(cfg proximity.Config, h proximity.EventHandler) proximityAdapter

	mu          sync.RWMutex
	initialized bool
	tracker     trackerAdapter
	lorawan     lorawanAdapter
	proximity   proximityAdapter
	devices     map[string]types.Device

	now func() time.Time
}

func New(bus events.Bus, alerts alarms.AlarmService, opts ...Option) DeviceManagement {
	m := &manager{
		bus:     bus,
		alerts:  alerts,
		devices: make(map[string]types.Device),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(m)
	}

	m.newTracker = func(cfg tracker.Config, h tracker.EventHandler) trackerAdapter {
		return tracker.New(cfg, h)
	}
	m.newLoRaWAN = func(cfg lorawan.Config, h lorawan.EventHandler) lorawanAdapter {
		return lorawan.New(cfg, h, m.lorawanOpts...)
	}
	m.newProximity = func(cfg proximity.Config, h proximity.EventHandler) proximityAdapter {
		return proximity.New(cfg, m.scanner, h)
	}

	return m
}

type stopFunc func(ctx context.Context) error

// Initialize starts every configured adapter. If any adapter fails to start, the adapters
// already started are stopped again, devices and alerts they reported are discarded and the
// manager stays uninitialized.
func (m *manager) Initialize(ctx context.Context, cfg Config) (err error) {
	ctx, span := tracer.Start(ctx, "initialize")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.initialized = true
	m.mu.Unlock()

	var (
		t       trackerAdapter
		l       lorawanAdapter
		p       proximityAdapter
		started []stopFunc
	)

	rollback := func(cause error) error {
		for i := len(started) - 1; i >= 0; i-- {
			if stopErr := started[i](ctx); stopErr != nil {
				log.Warn().Err(stopErr).Msg("failed to stop adapter during rollback")
			}
		}

		m.mu.Lock()
		m.initialized = false
		m.devices = make(map[string]types.Device)
		m.mu.Unlock()

		m.alerts.Clear(ctx)

		return cause
	}

	if cfg.Tracker != nil {
		t = m.newTracker(*cfg.Tracker, func(ctx context.Context, e tracker.Event) {
			m.handle(ctx, trackerEvent(e))
		})
		if err = t.Start(ctx); err != nil {
			return rollback(fmt.Errorf("failed to start tracker adapter: %w", err))
		}
		started = append(started, t.Stop)
		log.Info().Msg("tracker adapter started")
	}

	if cfg.LoRaWAN != nil {
		l = m.newLoRaWAN(*cfg.LoRaWAN, func(ctx context.Context, e lorawan.Event) {
			m.handle(ctx, lorawanEvent(e))
		})
		if err = l.Start(ctx); err != nil {
			return rollback(fmt.Errorf("failed to start lorawan adapter: %w", err))
		}
		started = append(started, l.Stop)
		log.Info().Msg("lorawan adapter started")
	}

	if cfg.Proximity != nil {
		if m.scanner == nil {
			return rollback(ErrNoScanner)
		}

		p = m.newProximity(*cfg.Proximity, func(ctx context.Context, e proximity.Event) {
			m.handle(ctx, proximityEvent(e))
		})
		if err = p.StartScanning(ctx); err != nil {
			return rollback(fmt.Errorf("failed to start proximity adapter: %w", err))
		}
		started = append(started, p.Shutdown)
		log.Info().Msg("proximity adapter started")
	}

	m.mu.Lock()
	m.tracker, m.lorawan, m.proximity = t, l, p
	m.mu.Unlock()

	return nil
}

// Shutdown stops all adapters and clears the registry and alert store. It is safe to call
// more than once.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	t, l, p := m.tracker, m.lorawan, m.proximity
	m.tracker, m.lorawan, m.proximity = nil, nil, nil
	m.initialized = false
	m.mu.Unlock()

	var errs []error

	if t != nil {
		errs = append(errs, t.Stop(ctx))
	}
	if l != nil {
		errs = append(errs, l.Stop(ctx))
	}
	if p != nil {
		errs = append(errs, p.Shutdown(ctx))
	}

	m.mu.Lock()
	m.devices = make(map[string]types.Device)
	m.mu.Unlock()

	m.alerts.Clear(ctx)

	return errors.Join(errs...)
}

func (m *manager) handle(ctx context.Context, e adapterEvent) {
	n := e.normalize()

	if n.failure != nil {
		log := logging.GetFromContext(ctx)
		log.Warn().Str("transport", string(n.failure.Transport)).Str("device_id", n.failure.DeviceID).Msg(n.failure.Message)

		m.bus.Publish(ctx, n.failure)
		return
	}

	// emergency alerts go out before any registry bookkeeping
	if n.alert != nil && n.alert.Severity == types.AlertLevelEmergency {
		m.raise(ctx, *n.alert)
		n.alert = nil
	}

	if n.device != nil {
		m.update(ctx, *n.device, n.change)
	}

	if n.reading != nil {
		m.bus.Publish(ctx, &types.SensorReadingReceived{Reading: *n.reading})
	}

	if n.alert != nil {
		m.raise(ctx, *n.alert)
	}
}

func (m *manager) update(ctx context.Context, d types.Device, c change) {
	m.mu.Lock()
	previous, known := m.devices[d.ID]

	if c == changeLost || c == changeDisconnected {
		d.Active = false
	}

	if known {
		if d.Name == "" {
			d.Name = previous.Name
		}
		if d.Location == nil {
			d.Location = previous.Location
		}
		if d.BatteryLevel == nil {
			d.BatteryLevel = previous.BatteryLevel
		}
	}

	m.devices[d.ID] = d
	m.mu.Unlock()

	ts := d.LastSeen
	if ts.IsZero() {
		ts = m.now()
	}

	switch c {
	case changeConnected:
		m.bus.Publish(ctx, &types.DeviceConnected{Device: d, Timestamp: ts})
	case changeDisconnected:
		m.bus.Publish(ctx, &types.DeviceDisconnected{Device: d, Timestamp: m.now()})
	case changeDiscovered:
		m.bus.Publish(ctx, &types.DeviceDiscovered{Device: d, Timestamp: ts})
	case changeUpdated:
		m.bus.Publish(ctx, &types.DeviceUpdated{Device: d, Timestamp: ts})
	case changeLost:
		m.bus.Publish(ctx, &types.DeviceLost{Device: d, Timestamp: m.now()})
	}
}

func (m *manager) raise(ctx context.Context, alert types.Alert) {
	log := logging.GetFromContext(ctx)

	a, created, err := m.alerts.Add(ctx, alert)
	if err != nil {
		log.Error().Err(err).Str("device_id", alert.DeviceID).Msg("failed to store alert")
		return
	}

	if !created {
		log.Debug().Str("alert_id", a.ID).Msg("alert already open, refreshed existing alert")
		return
	}

	log.Info().Str("alert_id", a.ID).Str("device_id", a.DeviceID).Str("severity", a.Severity.String()).Msg(a.Message)

	if a.Severity == types.AlertLevelEmergency {
		m.bus.Publish(ctx, &types.EmergencyAlert{Alert: a})
	}

	m.bus.Publish(ctx, &types.AlertCreated{Alert: a})
}

func (m *manager) GetAllDevices(ctx context.Context) []types.Device {
	return m.query(func(types.Device) bool { return true })
}

func (m *manager) GetDevicesByType(ctx context.Context, sensorType types.SensorType) []types.Device {
	return m.query(func(d types.Device) bool { return d.Type == sensorType })
}

func (m *manager) GetActiveDevices(ctx context.Context) []types.Device {
	return m.query(func(d types.Device) bool { return d.Active })
}

func (m *manager) query(match func(types.Device) bool) []types.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := lo.Filter(lo.Values(m.devices), func(d types.Device, _ int) bool {
		return match(d)
	})

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// GetDevice looks up a device by its composite id. A bare native id is tried against
// each transport in turn.
func (m *manager) GetDevice(ctx context.Context, deviceID string) (types.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d, ok := m.devices[deviceID]; ok {
		return d, nil
	}

	if t, _ := types.SplitID(deviceID); t == "" {
		for _, t := range []types.Transport{types.TransportTracker, types.TransportLoRaWAN, types.TransportProximity} {
			if d, ok := m.devices[types.CompositeID(t, deviceID)]; ok {
				return d, nil
			}
		}
	}

	return types.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
}

func (m *manager) GetAlerts(ctx context.Context, acknowledged *bool) []types.Alert {
	return m.alerts.Get(ctx, acknowledged)
}

// AcknowledgeAlert returns false only for unknown alerts. Acknowledging twice keeps the
// first actor and publishes nothing the second time.
func (m *manager) AcknowledgeAlert(ctx context.Context, alertID, actor string) bool {
	a, changed, err := m.alerts.Acknowledge(ctx, alertID, actor)
	if err != nil {
		return false
	}

	if changed {
		m.bus.Publish(ctx, &types.AlertAcknowledged{Alert: a})
	}

	return true
}

func (m *manager) CutOffEngine(ctx context.Context, deviceID string) bool {
	return m.engineCommand(ctx, deviceID, "cut-off-engine", trackerAdapter.CutOffEngine)
}

func (m *manager) RestoreEngine(ctx context.Context, deviceID string) bool {
	return m.engineCommand(ctx, deviceID, "restore-engine", trackerAdapter.RestoreEngine)
}

func (m *manager) engineCommand(ctx context.Context, deviceID, name string, cmd func(trackerAdapter, context.Context, string) bool) bool {
	t, nativeID := types.SplitID(deviceID)
	if t != "" && t != types.TransportTracker {
		return false
	}

	m.mu.RLock()
	adapter := m.tracker
	m.mu.RUnlock()

	if adapter == nil {
		return false
	}

	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	ok := cmd(adapter, ctx, nativeID)

	log := logging.GetFromContext(ctx)
	log.Info().Str("device_id", deviceID).Bool("success", ok).Msgf("%s command completed", name)

	return ok
}

func (m *manager) SendDownlink(ctx context.Context, deviceID string, fPort uint8, data []byte, confirmed bool) bool {
	t, devEUI := types.SplitID(deviceID)
	if t != "" && t != types.TransportLoRaWAN {
		return false
	}

	m.mu.RLock()
	adapter := m.lorawan
	m.mu.RUnlock()

	if adapter == nil {
		return false
	}

	ctx, span := tracer.Start(ctx, "send-downlink")
	defer span.End()

	return adapter.SendDownlink(ctx, devEUI, fPort, data, confirmed)
}

func (m *manager) beacons() (proximityAdapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.proximity == nil {
		return nil, ErrProximityDisabled
	}
	return m.proximity, nil
}

func (m *manager) RegisterBeaconRegion(ctx context.Context, region types.BeaconRegion) error {
	p, err := m.beacons()
	if err != nil {
		return err
	}
	return p.RegisterRegion(region)
}

func (m *manager) RemoveBeaconRegion(ctx context.Context, regionID string) bool {
	p, err := m.beacons()
	if err != nil {
		return false
	}
	return p.RemoveRegion(regionID)
}

func (m *manager) GetBeaconRegions(ctx context.Context) []types.BeaconRegion {
	p, err := m.beacons()
	if err != nil {
		return []types.BeaconRegion{}
	}
	return p.Regions()
}

func (m *manager) GetDevicesInRegion(ctx context.Context, regionID string) ([]types.Device, error) {
	p, err := m.beacons()
	if err != nil {
		return nil, err
	}

	found, err := p.GetDevicesInRegion(regionID)
	if err != nil {
		return nil, err
	}

	return lo.Map(found, func(d proximity.Device, _ int) types.Device {
		return proximityDevice(d)
	}), nil
}

func (m *manager) GetSystemStatus(ctx context.Context) types.SystemStatus {
	m.mu.RLock()
	status := types.SystemStatus{
		Tracker:   types.AdapterStatus{Enabled: m.tracker != nil},
		LoRaWAN:   types.AdapterStatus{Enabled: m.lorawan != nil},
		Proximity: types.AdapterStatus{Enabled: m.proximity != nil},
		Timestamp: m.now(),
	}

	if m.tracker != nil {
		status.Tracker.Online = m.tracker.Online()
	}
	if m.lorawan != nil {
		status.LoRaWAN.Online = m.lorawan.Online()
	}
	if m.proximity != nil {
		status.Proximity.Online = m.proximity.Scanning()
	}

	for _, d := range m.devices {
		status.TotalDevices++
		if d.Active {
			status.ActiveDevices++
		}

		switch d.Transport {
		case types.TransportTracker:
			status.Tracker.Devices++
		case types.TransportLoRaWAN:
			status.LoRaWAN.Devices++
		case types.TransportProximity:
			status.Proximity.Devices++
		}
	}
	m.mu.RUnlock()

	status.UnacknowledgedAlerts = m.alerts.CountUnacknowledged(ctx)

	return status
}
