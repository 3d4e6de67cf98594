package proximity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/watchdog"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

var ErrNoScanner = errors.New("no radio scanner available")
var ErrRegionNotFound = errors.New("region not found")
var ErrInvalidRegion = errors.New("invalid region")

const (
	DefaultRSSIThreshold int           = -80
	DefaultTimeout       time.Duration = 30 * time.Second
)

type Config struct {
	RSSIThreshold int           `mapstructure:"rssiThreshold"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type EventType int

const (
	EventDiscovered EventType = iota
	EventUpdated
	EventReading
	EventLost
	EventError
)

func (t EventType) String() string {
	return [...]string{"discovered", "updated", "reading", "lost", "error"}[t]
}

type Device struct {
	Address      string
	Name         string
	Type         types.SensorType
	RSSI         int
	TxPower      *int
	Distance     *float64
	Proximity    types.Proximity
	Active       bool
	LastSeen     time.Time
	BatteryLevel *int
	Beacon       *BeaconIdentity
}

type Event struct {
	Type      EventType
	Device    Device
	Timestamp time.Time
	Reading   *Reading
	Err       error
}

type EventHandler func(ctx context.Context, e Event)

type Adapter struct {
	cfg     Config
	scanner Scanner
	handler EventHandler

	mu       sync.Mutex
	devices  map[string]*Device
	regions  map[string]types.BeaconRegion
	cancel   context.CancelFunc
	done     chan struct{}
	watchdog watchdog.Watchdog

	now func() time.Time
}

func New(cfg Config, scanner Scanner, handler EventHandler) *Adapter {
	if cfg.RSSIThreshold == 0 {
		cfg.RSSIThreshold = DefaultRSSIThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if handler == nil {
		handler = func(context.Context, Event) {}
	}

	a := &Adapter{
		cfg:     cfg,
		scanner: scanner,
		handler: handler,
		devices: make(map[string]*Device),
		regions: make(map[string]types.BeaconRegion),
		now:     func() time.Time { return time.Now().UTC() },
	}

	a.watchdog = watchdog.New(cfg.Timeout, a.sweep)

	return a
}

// StartScanning enables the radio and starts discovery together with the expiry sweep.
func (a *Adapter) StartScanning(ctx context.Context) error {
	if a.scanner == nil {
		return ErrNoScanner
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.scanner.Enable(); err != nil {
		return fmt.Errorf("failed to enable radio: %w", err)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})

	a.watchdog.Start(scanCtx)

	go func(done chan struct{}) {
		defer close(done)

		log := logging.GetFromContext(scanCtx)
		log.Info().Int("rssi_threshold", a.cfg.RSSIThreshold).Msg("proximity scanning started")

		err := a.scanner.Scan(scanCtx, func(adv Advertisement) {
			a.HandleAdvertisement(scanCtx, adv)
		})

		if err != nil && scanCtx.Err() == nil {
			log.Error().Err(err).Msg("radio scan failed")
			a.handler(scanCtx, Event{Type: EventError, Timestamp: a.now(), Err: err})
		}
	}(a.done)

	return nil
}

// StopScanning stops discovery and the expiry sweep. Known devices are kept.
func (a *Adapter) StopScanning(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	a.watchdog.Stop(ctx)

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Shutdown stops scanning and clears all devices and regions. Calling it twice is safe.
func (a *Adapter) Shutdown(ctx context.Context) error {
	err := a.StopScanning(ctx)

	a.mu.Lock()
	a.devices = make(map[string]*Device)
	a.regions = make(map[string]types.BeaconRegion)
	a.mu.Unlock()

	return err
}

func (a *Adapter) Scanning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// HandleAdvertisement classifies and records one advertisement. Advertisements weaker than
// the configured threshold are ignored.
func (a *Adapter) HandleAdvertisement(ctx context.Context, adv Advertisement) {
	if adv.RSSI < a.cfg.RSSIThreshold {
		return
	}

	sensorType, beacon := Classify(adv)

	txPower := adv.TxPower
	if beacon != nil && beacon.TxPower != 0 {
		tx := beacon.TxPower
		txPower = &tx
	}

	proximity, distance := Estimate(adv.RSSI, txPower)

	var reading *Reading
	if sensorType != types.SensorTypeBeacon && sensorType != types.SensorTypeAssetTag {
		r, err := DecodeSensorData(sensorType, adv.payload())
		if err != nil {
			log := logging.GetFromContext(ctx)
			log.Debug().Err(err).Str("device_id", adv.Address).Msg("no sensor reading in advertisement")
		} else {
			reading = &r
		}
	}

	now := a.now()

	a.mu.Lock()
	d, known := a.devices[adv.Address]
	if !known {
		d = &Device{Address: adv.Address}
		a.devices[adv.Address] = d
	}

	d.Name = lo.Ternary(adv.LocalName != "", adv.LocalName, d.Name)
	d.Type = sensorType
	d.RSSI = adv.RSSI
	d.TxPower = txPower
	d.Distance = distance
	d.Proximity = proximity
	d.Active = true
	d.LastSeen = now
	d.Beacon = beacon
	if reading != nil && reading.BatteryLevel != nil {
		d.BatteryLevel = reading.BatteryLevel
	}
	snapshot := *d
	a.mu.Unlock()

	a.handler(ctx, Event{
		Type:      lo.Ternary(known, EventUpdated, EventDiscovered),
		Device:    snapshot,
		Timestamp: now,
	})

	if reading != nil {
		a.handler(ctx, Event{Type: EventReading, Device: snapshot, Timestamp: now, Reading: reading})
	}
}

func (a *Adapter) sweep(ctx context.Context, now time.Time) {
	a.mu.Lock()
	var lost []Device
	for addr, d := range a.devices {
		if watchdog.IsExpired(d.LastSeen, now.UTC(), a.cfg.Timeout) {
			d.Active = false
			lost = append(lost, *d)
			delete(a.devices, addr)
		}
	}
	a.mu.Unlock()

	sort.Slice(lost, func(i, j int) bool { return lost[i].Address < lost[j].Address })

	for _, d := range lost {
		a.handler(ctx, Event{Type: EventLost, Device: d, Timestamp: now.UTC()})
	}
}

// GetConnectedDevices returns the devices currently in range.
func (a *Adapter) GetConnectedDevices() []Device {
	a.mu.Lock()
	defer a.mu.Unlock()

	devices := lo.FilterMap(lo.Values(a.devices), func(d *Device, _ int) (Device, bool) {
		return *d, d.Active
	})

	sort.Slice(devices, func(i, j int) bool { return devices[i].Address < devices[j].Address })

	return devices
}

func (a *Adapter) RegisterRegion(r types.BeaconRegion) error {
	if r.ID == "" {
		return fmt.Errorf("%w: region id is required", ErrInvalidRegion)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.regions[r.ID] = r
	return nil
}

func (a *Adapter) RemoveRegion(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.regions[id]
	delete(a.regions, id)
	return ok
}

func (a *Adapter) Regions() []types.BeaconRegion {
	a.mu.Lock()
	defer a.mu.Unlock()

	regions := lo.Values(a.regions)
	sort.Slice(regions, func(i, j int) bool { return regions[i].ID < regions[j].ID })

	return regions
}

// GetDevicesInRegion returns every active device with a known proximity. The region boundary
// is not used for containment; only the region's existence is checked.
func (a *Adapter) GetDevicesInRegion(regionID string) ([]Device, error) {
	a.mu.Lock()
	_, ok := a.regions[regionID]
	a.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, regionID)
	}

	return lo.Filter(a.GetConnectedDevices(), func(d Device, _ int) bool {
		return d.Proximity != types.ProximityUnknown
	}), nil
}
