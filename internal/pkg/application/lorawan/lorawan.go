package lorawan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.opentelemetry.io/otel"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

var tracer = otel.Tracer("iot-device-gateway/lorawan")

var ErrUnknownDevice = errors.New("unknown device")
var ErrUnknownTopic = errors.New("unknown topic")

const (
	DefaultClientID       = "iot-device-gateway"
	DefaultConnectTimeout = 10 * time.Second
)

type Config struct {
	BrokerURL      string        `mapstructure:"brokerURL"`
	ClientID       string        `mapstructure:"clientID"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ApplicationID  string        `mapstructure:"applicationID"`
	APIURL         string        `mapstructure:"apiURL"`
	APIToken       string        `mapstructure:"apiToken"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type EventType int

const (
	EventRegistered EventType = iota
	EventJoined
	EventUplink
	EventStatus
	EventError
)

func (t EventType) String() string {
	return [...]string{"registered", "joined", "uplink", "status", "error"}[t]
}

type Device struct {
	DevEUI        string
	Name          string
	Description   string
	Type          types.SensorType
	Active        bool
	LastSeen      time.Time
	RSSI          *float64
	SNR           *float64
	BatteryLevel  *int
	ExternalPower bool
	Margin        *int
	Location      *types.Location
	FCnt          uint32
}

type Event struct {
	Type        EventType
	Device      Device
	Timestamp   time.Time
	FPort       uint8
	Measurement *Measurement
	Err         error
}

type EventHandler func(ctx context.Context, e Event)

type Option func(*Adapter)

// WithNetworkServer replaces the REST client built from the configuration.
func WithNetworkServer(ns NetworkServer) Option {
	return func(a *Adapter) {
		a.ns = ns
	}
}

type Adapter struct {
	cfg     Config
	handler EventHandler
	ns      NetworkServer

	mu      sync.Mutex
	client  mqtt.Client
	devices map[string]*Device

	now func() time.Time
}

func New(cfg Config, handler EventHandler, opts ...Option) *Adapter {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if handler == nil {
		handler = func(context.Context, Event) {}
	}

	a := &Adapter{
		cfg:     cfg,
		handler: handler,
		devices: make(map[string]*Device),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.ns == nil {
		a.ns = NewNetworkServerClient(cfg.APIURL, cfg.APIToken, cfg.ApplicationID)
	}

	return a
}

// Topics returns the uplink, join and status subscriptions for the configured application.
func (a *Adapter) Topics() []string {
	prefix := fmt.Sprintf("application/%s/device/+/event/", a.cfg.ApplicationID)
	return []string{prefix + "up", prefix + "join", prefix + "status"}
}

// Start seeds the registry from the network server and connects to the broker. Reconnects
// after a successful start are handled by the mqtt client.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.SeedRoster(ctx); err != nil {
		return err
	}

	if a.cfg.BrokerURL == "" {
		return errors.New("lorawan adapter requires a broker url")
	}

	msgCtx := context.WithoutCancel(ctx)
	log := logging.GetFromContext(ctx)

	onMessage := func(_ mqtt.Client, msg mqtt.Message) {
		a.HandleMessage(msgCtx, msg.Topic(), msg.Payload())
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(a.cfg.BrokerURL)
	opts.SetClientID(a.cfg.ClientID)
	opts.SetUsername(a.cfg.Username)
	opts.SetPassword(a.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetConnectTimeout(a.cfg.ConnectTimeout)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		filters := make(map[string]byte)
		for _, t := range a.Topics() {
			filters[t] = 0
		}

		token := c.SubscribeMultiple(filters, onMessage)
		if token.WaitTimeout(a.cfg.ConnectTimeout) && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("failed to subscribe to network server events")
			return
		}

		log.Info().Strs("topics", a.Topics()).Msg("subscribed to network server events")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("connection to broker lost")
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(a.cfg.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("timed out connecting to broker %s", a.cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker %s: %w", a.cfg.BrokerURL, err)
	}

	a.mu.Lock()
	a.client = client
	a.mu.Unlock()

	return nil
}

// SeedRoster fetches every registered device once and announces it as registered.
func (a *Adapter) SeedRoster(ctx context.Context) error {
	infos, err := a.ns.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("lorawan adapter failed to load device roster: %w", err)
	}

	log := logging.GetFromContext(ctx)

	registered := make([]Device, 0, len(infos))

	a.mu.Lock()
	for _, info := range infos {
		eui, err := NormalizeDevEUI(info.DevEUI)
		if err != nil {
			log.Warn().Err(err).Msg("skipping roster entry")
			continue
		}

		d := &Device{
			DevEUI:      eui,
			Name:        info.Name,
			Description: info.Description,
			Type:        InferSensorType(info.Name, info.Description),
		}
		a.devices[eui] = d
		registered = append(registered, *d)
	}
	a.mu.Unlock()

	log.Info().Msgf("loaded %d devices from network server", len(registered))

	now := a.now()
	for _, d := range registered {
		a.handler(ctx, Event{Type: EventRegistered, Device: d, Timestamp: now})
	}

	return nil
}

// Stop disconnects from the broker and clears the registry. Calling Stop more than once is safe.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.devices = make(map[string]*Device)
	a.mu.Unlock()

	if client != nil {
		client.Unsubscribe(a.Topics()...).WaitTimeout(time.Second)
		client.Disconnect(250)
	}

	return nil
}

func (a *Adapter) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client != nil && a.client.IsConnectionOpen()
}

func (a *Adapter) Devices() []Device {
	a.mu.Lock()
	defer a.mu.Unlock()

	devices := make([]Device, 0, len(a.devices))
	for _, d := range a.devices {
		devices = append(devices, *d)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].DevEUI < devices[j].DevEUI })

	return devices
}

// SendDownlink queues a downlink on the network server. There is no retry; the result tells
// the caller whether the network server accepted it.
func (a *Adapter) SendDownlink(ctx context.Context, devEUI string, fPort uint8, data []byte, confirmed bool) bool {
	log := logging.GetFromContext(ctx).With().Str("device_id", devEUI).Logger()

	eui, err := NormalizeDevEUI(devEUI)
	if err != nil {
		log.Warn().Err(err).Msg("downlink rejected")
		return false
	}

	a.mu.Lock()
	_, known := a.devices[eui]
	a.mu.Unlock()

	if !known {
		log.Warn().Err(ErrUnknownDevice).Msg("downlink rejected")
		return false
	}

	err = a.ns.EnqueueDownlink(ctx, Downlink{DevEUI: eui, FPort: fPort, Data: data, Confirmed: confirmed})
	if err != nil {
		log.Error().Err(err).Msg("failed to send downlink")
		return false
	}

	log.Debug().Uint8("fport", fPort).Bool("confirmed", confirmed).Msg("downlink queued")

	return true
}

// HandleMessage processes one event from the broker. Failures are logged and reported as
// error events, never returned.
func (a *Adapter) HandleMessage(ctx context.Context, topic string, payload []byte) {
	var err error
	ctx, span := tracer.Start(ctx, "handle-message")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	switch {
	case strings.HasSuffix(topic, "/event/up"):
		err = a.uplink(ctx, payload)
	case strings.HasSuffix(topic, "/event/join"):
		err = a.join(ctx, payload)
	case strings.HasSuffix(topic, "/event/status"):
		err = a.status(ctx, payload)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	if err != nil {
		log := logging.GetFromContext(ctx)
		log.Warn().Err(err).Str("topic", topic).Msg("dropping network server event")

		a.handler(ctx, Event{
			Type:      EventError,
			Device:    Device{DevEUI: deviceFromTopic(topic)},
			Timestamp: a.now(),
			Err:       err,
		})
	}
}

func (a *Adapter) uplink(ctx context.Context, payload []byte) error {
	var up uplinkEvent
	if err := json.Unmarshal(payload, &up); err != nil {
		return fmt.Errorf("failed to unmarshal uplink: %w", err)
	}

	eui, err := NormalizeDevEUI(up.eui())
	if err != nil {
		return err
	}

	data, err := base64.StdEncoding.DecodeString(up.Data)
	if err != nil {
		return fmt.Errorf("failed to decode uplink data for %s: %w", eui, err)
	}

	ts := a.now()
	if up.Time != nil {
		ts = up.Time.UTC()
	}

	a.mu.Lock()
	d, known := a.devices[eui]
	if !known {
		d = &Device{DevEUI: eui, Name: up.name(), Type: InferSensorType(up.name(), "")}
	}
	sensorType := d.Type
	a.mu.Unlock()

	m, err := Decode(sensorType, data)
	if err != nil {
		return fmt.Errorf("failed to decode payload from %s: %w", eui, err)
	}

	rssi, snr := up.signal()

	a.mu.Lock()
	if !known {
		a.devices[eui] = d
	}
	wasActive := d.Active
	d.Active = true
	d.LastSeen = ts
	d.FCnt = up.FCnt
	if rssi != nil {
		d.RSSI, d.SNR = rssi, snr
	}
	if m.BatteryLevel != nil {
		d.BatteryLevel = m.BatteryLevel
	}
	if m.Location != nil {
		d.Location = m.Location
	}
	snapshot := *d
	a.mu.Unlock()

	if !wasActive {
		a.handler(ctx, Event{Type: EventJoined, Device: snapshot, Timestamp: ts})
	}

	a.handler(ctx, Event{
		Type:        EventUplink,
		Device:      snapshot,
		Timestamp:   ts,
		FPort:       up.FPort,
		Measurement: &m,
	})

	return nil
}

func (a *Adapter) join(ctx context.Context, payload []byte) error {
	var j joinEvent
	if err := json.Unmarshal(payload, &j); err != nil {
		return fmt.Errorf("failed to unmarshal join event: %w", err)
	}

	eui, err := NormalizeDevEUI(j.eui())
	if err != nil {
		return err
	}

	now := a.now()

	a.mu.Lock()
	d, ok := a.devices[eui]
	if !ok {
		d = &Device{DevEUI: eui, Name: j.name(), Type: InferSensorType(j.name(), "")}
		a.devices[eui] = d
	}
	d.Active = true
	d.LastSeen = now
	d.FCnt = 0
	snapshot := *d
	a.mu.Unlock()

	log := logging.GetFromContext(ctx)
	log.Info().Str("device_id", eui).Str("dev_addr", j.DevAddr).Msg("device joined")

	a.handler(ctx, Event{Type: EventJoined, Device: snapshot, Timestamp: now})

	return nil
}

func (a *Adapter) status(ctx context.Context, payload []byte) error {
	var s statusEvent
	if err := json.Unmarshal(payload, &s); err != nil {
		return fmt.Errorf("failed to unmarshal status event: %w", err)
	}

	eui, err := NormalizeDevEUI(s.eui())
	if err != nil {
		return err
	}

	now := a.now()

	a.mu.Lock()
	d, ok := a.devices[eui]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: status for %s", ErrUnknownDevice, eui)
	}

	margin := s.Margin
	d.Margin = &margin
	d.ExternalPower = s.ExternalPowerSource
	d.LastSeen = now

	if !s.ExternalPowerSource && !s.BatteryLevelUnavailable {
		pct := int(s.BatteryLevel + 0.5)
		d.BatteryLevel = &pct
	}
	snapshot := *d
	a.mu.Unlock()

	a.handler(ctx, Event{Type: EventStatus, Device: snapshot, Timestamp: now})

	return nil
}

func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "device" {
			return parts[i+1]
		}
	}
	return ""
}
