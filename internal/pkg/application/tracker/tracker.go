package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-device-gateway/pkg/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-device-gateway/tracker")

var ErrNotConnected = errors.New("device not connected")
var ErrNotLoggedIn = errors.New("frame received before login")

const (
	DefaultListenAddress  = ":5023"
	DefaultCommandTimeout = 10 * time.Second
	lowBatteryThreshold   = 20
)

type Config struct {
	ListenAddress  string            `mapstructure:"listenAddress"`
	CommandTimeout time.Duration     `mapstructure:"commandTimeout"`
	Aliases        map[string]string `mapstructure:"aliases"`
}

type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventLocation
	EventHeartbeat
	EventAlarm
	EventSOS
	EventError
)

func (t EventType) String() string {
	return [...]string{"connected", "disconnected", "location", "heartbeat", "alarm", "sos", "error"}[t]
}

type Device struct {
	ID         string
	IMEI       string
	Connected  bool
	RemoteAddr string
	LastSeen   time.Time
	Status     Status
	Position   *Position
}

// Event is emitted for every change a tracker connection produces. Location, heartbeat,
// alarm and SOS events carry the alert level computed from the frame.
type Event struct {
	Type       EventType
	Device     Device
	Timestamp  time.Time
	Position   *Position
	Status     Status
	AlarmCode  byte
	AlertType  string
	AlertLevel types.AlertLevel
	Message    string
	Err        error
}

type EventHandler func(ctx context.Context, e Event)

type Adapter struct {
	cfg     Config
	handler EventHandler

	mu       sync.Mutex
	listener net.Listener
	running  bool
	closing  chan struct{}
	conns    map[string]*connection
	open     map[*connection]struct{}
	devices  map[string]*Device
	pending  map[uint32]chan bool
	flag     uint32
	wg       sync.WaitGroup

	now func() time.Time
}

func New(cfg Config, handler EventHandler) *Adapter {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if handler == nil {
		handler = func(context.Context, Event) {}
	}

	return &Adapter{
		cfg:     cfg,
		handler: handler,
		conns:   make(map[string]*connection),
		open:    make(map[*connection]struct{}),
		devices: make(map[string]*Device),
		pending: make(map[uint32]chan bool),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start binds the listen address and begins accepting tracker connections.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	l, err := net.Listen("tcp", a.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("tracker adapter failed to listen on %s: %w", a.cfg.ListenAddress, err)
	}

	a.listener = l
	a.running = true
	a.closing = make(chan struct{})

	log := logging.GetFromContext(ctx)
	log.Info().Str("address", l.Addr().String()).Msg("tracker adapter listening")

	a.wg.Add(1)
	go a.accept(ctx, l)

	return nil
}

func (a *Adapter) accept(ctx context.Context, l net.Listener) {
	defer a.wg.Done()

	log := logging.GetFromContext(ctx)

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error().Err(err).Msg("failed to accept tracker connection")
			continue
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.ServeConn(ctx, conn)
		}()
	}
}

// Addr returns the bound listener address, or nil when not started.
func (a *Adapter) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Stop closes the listener and every open connection, fails any pending commands and
// clears device state. Calling Stop more than once is safe.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}

	a.running = false
	close(a.closing)

	var err error
	if a.listener != nil {
		err = a.listener.Close()
		a.listener = nil
	}

	for c := range a.open {
		c.conn.Close()
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.reset()
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
		// connection goroutines may still be closing, so state is cleared once they exit
		go func() {
			<-done
			a.reset()
		}()
	}

	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	return err
}

func (a *Adapter) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return
	}

	a.conns = make(map[string]*connection)
	a.open = make(map[*connection]struct{})
	a.devices = make(map[string]*Device)
	a.pending = make(map[uint32]chan bool)
}

func (a *Adapter) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Adapter) Devices() []Device {
	a.mu.Lock()
	defer a.mu.Unlock()

	devices := make([]Device, 0, len(a.devices))
	for _, d := range a.devices {
		devices = append(devices, *d)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	return devices
}

func (a *Adapter) IsConnected(deviceID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.conns[deviceID]
	return ok
}

func (a *Adapter) CutOffEngine(ctx context.Context, deviceID string) bool {
	return a.sendCommand(ctx, deviceID, CommandCutOffEngine)
}

func (a *Adapter) RestoreEngine(ctx context.Context, deviceID string) bool {
	return a.sendCommand(ctx, deviceID, CommandRestoreEngine)
}

func (a *Adapter) sendCommand(ctx context.Context, deviceID, command string) bool {
	log := logging.GetFromContext(ctx).With().Str("device_id", deviceID).Str("command", command).Logger()

	a.mu.Lock()
	c, ok := a.conns[deviceID]
	if !ok || !a.running {
		a.mu.Unlock()
		log.Warn().Err(ErrNotConnected).Msg("unable to send command")
		return false
	}

	a.flag++
	flag := a.flag
	result := make(chan bool, 1)
	a.pending[flag] = result
	closing := a.closing
	timeout := a.cfg.CommandTimeout
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.pending, flag)
		a.mu.Unlock()
	}()

	if err := c.write(EncodeCommand(command, flag, c.nextSerial())); err != nil {
		log.Error().Err(err).Msg("failed to write command frame")
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ok := <-result:
		log.Info().Bool("success", ok).Msg("command response received")
		return ok
	case <-timer.C:
		log.Warn().Msgf("no command response within %s", timeout)
		return false
	case <-ctx.Done():
		return false
	case <-closing:
		return false
	}
}

func (a *Adapter) resolveCommand(resp CommandResponse) bool {
	a.mu.Lock()
	result, ok := a.pending[resp.ServerFlag]
	delete(a.pending, resp.ServerFlag)
	a.mu.Unlock()

	if !ok {
		return false
	}

	result <- resp.Success()
	return true
}

type connection struct {
	conn     net.Conn
	wmu      sync.Mutex
	serial   uint16
	deviceID string
	imei     string
}

func (c *connection) write(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

func (c *connection) nextSerial() uint16 {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.serial++
	return c.serial
}

// ServeConn runs the protocol state machine for one tracker connection until it closes.
func (a *Adapter) ServeConn(ctx context.Context, conn net.Conn) {
	c := &connection{conn: conn}

	a.mu.Lock()
	a.open[c] = struct{}{}
	a.mu.Unlock()

	log := logging.GetFromContext(ctx).With().Str("remote_addr", remoteAddr(conn)).Logger()
	log.Debug().Msg("tracker connected")

	defer a.closeConn(ctx, c, log)

	var pending []byte
	buf := make([]byte, 1024)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = a.drain(ctx, c, pending, log)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warn().Err(err).Msg("tracker connection read failed")
			}
			return
		}
	}
}

func (a *Adapter) drain(ctx context.Context, c *connection, pending []byte, log zerolog.Logger) []byte {
	for {
		frame, consumed := NextFrame(pending)
		if consumed == 0 {
			return pending
		}

		if frame == nil {
			log.Debug().Msgf("skipping %d bytes of noise", consumed)
			pending = pending[consumed:]
			continue
		}

		f, err := ParseFrame(frame)
		if errors.Is(err, ErrBadStopMarker) {
			log.Warn().Str("frame", fmt.Sprintf("% x", frame)).Msg("misaligned frame, resynchronizing")
			pending = pending[2:]
			continue
		}

		pending = pending[consumed:]

		if err != nil {
			log.Warn().Err(err).Str("frame", fmt.Sprintf("% x", frame)).Msg("dropping malformed frame")
			a.emitError(ctx, c, err)
			continue
		}

		if err = a.handleFrame(ctx, c, f); err != nil {
			log.Warn().Err(err).Str("frame", fmt.Sprintf("% x", frame)).Msg("failed to handle frame")
			a.emitError(ctx, c, err)
		}
	}
}

// handleFrame dispatches f and then writes the acknowledgement, if the protocol has one,
// before the next frame on the connection is read.
func (a *Adapter) handleFrame(ctx context.Context, c *connection, f Frame) (err error) {
	ctx, span := tracer.Start(ctx, "handle-frame")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = a.dispatch(ctx, c, f); err != nil {
		return err
	}

	if requiresAck(f.Protocol) {
		if err = c.write(Ack(f)); err != nil {
			return fmt.Errorf("failed to acknowledge protocol 0x%02x: %w", f.Protocol, err)
		}
	}

	return nil
}

func (a *Adapter) dispatch(ctx context.Context, c *connection, f Frame) error {
	if f.Protocol == ProtocolLogin {
		return a.login(ctx, c, f)
	}

	if c.deviceID == "" {
		return fmt.Errorf("%w: protocol 0x%02x", ErrNotLoggedIn, f.Protocol)
	}

	switch f.Protocol {
	case ProtocolSOS:
		return a.sos(ctx, c, f)
	case ProtocolAlarm:
		return a.alarm(ctx, c, f)
	case ProtocolLocation:
		return a.location(ctx, c, f)
	case ProtocolHeartbeat:
		return a.heartbeat(ctx, c, f)
	case ProtocolCommandResponse:
		resp, err := DecodeCommandResponse(f.Body)
		if err != nil {
			return err
		}
		if !a.resolveCommand(resp) {
			log := logging.GetFromContext(ctx)
			log.Debug().Str("device_id", c.deviceID).Msgf("unsolicited command response %q", resp.Content)
		}
		return nil
	}

	return fmt.Errorf("%w: 0x%02x", ErrUnknownProtocol, f.Protocol)
}

func (a *Adapter) login(ctx context.Context, c *connection, f Frame) error {
	imei, err := IMEI(f.Body)
	if err != nil {
		return err
	}

	id := imei
	if alias, ok := a.cfg.Aliases[imei]; ok && alias != "" {
		id = alias
	}

	now := a.now()

	a.mu.Lock()
	c.deviceID, c.imei = id, imei
	a.conns[id] = c

	d, ok := a.devices[id]
	if !ok {
		d = &Device{ID: id, IMEI: imei}
		a.devices[id] = d
	}
	d.Connected = true
	d.RemoteAddr = remoteAddr(c.conn)
	d.LastSeen = now
	snapshot := *d
	a.mu.Unlock()

	log := logging.GetFromContext(ctx)
	log.Info().Str("device_id", id).Str("imei", imei).Msg("tracker logged in")

	a.handler(ctx, Event{Type: EventConnected, Device: snapshot, Timestamp: now})

	return nil
}

func (a *Adapter) location(ctx context.Context, c *connection, f Frame) error {
	p, err := DecodeLocation(f.Body)
	if err != nil {
		return err
	}

	d := a.touch(c, &p, p.Status)

	level, alertType, msg := batteryLevel(p.Status)
	a.handler(ctx, Event{
		Type:       EventLocation,
		Device:     d,
		Timestamp:  p.Timestamp,
		Position:   &p,
		Status:     p.Status,
		AlertType:  alertType,
		AlertLevel: level,
		Message:    msg,
	})

	return nil
}

func (a *Adapter) heartbeat(ctx context.Context, c *connection, f Frame) error {
	if len(f.Body) < 2 {
		return fmt.Errorf("%w: heartbeat body is %d bytes", ErrBodyTooShort, len(f.Body))
	}

	status := DecodeStatus(uint16(f.Body[0])<<8 | uint16(f.Body[1]))
	d := a.touch(c, nil, status)

	level, alertType, msg := batteryLevel(status)
	a.handler(ctx, Event{
		Type:       EventHeartbeat,
		Device:     d,
		Timestamp:  d.LastSeen,
		Status:     status,
		AlertType:  alertType,
		AlertLevel: level,
		Message:    msg,
	})

	return nil
}

func (a *Adapter) alarm(ctx context.Context, c *connection, f Frame) error {
	alarm, err := DecodeAlarm(f.Body)
	if err != nil {
		return err
	}

	d := a.touch(c, &alarm.Position, alarm.Status)

	level := types.AlertLevelWarning
	if alarm.Critical {
		level = types.AlertLevelCritical
	}
	if alarm.Type == "sos" {
		level = types.AlertLevelEmergency
	}

	a.handler(ctx, Event{
		Type:       EventAlarm,
		Device:     d,
		Timestamp:  alarm.Timestamp,
		Position:   &alarm.Position,
		Status:     alarm.Status,
		AlarmCode:  alarm.Code,
		AlertType:  alarm.Type,
		AlertLevel: level,
		Message:    alarm.Message,
	})

	return nil
}

// sos emits the emergency before any bookkeeping and before the acknowledgement. The body
// may omit position data.
func (a *Adapter) sos(ctx context.Context, c *connection, f Frame) error {
	e := Event{
		Type:       EventSOS,
		Timestamp:  a.now(),
		AlertType:  "sos",
		AlertLevel: types.AlertLevelEmergency,
		Message:    "SOS Emergency Alert",
	}

	if p, err := DecodeLocation(f.Body); err == nil {
		e.Position = &p
		e.Status = p.Status
		e.Timestamp = p.Timestamp
		if len(f.Body) > locationBodyLen {
			e.AlarmCode = f.Body[locationBodyLen]
		}
	}

	a.mu.Lock()
	if d, ok := a.devices[c.deviceID]; ok {
		e.Device = *d
	}
	a.mu.Unlock()

	if e.Position != nil {
		e.Device.Position = e.Position
	}

	a.handler(ctx, e)

	a.touch(c, e.Position, e.Status)

	return nil
}

func (a *Adapter) touch(c *connection, p *Position, status Status) Device {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.devices[c.deviceID]
	if !ok {
		d = &Device{ID: c.deviceID, IMEI: c.imei, Connected: true}
		a.devices[c.deviceID] = d
	}

	d.LastSeen = a.now()
	d.Status = status
	if p != nil {
		cp := *p
		d.Position = &cp
	}

	return *d
}

func (a *Adapter) closeConn(ctx context.Context, c *connection, log zerolog.Logger) {
	c.conn.Close()

	a.mu.Lock()
	delete(a.open, c)

	var snapshot *Device
	if c.deviceID != "" && a.conns[c.deviceID] == c {
		delete(a.conns, c.deviceID)
		if d, ok := a.devices[c.deviceID]; ok {
			d.Connected = false
			cp := *d
			snapshot = &cp
		}
	}
	a.mu.Unlock()

	log.Debug().Str("device_id", c.deviceID).Msg("tracker disconnected")

	if snapshot != nil {
		a.handler(ctx, Event{Type: EventDisconnected, Device: *snapshot, Timestamp: a.now()})
	}
}

func (a *Adapter) emitError(ctx context.Context, c *connection, err error) {
	e := Event{Type: EventError, Timestamp: a.now(), Err: err}
	e.Device.ID = c.deviceID
	e.Device.IMEI = c.imei
	a.handler(ctx, e)
}

func batteryLevel(s Status) (types.AlertLevel, string, string) {
	if pct := s.BatteryPercent(); pct < lowBatteryThreshold {
		return types.AlertLevelWarning, "low_battery", fmt.Sprintf("Low battery: %d%%", pct)
	}
	return types.AlertLevelNormal, "", ""
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
