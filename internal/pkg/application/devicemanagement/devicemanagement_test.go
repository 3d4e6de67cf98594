package devicemanagement

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/alarms"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/events"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/lorawan"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/proximity"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/tracker"
	"github.com/diwise/iot-device-gateway/pkg/types"
	"github.com/matryer/is"
)

func TestThatTrackerLoginAndLocationAreNormalized(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	a := useTracker(m)
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{
		ListenAddress: "127.0.0.1:0",
		Aliases:       map[string]string{"123456789012345": "TRK001"},
	}}))

	conn := dial(t, a.Addr())
	login(t, conn)

	connected := waitFor(t, msgs, types.TopicDeviceConnected).(*types.DeviceConnected)
	is.Equal(connected.Device.ID, "tracker:TRK001")

	send(t, conn, tracker.EncodeFrame(tracker.ProtocolLocation, tracker.EncodeLocation(position(15)), 2))

	reading := waitFor(t, msgs, types.TopicSensorReading).(*types.SensorReadingReceived)
	is.Equal(reading.Reading.DeviceID, "tracker:TRK001")
	is.Equal(reading.Reading.Data["batteryLevel"], 15)
	is.Equal(reading.Reading.Data["ignition"], true)
	is.Equal(reading.Reading.AlertLevel, types.AlertLevelWarning)

	waitFor(t, msgs, types.TopicAlert)

	active := m.GetActiveDevices(ctx)
	is.Equal(len(active), 1)
	is.Equal(active[0].ID, "tracker:TRK001")
	is.Equal(*active[0].BatteryLevel, 15)
	is.True(active[0].Location != nil)

	open := false
	alerts := m.GetAlerts(ctx, &open)
	is.Equal(len(alerts), 1)
	is.True(strings.Contains(strings.ToLower(alerts[0].Message), "battery"))
	is.Equal(alerts[0].Severity, types.AlertLevelWarning)
}

func TestThatSOSIsPublishedAsEmergencyBeforeBookkeeping(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	a := useTracker(m)
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{ListenAddress: "127.0.0.1:0"}}))

	conn := dial(t, a.Addr())
	login(t, conn)
	waitFor(t, msgs, types.TopicDeviceConnected)

	send(t, conn, tracker.EncodeFrame(tracker.ProtocolSOS, tracker.EncodeAlarm(position(80), 0x01), 3))

	first := next(t, msgs)
	is.Equal(first.TopicName(), types.TopicEmergencyAlert)

	emergency := first.(*types.EmergencyAlert)
	is.Equal(emergency.Alert.Severity, types.AlertLevelEmergency)
	is.Equal(emergency.Alert.Message, "SOS Emergency Alert")
	is.Equal(emergency.Alert.DeviceID, "tracker:123456789012345")
	is.True(emergency.Alert.Location != nil)

	waitFor(t, msgs, types.TopicDeviceUpdate)
}

func TestThatWeakProximitySignalIsNeverRegistered(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	scanned := make(chan struct{})
	scanner := &proximity.ScannerMock{
		EnableFunc: func() error { return nil },
		ScanFunc: func(ctx context.Context, found func(proximity.Advertisement)) error {
			found(proximity.Advertisement{Address: "aa:bb:cc:dd:ee:01", LocalName: "far away", RSSI: -90})
			found(proximity.Advertisement{Address: "aa:bb:cc:dd:ee:02", LocalName: "Asset Tag 2", RSSI: -60})
			close(scanned)
			<-ctx.Done()
			return nil
		},
	}
	m.scanner = scanner

	is.NoErr(m.Initialize(ctx, Config{Proximity: &proximity.Config{}}))

	select {
	case <-scanned:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner was never started")
	}

	devices := m.GetAllDevices(ctx)
	is.Equal(len(devices), 1)
	is.Equal(devices[0].ID, "proximity:aa:bb:cc:dd:ee:02")
	is.Equal(devices[0].Type, types.SensorTypeAssetTag)

	_, err := m.GetDevice(ctx, "proximity:aa:bb:cc:dd:ee:01")
	is.True(errors.Is(err, ErrDeviceNotFound))

	discovered := waitFor(t, msgs, types.TopicDeviceDiscovered).(*types.DeviceDiscovered)
	is.Equal(discovered.Device.NativeID, "aa:bb:cc:dd:ee:02")
	is.Equal(len(msgs), 0)
}

func TestThatEngineCommandsFailWithoutConnectedTracker(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	is.True(!m.CutOffEngine(ctx, "tracker:TRK001"))

	useTracker(m)
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{ListenAddress: "127.0.0.1:0"}}))

	is.True(!m.CutOffEngine(ctx, "tracker:TRK001"))
	is.True(!m.RestoreEngine(ctx, "TRK001"))
}

func TestThatEngineCommandsAreRoutedToTracker(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{}}))

	is.True(m.CutOffEngine(ctx, "tracker:TRK001"))
	is.True(m.RestoreEngine(ctx, "TRK002"))
	is.True(!m.CutOffEngine(ctx, "lorawan:0102030405060708"))

	is.Equal(ft.commands, []string{"cutoff TRK001", "restore TRK002"})
}

func TestThatDownlinksAreRoutedToLoRaWAN(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	is.True(!m.SendDownlink(ctx, "lorawan:0102030405060708", 10, []byte{0x01}, false))

	fl := &fakeLoRaWAN{}
	m.newLoRaWAN = func(lorawan.Config, lorawan.EventHandler) lorawanAdapter { return fl }
	is.NoErr(m.Initialize(ctx, Config{LoRaWAN: &lorawan.Config{}}))

	is.True(m.SendDownlink(ctx, "lorawan:0102030405060708", 10, []byte{0x01}, true))
	is.True(!m.SendDownlink(ctx, "tracker:TRK001", 10, []byte{0x01}, true))

	is.Equal(fl.downlinks, []string{"0102030405060708"})
}

func TestThatFailedAdapterStartRollsBackStartedAdapters(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{}
	fl := &fakeLoRaWAN{startErr: errors.New("broker unreachable")}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }
	m.newLoRaWAN = func(lorawan.Config, lorawan.EventHandler) lorawanAdapter { return fl }

	err := m.Initialize(ctx, Config{Tracker: &tracker.Config{}, LoRaWAN: &lorawan.Config{}})
	is.True(err != nil)
	is.Equal(ft.stops, 1)

	status := m.GetSystemStatus(ctx)
	is.True(!status.Tracker.Enabled)
	is.True(!status.LoRaWAN.Enabled)

	fl.startErr = nil
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{}, LoRaWAN: &lorawan.Config{}}))
	is.True(errors.Is(m.Initialize(ctx, Config{}), ErrAlreadyInitialized))
}

func TestThatFailedInitializeDiscardsRosterDevices(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ns := &lorawan.NetworkServerMock{
		ListDevicesFunc: func(ctx context.Context) ([]lorawan.DeviceInfo, error) {
			return []lorawan.DeviceInfo{{DevEUI: "0102030405060708", Name: "door-1"}}, nil
		},
	}
	m.lorawanOpts = append(m.lorawanOpts, lorawan.WithNetworkServer(ns))

	err := m.Initialize(ctx, Config{LoRaWAN: &lorawan.Config{ApplicationID: "1"}})
	is.True(err != nil)
	is.Equal(len(ns.ListDevicesCalls()), 1)

	is.Equal(len(m.GetAllDevices(ctx)), 0)

	status := m.GetSystemStatus(ctx)
	is.True(!status.LoRaWAN.Enabled)
	is.Equal(status.LoRaWAN.Devices, 0)
	is.Equal(status.TotalDevices, 0)
}

func TestThatFailedInitializeDiscardsAlertsRaisedDuringStartup(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{}
	fl := &fakeLoRaWAN{startErr: errors.New("broker unreachable")}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }
	m.newLoRaWAN = func(_ lorawan.Config, h lorawan.EventHandler) lorawanAdapter {
		fl.onStart = func(ctx context.Context) { h(ctx, doorTamper()) }
		return fl
	}

	err := m.Initialize(ctx, Config{Tracker: &tracker.Config{}, LoRaWAN: &lorawan.Config{}})
	is.True(err != nil)
	is.Equal(ft.stops, 1)

	is.Equal(len(m.GetAllDevices(ctx)), 0)
	is.Equal(len(m.GetAlerts(ctx, nil)), 0)
	is.Equal(m.GetSystemStatus(ctx).UnacknowledgedAlerts, 0)
}

func TestThatProximityRequiresScanner(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }

	err := m.Initialize(ctx, Config{Tracker: &tracker.Config{}, Proximity: &proximity.Config{}})
	is.True(errors.Is(err, ErrNoScanner))
	is.Equal(ft.stops, 1)
}

func TestThatAlertAcknowledgementKeepsFirstActor(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	m.handle(ctx, lorawanEvent(doorTamper()))

	alerts := m.GetAlerts(ctx, nil)
	is.Equal(len(alerts), 1)
	is.Equal(alerts[0].Severity, types.AlertLevelCritical)

	is.True(!m.AcknowledgeAlert(ctx, "no-such-alert", "alice"))
	is.True(m.AcknowledgeAlert(ctx, alerts[0].ID, "alice"))
	is.True(m.AcknowledgeAlert(ctx, alerts[0].ID, "bob"))

	acked := true
	alerts = m.GetAlerts(ctx, &acked)
	is.Equal(len(alerts), 1)
	is.Equal(alerts[0].AcknowledgedBy, "alice")

	is.Equal(count(drain(msgs), types.TopicAlertAcknowledged), 1)
}

func TestThatRepeatedAlertsAreMergedUntilAcknowledged(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	m.handle(ctx, lorawanEvent(doorTamper()))
	m.handle(ctx, lorawanEvent(doorTamper()))

	is.Equal(len(m.GetAlerts(ctx, nil)), 1)
	is.Equal(count(drain(msgs), types.TopicAlert), 1)
	is.Equal(m.GetSystemStatus(ctx).UnacknowledgedAlerts, 1)
}

func TestThatLostDevicesAreKeptAsInactive(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	d := proximity.Device{Address: "aa:bb:cc:dd:ee:03", Type: types.SensorTypeBeacon, RSSI: -50, Active: true, Proximity: types.ProximityNear}
	m.handle(ctx, proximityEvent(proximity.Event{Type: proximity.EventDiscovered, Device: d}))

	d.Active = false
	m.handle(ctx, proximityEvent(proximity.Event{Type: proximity.EventLost, Device: d}))

	is.Equal(len(m.GetActiveDevices(ctx)), 0)

	device, err := m.GetDevice(ctx, "aa:bb:cc:dd:ee:03")
	is.NoErr(err)
	is.True(!device.Active)

	published := drain(msgs)
	is.Equal(count(published, types.TopicDeviceDiscovered), 1)
	is.Equal(count(published, types.TopicDeviceLost), 1)
}

func TestThatAdapterErrorsArePublished(t *testing.T) {
	is, ctx, m, msgs := testSetup(t)

	m.handle(ctx, lorawanEvent(lorawan.Event{
		Type:   lorawan.EventError,
		Device: lorawan.Device{DevEUI: "0102030405060708"},
		Err:    lorawan.ErrPayloadTooShort,
	}))

	e := next(t, msgs).(*types.ErrorEvent)
	is.Equal(e.Transport, types.TransportLoRaWAN)
	is.Equal(e.DeviceID, "lorawan:0102030405060708")
	is.Equal(len(m.GetAllDevices(ctx)), 0)
}

func TestThatSystemStatusCountsDevicesPerTransport(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{online: true}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{}}))

	m.handle(ctx, trackerEvent(tracker.Event{Type: tracker.EventConnected, Device: tracker.Device{ID: "TRK001", Connected: true}}))
	m.handle(ctx, trackerEvent(tracker.Event{Type: tracker.EventConnected, Device: tracker.Device{ID: "TRK002", Connected: true}}))
	m.handle(ctx, trackerEvent(tracker.Event{Type: tracker.EventDisconnected, Device: tracker.Device{ID: "TRK002"}}))
	m.handle(ctx, lorawanEvent(doorTamper()))

	status := m.GetSystemStatus(ctx)
	is.True(status.Tracker.Enabled)
	is.True(status.Tracker.Online)
	is.Equal(status.Tracker.Devices, 2)
	is.Equal(status.LoRaWAN.Devices, 1)
	is.Equal(status.TotalDevices, 3)
	is.Equal(status.ActiveDevices, 2)
	is.Equal(status.UnacknowledgedAlerts, 1)

	is.Equal(len(m.GetDevicesByType(ctx, types.SensorTypeDoorSensor)), 1)
}

func TestThatShutdownClearsStateAndIsIdempotent(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	ft := &fakeTracker{}
	m.newTracker = func(tracker.Config, tracker.EventHandler) trackerAdapter { return ft }
	is.NoErr(m.Initialize(ctx, Config{Tracker: &tracker.Config{}}))

	m.handle(ctx, lorawanEvent(doorTamper()))

	is.NoErr(m.Shutdown(ctx))
	is.NoErr(m.Shutdown(ctx))

	is.Equal(ft.stops, 1)
	is.Equal(len(m.GetAllDevices(ctx)), 0)
	is.Equal(len(m.GetAlerts(ctx, nil)), 0)
	is.True(!m.GetSystemStatus(ctx).Tracker.Enabled)
}

func TestThatRegionsRequireProximity(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	err := m.RegisterBeaconRegion(ctx, types.BeaconRegion{ID: "lobby"})
	is.True(errors.Is(err, ErrProximityDisabled))
	is.Equal(len(m.GetBeaconRegions(ctx)), 0)
}

func TestThatBeaconRegionsAreManaged(t *testing.T) {
	is, ctx, m, _ := testSetup(t)

	m.scanner = &proximity.ScannerMock{
		EnableFunc: func() error { return nil },
		ScanFunc: func(ctx context.Context, found func(proximity.Advertisement)) error {
			found(proximity.Advertisement{Address: "aa:bb:cc:dd:ee:04", RSSI: -45})
			<-ctx.Done()
			return nil
		},
	}

	is.NoErr(m.Initialize(ctx, Config{Proximity: &proximity.Config{}}))
	is.NoErr(m.RegisterBeaconRegion(ctx, types.BeaconRegion{ID: "lobby", Name: "Lobby"}))
	is.Equal(len(m.GetBeaconRegions(ctx)), 1)

	_, err := m.GetDevicesInRegion(ctx, "cellar")
	is.True(errors.Is(err, proximity.ErrRegionNotFound))

	is.True(m.RemoveBeaconRegion(ctx, "lobby"))
	is.True(!m.RemoveBeaconRegion(ctx, "lobby"))
}

func testSetup(t *testing.T) (*is.I, context.Context, *manager, chan events.TopicMessage) {
	is := is.New(t)
	ctx := context.Background()

	msgs := make(chan events.TopicMessage, 64)

	bus := events.NewBus()
	bus.SubscribeAll(func(ctx context.Context, msg events.TopicMessage) {
		msgs <- msg
	})

	m := New(bus, alarms.New()).(*manager)

	t.Cleanup(func() {
		m.Shutdown(context.Background())
	})

	return is, ctx, m, msgs
}

func useTracker(m *manager) *trackerHandle {
	lt := &trackerHandle{}
	m.newTracker = func(cfg tracker.Config, h tracker.EventHandler) trackerAdapter {
		lt.Adapter = tracker.New(cfg, h)
		return lt.Adapter
	}
	return lt
}

type trackerHandle struct {
	*tracker.Adapter
}

func doorTamper() lorawan.Event {
	return lorawan.Event{
		Type:      lorawan.EventUplink,
		Timestamp: time.Now().UTC(),
		Device: lorawan.Device{
			DevEUI: "0102030405060708",
			Name:   "Back door",
			Type:   types.SensorTypeDoorSensor,
			Active: true,
		},
		FPort: 2,
		Measurement: &lorawan.Measurement{
			Data:       map[string]any{"open": false, "tamper": true},
			AlertLevel: types.AlertLevelCritical,
			AlertType:  "tamper",
			Message:    "Door sensor tamper detected",
		},
	}
}

func position(battery uint8) tracker.Position {
	return tracker.Position{
		Timestamp: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Latitude:  59.3293,
		Longitude: 18.0686,
		Speed:     40,
		Course:    180,
		Status:    tracker.Status{GPSFixed: true, Ignition: true, Battery: battery, GSMSignal: 4, Satellites: 9},
	}
}

func dial(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %s", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func login(t *testing.T, conn net.Conn) {
	t.Helper()

	imei, _ := hex.DecodeString("0123456789012345")
	send(t, conn, tracker.EncodeFrame(tracker.ProtocolLogin, imei, 1))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	ack := make([]byte, 10)
	if _, err := io.ReadFull(conn, ack); err != nil {
		t.Fatalf("no login ack: %s", err)
	}
}

func send(t *testing.T, conn net.Conn, frame []byte) {
	t.Helper()

	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("write failed: %s", err)
	}
}

func next(t *testing.T, msgs chan events.TopicMessage) events.TopicMessage {
	t.Helper()

	select {
	case msg := <-msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func waitFor(t *testing.T, msgs chan events.TopicMessage, topic string) events.TopicMessage {
	t.Helper()

	for {
		if msg := next(t, msgs); msg.TopicName() == topic {
			return msg
		}
	}
}

func drain(msgs chan events.TopicMessage) []events.TopicMessage {
	published := []events.TopicMessage{}
	for {
		select {
		case msg := <-msgs:
			published = append(published, msg)
		default:
			return published
		}
	}
}

func count(published []events.TopicMessage, topic string) int {
	n := 0
	for _, msg := range published {
		if msg.TopicName() == topic {
			n++
		}
	}
	return n
}

type fakeTracker struct {
	mu       sync.Mutex
	online   bool
	stops    int
	commands []string
}

func (f *fakeTracker) Start(context.Context) error { return nil }
func (f *fakeTracker) Online() bool                { return f.online }

func (f *fakeTracker) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeTracker) CutOffEngine(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, "cutoff "+id)
	return true
}

func (f *fakeTracker) RestoreEngine(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, "restore "+id)
	return true
}

type fakeLoRaWAN struct {
	startErr  error
	onStart   func(ctx context.Context)
	downlinks []string
}

func (f *fakeLoRaWAN) Start(ctx context.Context) error {
	if f.onStart != nil {
		f.onStart(ctx)
	}
	return f.startErr
}
func (f *fakeLoRaWAN) Stop(context.Context) error { return nil }
func (f *fakeLoRaWAN) Online() bool               { return f.startErr == nil }

func (f *fakeLoRaWAN) SendDownlink(_ context.Context, devEUI string, _ uint8, _ []byte, _ bool) bool {
	f.downlinks = append(f.downlinks, devEUI)
	return true
}
