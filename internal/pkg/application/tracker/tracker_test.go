package tracker

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/diwise/iot-device-gateway/pkg/types"
	"github.com/matryer/is"
)

func TestThatLoginIsAcknowledgedAndAliasIsApplied(t *testing.T) {
	is, _, a, events := testSetup(t, Config{Aliases: map[string]string{"123456789012345": "TRK001"}})

	conn := dial(t, a)
	write(t, conn, loginFrame)

	is.Equal(readFrame(t, conn), fixture(t, "787805010001d9dc0d0a"))

	e := next(t, events)
	is.Equal(e.Type, EventConnected)
	is.Equal(e.Device.ID, "TRK001")
	is.Equal(e.Device.IMEI, "123456789012345")
	is.True(a.IsConnected("TRK001"))
}

func TestThatLocationFrameEmitsLowBatteryWarning(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	write(t, conn, locationFrame)

	e := next(t, events)
	is.Equal(e.Type, EventLocation)
	is.Equal(e.Device.ID, "123456789012345")
	is.Equal(e.AlertLevel, types.AlertLevelWarning)
	is.Equal(e.AlertType, "low_battery")
	is.Equal(e.Status.BatteryPercent(), 15)
	is.True(e.Status.Ignition)
	is.True(e.Position != nil)
}

func TestThatSOSFrameEmitsEmergencyAndIsAcknowledged(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	write(t, conn, sosFrame)

	e := next(t, events)
	is.Equal(e.Type, EventSOS)
	is.Equal(e.AlertLevel, types.AlertLevelEmergency)
	is.Equal(e.Message, "SOS Emergency Alert")

	ack, err := ParseFrame(readFrame(t, conn))
	is.NoErr(err)
	is.Equal(ack.Protocol, ProtocolSOS)
	is.Equal(ack.Serial, uint16(3))
}

func TestThatFramesBeforeLoginAreDroppedWithoutClosingConnection(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, heartbeatFrame)

	e := next(t, events)
	is.Equal(e.Type, EventError)
	is.True(errors.Is(e.Err, ErrNotLoggedIn))

	write(t, conn, loginFrame)
	readFrame(t, conn)

	e = next(t, events)
	is.Equal(e.Type, EventConnected)
}

func TestThatMalformedFrameIsDroppedAndStreamContinues(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	corrupt := fixture(t, locationFrame)
	corrupt[12] ^= 0xFF
	_, err := conn.Write(append(corrupt, fixture(t, heartbeatFrame)...))
	is.NoErr(err)

	e := next(t, events)
	is.Equal(e.Type, EventError)
	is.True(errors.Is(e.Err, ErrBadChecksum))

	e = next(t, events)
	is.Equal(e.Type, EventHeartbeat)
}

func TestThatClosingConnectionEmitsDisconnect(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	conn.Close()

	e := next(t, events)
	is.Equal(e.Type, EventDisconnected)
	is.True(!e.Device.Connected)
	is.True(!a.IsConnected("123456789012345"))
}

func TestThatCutOffEngineFailsForUnknownDevice(t *testing.T) {
	is, ctx, a, _ := testSetup(t, Config{})
	is.True(!a.CutOffEngine(ctx, "no-such-device"))
}

func TestThatCutOffEngineResolvesOnCommandResponse(t *testing.T) {
	is, ctx, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	go func() {
		f, err := ParseFrame(readFrameOrNil(conn))
		if err != nil && !errors.Is(err, ErrUnknownProtocol) {
			return
		}
		flag := uint32(f.Body[1])<<24 | uint32(f.Body[2])<<16 | uint32(f.Body[3])<<8 | uint32(f.Body[4])
		conn.Write(EncodeCommandResponse(flag, "Cut off the fuel supply: Success!", 2))
	}()

	is.True(a.CutOffEngine(ctx, "123456789012345"))
}

func TestThatCommandTimesOutAsFailure(t *testing.T) {
	is, ctx, a, events := testSetup(t, Config{CommandTimeout: 100 * time.Millisecond})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	go io.Copy(io.Discard, conn)

	start := time.Now()
	is.True(!a.RestoreEngine(ctx, "123456789012345"))
	is.True(time.Since(start) >= 100*time.Millisecond)
}

func TestThatPendingCommandFailsOnShutdown(t *testing.T) {
	is, ctx, a, events := testSetup(t, Config{CommandTimeout: time.Minute})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	result := make(chan bool)
	go func() {
		result <- a.CutOffEngine(ctx, "123456789012345")
	}()

	readFrame(t, conn)
	is.NoErr(a.Stop(ctx))

	select {
	case ok := <-result:
		is.True(!ok)
	case <-time.After(2 * time.Second):
		t.Fatal("pending command did not resolve on shutdown")
	}

	is.NoErr(a.Stop(ctx))
	is.True(!a.Online())
	is.Equal(len(a.Devices()), 0)
}

func TestThatOnlyAcknowledgedProtocolsReceiveAnAck(t *testing.T) {
	is, _, a, events := testSetup(t, Config{})

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	write(t, conn, locationFrame)
	next(t, events)

	write(t, conn, heartbeatFrame)
	next(t, events)

	ack, err := ParseFrame(readFrame(t, conn))
	is.NoErr(err)
	is.Equal(ack.Protocol, ProtocolHeartbeat)
}

func TestThatTimedOutStopKeepsStateUntilConnectionsClose(t *testing.T) {
	is := is.New(t)

	release := make(chan struct{})
	events := make(chan Event, 32)

	a := New(Config{ListenAddress: "127.0.0.1:0"}, func(ctx context.Context, e Event) {
		if e.Type == EventLocation {
			<-release
		}
		events <- e
	})
	is.NoErr(a.Start(context.Background()))

	conn := dial(t, a)
	write(t, conn, loginFrame)
	readFrame(t, conn)
	next(t, events)

	write(t, conn, locationFrame)
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := a.Stop(ctx)
	is.True(errors.Is(err, context.DeadlineExceeded))

	close(release)

	is.Equal(next(t, events).Type, EventLocation)

	e := next(t, events)
	is.Equal(e.Type, EventDisconnected)
	is.Equal(e.Device.ID, "123456789012345")

	deadline := time.Now().Add(2 * time.Second)
	for len(a.Devices()) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	is.Equal(len(a.Devices()), 0)
}

func testSetup(t *testing.T, cfg Config) (*is.I, context.Context, *Adapter, chan Event) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan Event, 32)
	cfg.ListenAddress = "127.0.0.1:0"

	a := New(cfg, func(ctx context.Context, e Event) {
		events <- e
	})
	is.NoErr(a.Start(ctx))

	t.Cleanup(func() {
		a.Stop(context.Background())
		cancel()
	})

	return is, ctx, a, events
}

func dial(t *testing.T, a *Adapter) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %s", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func write(t *testing.T, conn net.Conn, frame string) {
	t.Helper()

	if _, err := conn.Write(fixture(t, frame)); err != nil {
		t.Fatalf("write failed: %s", err)
	}
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	b := readFrameOrNil(conn)
	if b == nil {
		t.Fatal("no frame received")
	}
	return b
}

func readFrameOrNil(conn net.Conn) []byte {
	header := make([]byte, 3)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil
	}

	rest := make([]byte, int(header[2])+2)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return nil
	}

	return append(header, rest...)
}

func next(t *testing.T, events chan Event) Event {
	t.Helper()

	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}
