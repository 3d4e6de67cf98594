package tracker

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sigurn/crc16"
)

const (
	ProtocolLogin           byte = 0x01
	ProtocolLocation        byte = 0x12
	ProtocolHeartbeat       byte = 0x13
	ProtocolCommandResponse byte = 0x15
	ProtocolAlarm           byte = 0x16
	ProtocolSOS             byte = 0x18
	ProtocolCommand         byte = 0x80
)

const (
	startByte    byte = 0x78
	stopByte1    byte = 0x0D
	stopByte2    byte = 0x0A
	headerLength int  = 4 // start(2) + length(1) + protocol(1)
	tailLength   int  = 6 // serial(2) + crc(2) + stop(2)
	minFrameSize int  = headerLength + tailLength

	coordinateScale float64 = 1800000.0
	locationBodyLen int     = 19
	alarmBodyLen    int     = locationBodyLen + 1
	imeiLength      int     = 8
)

var (
	ErrFrameTooShort   = errors.New("frame too short")
	ErrBadStartMarker  = errors.New("bad start marker")
	ErrBadStopMarker   = errors.New("bad stop marker")
	ErrBadChecksum     = errors.New("checksum mismatch")
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrBodyTooShort    = errors.New("body too short")
)

var crcTable = crc16.MakeTable(crc16.CRC16_X_25)

// Frame is one decoded protocol unit. Body excludes the protocol byte, serial and checksum.
type Frame struct {
	Protocol byte
	Body     []byte
	Serial   uint16
}

func knownProtocol(p byte) bool {
	switch p {
	case ProtocolLogin, ProtocolLocation, ProtocolHeartbeat, ProtocolCommandResponse, ProtocolAlarm, ProtocolSOS:
		return true
	}
	return false
}

// ParseFrame decodes exactly one frame from b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < minFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(b))
	}
	if b[0] != startByte || b[1] != startByte {
		return Frame{}, ErrBadStartMarker
	}

	length := int(b[2])
	if length < 5 || len(b) < length+5 {
		return Frame{}, fmt.Errorf("%w: length byte %d, got %d bytes", ErrFrameTooShort, length, len(b))
	}

	end := 3 + length
	if b[end] != stopByte1 || b[end+1] != stopByte2 {
		return Frame{}, ErrBadStopMarker
	}

	want := binary.BigEndian.Uint16(b[end-2 : end])
	if got := crc16.Checksum(b[2:end-2], crcTable); got != want {
		return Frame{}, fmt.Errorf("%w: expected %04x, calculated %04x", ErrBadChecksum, want, got)
	}

	f := Frame{
		Protocol: b[3],
		Body:     append([]byte(nil), b[4:end-4]...),
		Serial:   binary.BigEndian.Uint16(b[end-4 : end-2]),
	}

	if !knownProtocol(f.Protocol) {
		return f, fmt.Errorf("%w: 0x%02x", ErrUnknownProtocol, f.Protocol)
	}

	return f, nil
}

// EncodeFrame builds a complete frame including checksum and stop marker.
func EncodeFrame(protocol byte, body []byte, serial uint16) []byte {
	length := 1 + len(body) + 4

	b := make([]byte, 0, length+5)
	b = append(b, startByte, startByte, byte(length), protocol)
	b = append(b, body...)
	b = binary.BigEndian.AppendUint16(b, serial)
	b = binary.BigEndian.AppendUint16(b, crc16.Checksum(b[2:], crcTable))
	b = append(b, stopByte1, stopByte2)

	return b
}

// Ack returns the acknowledgement a device expects for the given frame.
func Ack(f Frame) []byte {
	return EncodeFrame(f.Protocol, nil, f.Serial)
}

func requiresAck(protocol byte) bool {
	switch protocol {
	case ProtocolLogin, ProtocolHeartbeat, ProtocolAlarm, ProtocolSOS:
		return true
	}
	return false
}

// NextFrame locates the first complete frame in buf. It returns the frame bytes and the
// number of bytes consumed. A nil frame with consumed > 0 means leading garbage was skipped,
// and a nil frame with consumed == 0 means more data is needed.
func NextFrame(buf []byte) (frame []byte, consumed int) {
	start := -1
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == startByte && buf[i+1] == startByte {
			start = i
			break
		}
	}

	if start < 0 {
		if len(buf) > 0 && buf[len(buf)-1] == startByte {
			return nil, len(buf) - 1
		}
		return nil, len(buf)
	}

	if start > 0 {
		return nil, start
	}

	if len(buf) < 3 {
		return nil, 0
	}

	total := int(buf[2]) + 5
	if len(buf) < total {
		return nil, 0
	}

	return buf[:total], total
}

// IMEI renders the BCD encoded identity from a login body.
func IMEI(body []byte) (string, error) {
	if len(body) < imeiLength {
		return "", fmt.Errorf("%w: login body is %d bytes", ErrBodyTooShort, len(body))
	}

	imei := hex.EncodeToString(body[:imeiLength])
	if len(imei) == 16 && imei[0] == '0' {
		imei = imei[1:]
	}

	return imei, nil
}

// Status is the packed status word carried by location, heartbeat and alarm frames.
//
//	bit 15     gps fix
//	bit 14     ignition (acc)
//	bits 7-13  battery
//	bits 4-6   gsm signal
//	bits 0-3   satellites
type Status struct {
	GPSFixed   bool
	Ignition   bool
	Battery    uint8
	GSMSignal  uint8
	Satellites uint8
}

func DecodeStatus(w uint16) Status {
	return Status{
		GPSFixed:   w&0x8000 != 0,
		Ignition:   w&0x4000 != 0,
		Battery:    uint8((w >> 7) & 0x7F),
		GSMSignal:  uint8((w >> 4) & 0x07),
		Satellites: uint8(w & 0x0F),
	}
}

func EncodeStatus(s Status) uint16 {
	var w uint16
	if s.GPSFixed {
		w |= 0x8000
	}
	if s.Ignition {
		w |= 0x4000
	}
	w |= uint16(s.Battery&0x7F) << 7
	w |= uint16(s.GSMSignal&0x07) << 4
	w |= uint16(s.Satellites & 0x0F)
	return w
}

// BatteryPercent clamps the raw battery field to 0-100.
func (s Status) BatteryPercent() int {
	if s.Battery > 100 {
		return 100
	}
	return int(s.Battery)
}

func decodeTimestamp(b []byte) (time.Time, error) {
	if len(b) < 6 {
		return time.Time{}, ErrBodyTooShort
	}
	if b[1] < 1 || b[1] > 12 || b[2] < 1 || b[2] > 31 || b[3] > 23 || b[4] > 59 || b[5] > 59 {
		return time.Time{}, fmt.Errorf("invalid timestamp % x", b[:6])
	}
	return time.Date(2000+int(b[0]), time.Month(b[1]), int(b[2]), int(b[3]), int(b[4]), int(b[5]), 0, time.UTC), nil
}

func encodeTimestamp(t time.Time) []byte {
	t = t.UTC()
	return []byte{byte(t.Year() - 2000), byte(t.Month()), byte(t.Day()), byte(t.Hour()), byte(t.Minute()), byte(t.Second())}
}

type Position struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Speed     int
	Course    int
	Status    Status
}

// DecodeLocation decodes the body of a location frame. Alarm and SOS bodies share this prefix.
func DecodeLocation(body []byte) (Position, error) {
	if len(body) < locationBodyLen {
		return Position{}, fmt.Errorf("%w: location body is %d bytes", ErrBodyTooShort, len(body))
	}

	ts, err := decodeTimestamp(body[0:6])
	if err != nil {
		return Position{}, err
	}

	return Position{
		Timestamp: ts,
		Latitude:  float64(int32(binary.BigEndian.Uint32(body[6:10]))) / coordinateScale,
		Longitude: float64(int32(binary.BigEndian.Uint32(body[10:14]))) / coordinateScale,
		Speed:     int(body[14]),
		Course:    int(binary.BigEndian.Uint16(body[15:17])),
		Status:    DecodeStatus(binary.BigEndian.Uint16(body[17:19])),
	}, nil
}

func EncodeLocation(p Position) []byte {
	b := make([]byte, 0, locationBodyLen)
	b = append(b, encodeTimestamp(p.Timestamp)...)
	b = binary.BigEndian.AppendUint32(b, uint32(int32(scaleCoordinate(p.Latitude))))
	b = binary.BigEndian.AppendUint32(b, uint32(int32(scaleCoordinate(p.Longitude))))
	b = append(b, byte(p.Speed))
	b = binary.BigEndian.AppendUint16(b, uint16(p.Course))
	b = binary.BigEndian.AppendUint16(b, EncodeStatus(p.Status))
	return b
}

func scaleCoordinate(deg float64) int64 {
	v := deg * coordinateScale
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}

type Alarm struct {
	Position
	Code     byte
	Type     string
	Message  string
	Critical bool
}

type alarmInfo struct {
	alarmType string
	message   string
	critical  bool
}

var alarmTable = map[byte]alarmInfo{
	0x01: {"sos", "SOS Emergency Alert", true},
	0x02: {"power_cut", "Power Cut Alarm", true},
	0x03: {"vibration", "Vibration Alarm", false},
	0x04: {"geofence_enter", "Entered Geofence", false},
	0x05: {"geofence_exit", "Exited Geofence", false},
	0x06: {"overspeed", "Overspeed Alarm", false},
	0x09: {"movement", "Movement Alarm", false},
	0x0E: {"low_battery", "Low Battery Alarm", false},
	0x13: {"tamper", "Tamper Alarm", true},
}

func lookupAlarm(code byte) alarmInfo {
	if a, ok := alarmTable[code]; ok {
		return a
	}
	return alarmInfo{alarmType: "unknown", message: fmt.Sprintf("Unknown Alarm (%d)", code)}
}

func DecodeAlarm(body []byte) (Alarm, error) {
	if len(body) < alarmBodyLen {
		return Alarm{}, fmt.Errorf("%w: alarm body is %d bytes", ErrBodyTooShort, len(body))
	}

	p, err := DecodeLocation(body)
	if err != nil {
		return Alarm{}, err
	}

	code := body[locationBodyLen]
	info := lookupAlarm(code)

	return Alarm{
		Position: p,
		Code:     code,
		Type:     info.alarmType,
		Message:  info.message,
		Critical: info.critical,
	}, nil
}

func EncodeAlarm(p Position, code byte) []byte {
	return append(EncodeLocation(p), code)
}

const (
	CommandCutOffEngine  = "RELAY,1#"
	CommandRestoreEngine = "RELAY,0#"
)

// EncodeCommand builds a server command frame. The server flag correlates the response.
func EncodeCommand(command string, serverFlag uint32, serial uint16) []byte {
	body := make([]byte, 0, 5+len(command))
	body = append(body, byte(4+len(command)))
	body = binary.BigEndian.AppendUint32(body, serverFlag)
	body = append(body, command...)
	return EncodeFrame(ProtocolCommand, body, serial)
}

type CommandResponse struct {
	ServerFlag uint32
	Content    string
}

// Success reports whether the device accepted the command.
func (r CommandResponse) Success() bool {
	c := strings.ToUpper(r.Content)
	return !strings.Contains(c, "FAIL") && !strings.Contains(c, "ERROR")
}

func DecodeCommandResponse(body []byte) (CommandResponse, error) {
	if len(body) < 5 {
		return CommandResponse{}, fmt.Errorf("%w: command response body is %d bytes", ErrBodyTooShort, len(body))
	}

	n := int(body[0])
	if n < 4 || len(body) < 1+n {
		return CommandResponse{}, fmt.Errorf("%w: command length %d, body %d bytes", ErrBodyTooShort, n, len(body))
	}

	return CommandResponse{
		ServerFlag: binary.BigEndian.Uint32(body[1:5]),
		Content:    string(body[5 : 1+n]),
	}, nil
}

func EncodeCommandResponse(serverFlag uint32, content string, serial uint16) []byte {
	body := make([]byte, 0, 5+len(content))
	body = append(body, byte(4+len(content)))
	body = binary.BigEndian.AppendUint32(body, serverFlag)
	body = append(body, content...)
	return EncodeFrame(ProtocolCommandResponse, body, serial)
}
