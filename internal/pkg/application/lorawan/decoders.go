package lorawan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

var ErrPayloadTooShort = errors.New("payload too short")
var ErrUnsupportedSensorType = errors.New("unsupported sensor type")

const (
	lowBatteryThreshold int     = 20
	minTemperature      float64 = -10.0
	maxTemperature      float64 = 50.0
	maxHumidity         float64 = 80.0
	coordinateScale     float64 = 1000000.0
)

// Measurement is the decoded content of one uplink together with the alert level it implies.
type Measurement struct {
	Data         map[string]any
	AlertLevel   types.AlertLevel
	AlertType    string
	Message      string
	BatteryLevel *int
	Location     *types.Location
}

func (m *Measurement) raise(level types.AlertLevel, alertType, msg string) {
	if level > m.AlertLevel {
		m.AlertLevel = level
		m.AlertType = alertType
	}

	if m.Message == "" {
		m.Message = msg
	} else {
		m.Message = m.Message + "; " + msg
	}
}

func (m *Measurement) battery(payload []byte, offset int) {
	if len(payload) <= offset {
		return
	}

	pct := int(payload[offset])
	m.BatteryLevel = &pct
	m.Data["batteryLevel"] = pct

	if pct < lowBatteryThreshold {
		m.raise(types.AlertLevelWarning, "low_battery", fmt.Sprintf("Low battery: %d%%", pct))
	}
}

type decoderFunc func(payload []byte) (Measurement, error)

var decoders = map[types.SensorType]decoderFunc{
	types.SensorTypeGPSTracker:          decodeGPS,
	types.SensorTypeAssetTag:            decodeGPS,
	types.SensorTypeDoorSensor:          decodeDoor,
	types.SensorTypeMotionDetector:      decodeMotion,
	types.SensorTypePanicButton:         decodePanicButton,
	types.SensorTypeTemperatureHumidity: decodeTemperatureHumidity,
	types.SensorTypeFuelLevel:           decodeFuelLevel,
}

// Decode converts a raw uplink payload for the given sensor type.
func Decode(sensorType types.SensorType, payload []byte) (Measurement, error) {
	decoder, ok := decoders[sensorType]
	if !ok {
		return Measurement{}, fmt.Errorf("%w: %s", ErrUnsupportedSensorType, sensorType)
	}
	return decoder(payload)
}

func short(sensorType types.SensorType, need int, payload []byte) error {
	return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrPayloadTooShort, sensorType, need, len(payload))
}

func decodeGPS(payload []byte) (Measurement, error) {
	if len(payload) < 8 {
		return Measurement{}, short(types.SensorTypeGPSTracker, 8, payload)
	}

	lat := float64(int32(binary.BigEndian.Uint32(payload[0:4]))) / coordinateScale
	lon := float64(int32(binary.BigEndian.Uint32(payload[4:8]))) / coordinateScale

	m := Measurement{
		Data: map[string]any{
			"latitude":  lat,
			"longitude": lon,
		},
		Location: &types.Location{Latitude: lat, Longitude: lon},
	}
	m.battery(payload, 8)

	return m, nil
}

func decodeDoor(payload []byte) (Measurement, error) {
	if len(payload) < 1 {
		return Measurement{}, short(types.SensorTypeDoorSensor, 1, payload)
	}

	open := payload[0] != 0
	m := Measurement{Data: map[string]any{"doorOpen": open}}

	if open {
		m.raise(types.AlertLevelWarning, "door_open", "Door opened")
	}

	m.battery(payload, 1)

	if len(payload) > 2 {
		tamper := payload[2] != 0
		m.Data["tamper"] = tamper
		if tamper {
			m.raise(types.AlertLevelCritical, "tamper", "Tamper detected")
		}
	}

	return m, nil
}

func decodeMotion(payload []byte) (Measurement, error) {
	if len(payload) < 1 {
		return Measurement{}, short(types.SensorTypeMotionDetector, 1, payload)
	}

	m := Measurement{Data: map[string]any{"motion": payload[0] != 0}}
	m.battery(payload, 1)

	return m, nil
}

func decodePanicButton(payload []byte) (Measurement, error) {
	if len(payload) < 1 {
		return Measurement{}, short(types.SensorTypePanicButton, 1, payload)
	}

	pressed := payload[0] != 0
	m := Measurement{Data: map[string]any{"pressed": pressed}}

	if pressed {
		m.raise(types.AlertLevelEmergency, "panic", "Panic button pressed")
	}

	m.battery(payload, 1)

	return m, nil
}

func decodeTemperatureHumidity(payload []byte) (Measurement, error) {
	if len(payload) < 4 {
		return Measurement{}, short(types.SensorTypeTemperatureHumidity, 4, payload)
	}

	temp := float64(int16(binary.BigEndian.Uint16(payload[0:2]))) / 100.0
	humidity := float64(binary.BigEndian.Uint16(payload[2:4])) / 100.0

	m := Measurement{
		Data: map[string]any{
			"temperature": temp,
			"humidity":    humidity,
		},
	}

	if temp < minTemperature || temp > maxTemperature {
		m.raise(types.AlertLevelWarning, "temperature", fmt.Sprintf("Temperature out of range: %.1f°C", temp))
	}
	if humidity > maxHumidity {
		m.raise(types.AlertLevelWarning, "humidity", fmt.Sprintf("High humidity: %.1f%%", humidity))
	}

	m.battery(payload, 4)

	return m, nil
}

func decodeFuelLevel(payload []byte) (Measurement, error) {
	if len(payload) < 1 {
		return Measurement{}, short(types.SensorTypeFuelLevel, 1, payload)
	}

	m := Measurement{Data: map[string]any{"fuelLevel": int(payload[0])}}
	m.battery(payload, 1)

	return m, nil
}

var sensorKeywords = []struct {
	keywords   []string
	sensorType types.SensorType
}{
	{[]string{"gps", "tracker"}, types.SensorTypeGPSTracker},
	{[]string{"door", "entry"}, types.SensorTypeDoorSensor},
	{[]string{"motion", "pir", "occupancy"}, types.SensorTypeMotionDetector},
	{[]string{"temp", "humid", "climate"}, types.SensorTypeTemperatureHumidity},
	{[]string{"panic", "sos", "emergency"}, types.SensorTypePanicButton},
	{[]string{"fuel", "tank"}, types.SensorTypeFuelLevel},
}

// InferSensorType matches the device name and description against a fixed keyword priority
// list. Devices matching nothing are treated as asset tags.
func InferSensorType(name, description string) types.SensorType {
	s := strings.ToLower(name + " " + description)

	for _, k := range sensorKeywords {
		for _, w := range k.keywords {
			if strings.Contains(s, w) {
				return k.sensorType
			}
		}
	}

	return types.SensorTypeAssetTag
}
