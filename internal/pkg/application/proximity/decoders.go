package proximity

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

var ErrPayloadTooShort = errors.New("payload too short")
var ErrNoDecoder = errors.New("no decoder for device type")

const (
	lowBatteryThreshold int     = 20
	minTemperature      float64 = -10.0
	maxTemperature      float64 = 50.0
	maxHumidity         float64 = 80.0

	lockFlagTamper byte = 0x01
	lockFlagForced byte = 0x02
)

type Reading struct {
	Data         map[string]any
	AlertLevel   types.AlertLevel
	AlertType    string
	Message      string
	BatteryLevel *int
}

func (r *Reading) raise(level types.AlertLevel, alertType, msg string) {
	if level > r.AlertLevel {
		r.AlertLevel = level
		r.AlertType = alertType
	}
	if r.Message != "" {
		msg = r.Message + "; " + msg
	}
	r.Message = msg
}

func (r *Reading) battery(b []byte, offset int) {
	if len(b) <= offset {
		return
	}

	pct := int(b[offset])
	r.BatteryLevel = &pct
	r.Data["batteryLevel"] = pct

	if pct < lowBatteryThreshold {
		r.raise(types.AlertLevelWarning, "low_battery", fmt.Sprintf("Low battery: %d%%", pct))
	}
}

// DecodeSensorData parses the manufacturer payload of sensor class devices.
func DecodeSensorData(sensorType types.SensorType, b []byte) (Reading, error) {
	switch sensorType {
	case types.SensorTypeSensor:
		return decodeEnvironment(b)
	case types.SensorTypePanicButton:
		return decodePanicButton(b)
	case types.SensorTypeSmartLock:
		return decodeSmartLock(b)
	}
	return Reading{}, fmt.Errorf("%w: %s", ErrNoDecoder, sensorType)
}

func decodeEnvironment(b []byte) (Reading, error) {
	if len(b) < 4 {
		return Reading{}, fmt.Errorf("%w: environment payload is %d bytes", ErrPayloadTooShort, len(b))
	}

	temp := float64(int16(binary.BigEndian.Uint16(b[0:2]))) / 100.0
	humidity := float64(binary.BigEndian.Uint16(b[2:4])) / 100.0

	r := Reading{Data: map[string]any{"temperature": temp, "humidity": humidity}}

	if temp < minTemperature || temp > maxTemperature {
		r.raise(types.AlertLevelWarning, "temperature", fmt.Sprintf("Temperature out of range: %.1f°C", temp))
	}
	if humidity > maxHumidity {
		r.raise(types.AlertLevelWarning, "humidity", fmt.Sprintf("High humidity: %.1f%%", humidity))
	}

	r.battery(b, 4)

	return r, nil
}

func decodePanicButton(b []byte) (Reading, error) {
	if len(b) < 1 {
		return Reading{}, fmt.Errorf("%w: panic button payload is empty", ErrPayloadTooShort)
	}

	pressed := b[0] != 0
	r := Reading{Data: map[string]any{"pressed": pressed}}

	if pressed {
		r.raise(types.AlertLevelEmergency, "panic", "Panic button pressed")
	}

	r.battery(b, 1)

	return r, nil
}

func decodeSmartLock(b []byte) (Reading, error) {
	if len(b) < 1 {
		return Reading{}, fmt.Errorf("%w: smart lock payload is empty", ErrPayloadTooShort)
	}

	r := Reading{Data: map[string]any{"locked": b[0] != 0}}

	r.battery(b, 1)

	if len(b) > 2 {
		flags := b[2]
		tamper := flags&lockFlagTamper != 0
		forced := flags&lockFlagForced != 0
		r.Data["tamper"] = tamper
		r.Data["forced"] = forced

		if forced {
			r.raise(types.AlertLevelCritical, "forced_entry", "Forced entry detected")
		}
		if tamper {
			r.raise(types.AlertLevelCritical, "tamper", "Lock tamper detected")
		}
	}

	return r, nil
}
