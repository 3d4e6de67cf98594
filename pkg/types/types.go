package types

import (
	"fmt"
	"strings"
	"time"
)

type Transport string

const (
	TransportTracker   Transport = "tracker"
	TransportLoRaWAN   Transport = "lorawan"
	TransportProximity Transport = "proximity"
)

type SensorType string

const (
	SensorTypeGPSTracker          SensorType = "GPS_TRACKER"
	SensorTypeVehicleTracker      SensorType = "VEHICLE_TRACKER"
	SensorTypeDoorSensor          SensorType = "DOOR_SENSOR"
	SensorTypeMotionDetector      SensorType = "MOTION_DETECTOR"
	SensorTypeTemperatureHumidity SensorType = "TEMPERATURE_HUMIDITY"
	SensorTypePanicButton         SensorType = "PANIC_BUTTON"
	SensorTypeFuelLevel           SensorType = "FUEL_LEVEL"
	SensorTypeAssetTag            SensorType = "ASSET_TAG"
	SensorTypeSmartLock           SensorType = "SMART_LOCK"
	SensorTypeBeacon              SensorType = "BEACON"
	SensorTypeSensor              SensorType = "SENSOR"
)

// AlertLevel is the severity scale shared by all transports. The zero value is AlertLevelNormal.
type AlertLevel int

const (
	AlertLevelNormal AlertLevel = iota
	AlertLevelWarning
	AlertLevelCritical
	AlertLevelEmergency
)

var alertLevelNames = []string{"normal", "warning", "critical", "emergency"}

func (l AlertLevel) String() string {
	if l < AlertLevelNormal || l > AlertLevelEmergency {
		return "unknown"
	}
	return alertLevelNames[l]
}

func (l AlertLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *AlertLevel) UnmarshalText(b []byte) error {
	for i, n := range alertLevelNames {
		if strings.EqualFold(n, string(b)) {
			*l = AlertLevel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown alert level %q", string(b))
}

// Max returns the more severe of the two levels.
func (l AlertLevel) Max(other AlertLevel) AlertLevel {
	if other > l {
		return other
	}
	return l
}

type Proximity string

const (
	ProximityImmediate Proximity = "immediate"
	ProximityNear      Proximity = "near"
	ProximityFar       Proximity = "far"
	ProximityUnknown   Proximity = "unknown"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Facility  string  `json:"facility,omitempty"`
	Room      string  `json:"room,omitempty"`
}

// Device is the unified, transport independent view of a device. ID is the composite
// "<transport>:<nativeID>" and is unique across all adapters.
type Device struct {
	ID           string         `json:"id"`
	Transport    Transport      `json:"transport"`
	NativeID     string         `json:"nativeID"`
	Name         string         `json:"name,omitempty"`
	Type         SensorType     `json:"type"`
	Active       bool           `json:"active"`
	LastSeen     time.Time      `json:"lastSeen"`
	Signal       *float64       `json:"signal,omitempty"`
	BatteryLevel *int           `json:"batteryLevel,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Proximity    Proximity      `json:"proximity,omitempty"`
	Distance     *float64       `json:"distance,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type SensorReading struct {
	DeviceID   string         `json:"deviceID"`
	Transport  Transport      `json:"transport"`
	Timestamp  time.Time      `json:"timestamp"`
	Type       SensorType     `json:"type"`
	Data       map[string]any `json:"data"`
	AlertLevel AlertLevel     `json:"alertLevel"`
	Message    string         `json:"message,omitempty"`
}

type Alert struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"deviceID"`
	Transport      Transport  `json:"transport"`
	Type           string     `json:"type"`
	Severity       AlertLevel `json:"severity"`
	Message        string     `json:"message"`
	Timestamp      time.Time  `json:"timestamp"`
	Location       *Location  `json:"location,omitempty"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
}

type BeaconRegion struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	FacilityID string        `json:"facilityID"`
	UUID       string        `json:"uuid"`
	Major      *uint16       `json:"major,omitempty"`
	Minor      *uint16       `json:"minor,omitempty"`
	Boundary   []Location    `json:"boundary,omitempty"`
	ScanPeriod time.Duration `json:"scanPeriod"`
}

type AdapterStatus struct {
	Enabled bool `json:"enabled"`
	Online  bool `json:"online"`
	Devices int  `json:"devices"`
}

type SystemStatus struct {
	Tracker              AdapterStatus `json:"tracker"`
	LoRaWAN              AdapterStatus `json:"lorawan"`
	Proximity            AdapterStatus `json:"proximity"`
	TotalDevices         int           `json:"totalDevices"`
	ActiveDevices        int           `json:"activeDevices"`
	UnacknowledgedAlerts int           `json:"unacknowledgedAlerts"`
	Timestamp            time.Time     `json:"timestamp"`
}

func CompositeID(t Transport, nativeID string) string {
	return string(t) + ":" + nativeID
}

// SplitID is the inverse of CompositeID. An id without a known transport prefix is
// returned unchanged with an empty transport.
func SplitID(id string) (Transport, string) {
	prefix, rest, ok := strings.Cut(id, ":")
	if !ok {
		return "", id
	}
	switch t := Transport(prefix); t {
	case TransportTracker, TransportLoRaWAN, TransportProximity:
		return t, rest
	}
	return "", id
}
