package proximity

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

const (
	appleCompanyID uint16 = 0x004C

	EddystoneServiceUUID           = "0000feaa-0000-1000-8000-00805f9b34fb"
	EnvironmentalSensingUUID       = "0000181a-0000-1000-8000-00805f9b34fb"
	eddystoneCalibrationOffset int = 41
)

type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}

// Advertisement is a radio independent view of one received advertisement packet.
type Advertisement struct {
	Address          string
	LocalName        string
	RSSI             int
	TxPower          *int
	ManufacturerData []ManufacturerData
	ServiceUUIDs     []string
	ServiceData      map[string][]byte
}

func (a Advertisement) hasService(id string) bool {
	for _, s := range a.ServiceUUIDs {
		if strings.EqualFold(s, id) {
			return true
		}
	}
	_, ok := a.ServiceData[id]
	return ok
}

// payload returns the first manufacturer specific data block, which carries sensor values.
func (a Advertisement) payload() []byte {
	if len(a.ManufacturerData) == 0 {
		return nil
	}
	return a.ManufacturerData[0].Data
}

//go:generate moq -rm -out scanner_mock.go . Scanner

// Scanner is the local radio. Scan blocks, reporting every advertisement to found, until
// the context is cancelled or the radio fails.
type Scanner interface {
	Enable() error
	Scan(ctx context.Context, found func(Advertisement)) error
}

// BeaconIdentity holds the identifiers broadcast by iBeacon and Eddystone-UID frames.
type BeaconIdentity struct {
	Protocol  string  `json:"protocol"`
	UUID      string  `json:"uuid,omitempty"`
	Major     *uint16 `json:"major,omitempty"`
	Minor     *uint16 `json:"minor,omitempty"`
	Namespace string  `json:"namespace,omitempty"`
	Instance  string  `json:"instance,omitempty"`
	TxPower   int     `json:"txPower"`
}

func parseIBeacon(md ManufacturerData) (*BeaconIdentity, bool) {
	b := md.Data
	if md.CompanyID != appleCompanyID || len(b) < 23 || b[0] != 0x02 || b[1] != 0x15 {
		return nil, false
	}

	id, err := uuid.FromBytes(b[2:18])
	if err != nil {
		return nil, false
	}

	major := binary.BigEndian.Uint16(b[18:20])
	minor := binary.BigEndian.Uint16(b[20:22])

	return &BeaconIdentity{
		Protocol: "ibeacon",
		UUID:     id.String(),
		Major:    &major,
		Minor:    &minor,
		TxPower:  int(int8(b[22])),
	}, true
}

func parseEddystone(a Advertisement) (*BeaconIdentity, bool) {
	if !a.hasService(EddystoneServiceUUID) {
		return nil, false
	}

	id := &BeaconIdentity{Protocol: "eddystone"}

	frame, ok := a.ServiceData[EddystoneServiceUUID]
	if ok && len(frame) >= 18 && frame[0] == 0x00 {
		id.TxPower = int(int8(frame[1])) - eddystoneCalibrationOffset
		id.Namespace = hex.EncodeToString(frame[2:12])
		id.Instance = hex.EncodeToString(frame[12:18])
	} else if a.TxPower != nil {
		id.TxPower = *a.TxPower
	}

	return id, true
}

var nameKeywords = []struct {
	keywords   []string
	sensorType types.SensorType
}{
	{[]string{"panic", "sos"}, types.SensorTypePanicButton},
	{[]string{"lock"}, types.SensorTypeSmartLock},
	{[]string{"temp", "humid", "env", "sensor"}, types.SensorTypeSensor},
	{[]string{"tag", "asset"}, types.SensorTypeAssetTag},
}

// Classify inspects the advertisement signature. Beacon protocols are checked first, then
// known sensor services and name substrings. Anything else is a generic beacon.
func Classify(a Advertisement) (types.SensorType, *BeaconIdentity) {
	for _, md := range a.ManufacturerData {
		if id, ok := parseIBeacon(md); ok {
			return types.SensorTypeBeacon, id
		}
	}

	if id, ok := parseEddystone(a); ok {
		return types.SensorTypeBeacon, id
	}

	if a.hasService(EnvironmentalSensingUUID) {
		return types.SensorTypeSensor, nil
	}

	name := strings.ToLower(a.LocalName)
	for _, k := range nameKeywords {
		for _, w := range k.keywords {
			if strings.Contains(name, w) {
				return k.sensorType, nil
			}
		}
	}

	return types.SensorTypeBeacon, nil
}
