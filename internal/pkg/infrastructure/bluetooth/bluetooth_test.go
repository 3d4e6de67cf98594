package bluetooth

import (
	"encoding/hex"
	"testing"

	"github.com/matryer/is"
	"tinygo.org/x/bluetooth"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/proximity"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

func TestThatEddystoneServiceDataIsConverted(t *testing.T) {
	is := is.New(t)

	frame, _ := hex.DecodeString("00eeedd1ebeac04e5defa0170123456789ab0000")

	p := &payload{
		services:    []bluetooth.UUID{bluetooth.New16BitUUID(0xFEAA)},
		serviceData: []bluetooth.ServiceDataElement{{UUID: bluetooth.New16BitUUID(0xFEAA), Data: frame}},
	}

	adv := convert("aa:bb:cc:dd:ee:01", -61, p)

	is.Equal(adv.Address, "aa:bb:cc:dd:ee:01")
	is.Equal(adv.RSSI, -61)
	is.Equal(adv.ServiceUUIDs, []string{proximity.EddystoneServiceUUID})
	is.Equal(adv.ServiceData[proximity.EddystoneServiceUUID], frame)

	frame[0] = 0xff
	is.Equal(adv.ServiceData[proximity.EddystoneServiceUUID][0], byte(0x00))

	st, id := proximity.Classify(adv)
	is.Equal(st, types.SensorTypeBeacon)
	is.Equal(id.Protocol, "eddystone")
	is.Equal(id.Namespace, "edd1ebeac04e5defa017")
	is.Equal(id.TxPower, -18-41)
}

func TestThatManufacturerDataIsCopied(t *testing.T) {
	is := is.New(t)

	p := &payload{
		name:         "SOS-Pendant",
		manufacturer: []bluetooth.ManufacturerDataElement{{CompanyID: 0x004c, Data: []byte{0x02, 0x15}}},
	}

	adv := convert("aa:bb:cc:dd:ee:02", -70, p)

	is.Equal(adv.LocalName, "SOS-Pendant")
	is.Equal(len(adv.ManufacturerData), 1)
	is.Equal(adv.ManufacturerData[0].CompanyID, uint16(0x004c))
	is.True(adv.ServiceData == nil)
}

type payload struct {
	name         string
	services     []bluetooth.UUID
	manufacturer []bluetooth.ManufacturerDataElement
	serviceData  []bluetooth.ServiceDataElement
}

func (p *payload) LocalName() string { return p.name }
func (p *payload) Bytes() []byte     { return nil }

func (p *payload) HasServiceUUID(id bluetooth.UUID) bool {
	for _, s := range p.services {
		if s == id {
			return true
		}
	}
	return false
}

func (p *payload) ManufacturerData() []bluetooth.ManufacturerDataElement { return p.manufacturer }
func (p *payload) ServiceData() []bluetooth.ServiceDataElement           { return p.serviceData }
