package bluetooth

import (
	"context"
	"errors"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/proximity"
)

var ErrAlreadyScanning = errors.New("radio is already scanning")

// services are the 16 bit service uuids the proximity adapter classifies on.
var services = []uint16{0xFEAA, 0x181A}

type Scanner struct {
	adapter *bluetooth.Adapter

	mu       sync.Mutex
	scanning bool
}

// NewScanner wraps the default local radio.
func NewScanner() *Scanner {
	return &Scanner{adapter: bluetooth.DefaultAdapter}
}

func (s *Scanner) Enable() error {
	return s.adapter.Enable()
}

// Scan runs until ctx is cancelled. The radio reports advertisements on its own goroutine.
func (s *Scanner) Scan(ctx context.Context, found func(proximity.Advertisement)) error {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return ErrAlreadyScanning
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	result := make(chan error, 1)

	go func() {
		result <- s.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			found(convert(r.Address.String(), r.RSSI, r.AdvertisementPayload))
		})
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if err := s.adapter.StopScan(); err != nil {
			return err
		}
		return <-result
	}
}

// convert copies the payload, which the radio may reuse once the scan callback returns.
func convert(address string, rssi int16, p bluetooth.AdvertisementPayload) proximity.Advertisement {
	adv := proximity.Advertisement{
		Address:   address,
		LocalName: p.LocalName(),
		RSSI:      int(rssi),
	}

	for _, md := range p.ManufacturerData() {
		adv.ManufacturerData = append(adv.ManufacturerData, proximity.ManufacturerData{
			CompanyID: md.CompanyID,
			Data:      append([]byte(nil), md.Data...),
		})
	}

	for _, sd := range p.ServiceData() {
		if adv.ServiceData == nil {
			adv.ServiceData = make(map[string][]byte)
		}
		adv.ServiceData[sd.UUID.String()] = append([]byte(nil), sd.Data...)
	}

	for _, short := range services {
		id := bluetooth.New16BitUUID(short)
		if p.HasServiceUUID(id) {
			adv.ServiceUUIDs = append(adv.ServiceUUIDs, id.String())
		}
	}

	return adv
}

var _ proximity.Scanner = (*Scanner)(nil)
