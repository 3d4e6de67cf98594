package devicemanagement

import (
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/lorawan"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/proximity"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/tracker"
	"github.com/diwise/iot-device-gateway/pkg/types"
)

type change int

const (
	changeNone change = iota
	changeConnected
	changeDisconnected
	changeDiscovered
	changeUpdated
	changeLost
)

// normalized is the transport independent outcome of one adapter event.
type normalized struct {
	change  change
	device  *types.Device
	reading *types.SensorReading
	alert   *types.Alert
	failure *types.ErrorEvent
}

// adapterEvent has exactly one implementation per transport.
type adapterEvent interface {
	normalize() normalized
}

type trackerEvent tracker.Event
type lorawanEvent lorawan.Event
type proximityEvent proximity.Event

func (e trackerEvent) normalize() normalized {
	if e.Type == tracker.EventError {
		return normalized{failure: failure(types.TransportTracker, e.Device.ID, e.Err, e.Timestamp)}
	}

	d := trackerDevice(e.Device)
	n := normalized{device: &d}

	switch e.Type {
	case tracker.EventConnected:
		n.change = changeConnected
		return n
	case tracker.EventDisconnected:
		n.change = changeDisconnected
		return n
	}

	n.change = changeUpdated

	data := map[string]any{
		"batteryLevel": e.Status.BatteryPercent(),
		"ignition":     e.Status.Ignition,
		"gpsFixed":     e.Status.GPSFixed,
		"gsmSignal":    int(e.Status.GSMSignal),
		"satellites":   int(e.Status.Satellites),
	}

	var location *types.Location
	if e.Position != nil {
		data["latitude"] = e.Position.Latitude
		data["longitude"] = e.Position.Longitude
		data["speed"] = e.Position.Speed
		data["course"] = e.Position.Course
		location = &types.Location{Latitude: e.Position.Latitude, Longitude: e.Position.Longitude}
	}

	if e.Type == tracker.EventAlarm || e.Type == tracker.EventSOS {
		data["alarmCode"] = int(e.AlarmCode)
		data["alarmType"] = e.AlertType
	}

	n.reading = &types.SensorReading{
		DeviceID:   d.ID,
		Transport:  types.TransportTracker,
		Timestamp:  e.Timestamp,
		Type:       d.Type,
		Data:       data,
		AlertLevel: e.AlertLevel,
		Message:    e.Message,
	}

	if e.AlertLevel > types.AlertLevelNormal {
		n.alert = &types.Alert{
			DeviceID:  d.ID,
			Transport: types.TransportTracker,
			Type:      e.AlertType,
			Severity:  e.AlertLevel,
			Message:   e.Message,
			Timestamp: e.Timestamp,
			Location:  location,
		}
	}

	return n
}

func trackerDevice(td tracker.Device) types.Device {
	d := types.Device{
		ID:        types.CompositeID(types.TransportTracker, td.ID),
		Transport: types.TransportTracker,
		NativeID:  td.ID,
		Name:      td.ID,
		Type:      types.SensorTypeGPSTracker,
		Active:    td.Connected,
		LastSeen:  td.LastSeen,
		Metadata: map[string]any{
			"imei":       td.IMEI,
			"remoteAddr": td.RemoteAddr,
			"ignition":   td.Status.Ignition,
			"gpsFixed":   td.Status.GPSFixed,
			"satellites": int(td.Status.Satellites),
		},
	}

	signal := float64(td.Status.GSMSignal)
	d.Signal = &signal

	if !td.LastSeen.IsZero() && (td.Position != nil || td.Status != (tracker.Status{})) {
		battery := td.Status.BatteryPercent()
		d.BatteryLevel = &battery
	}

	if td.Position != nil {
		d.Location = &types.Location{Latitude: td.Position.Latitude, Longitude: td.Position.Longitude}
		d.Metadata["speed"] = td.Position.Speed
		d.Metadata["course"] = td.Position.Course
	}

	return d
}

func (e lorawanEvent) normalize() normalized {
	if e.Type == lorawan.EventError {
		return normalized{failure: failure(types.TransportLoRaWAN, e.Device.DevEUI, e.Err, e.Timestamp)}
	}

	d := lorawanDevice(e.Device)
	n := normalized{device: &d}

	switch e.Type {
	case lorawan.EventRegistered:
		n.change = changeDiscovered
	case lorawan.EventJoined:
		n.change = changeConnected
	case lorawan.EventStatus:
		n.change = changeUpdated
	case lorawan.EventUplink:
		n.change = changeUpdated

		m := e.Measurement
		if m == nil {
			return n
		}

		data := make(map[string]any, len(m.Data)+1)
		for k, v := range m.Data {
			data[k] = v
		}
		data["fPort"] = int(e.FPort)

		n.reading = &types.SensorReading{
			DeviceID:   d.ID,
			Transport:  types.TransportLoRaWAN,
			Timestamp:  e.Timestamp,
			Type:       d.Type,
			Data:       data,
			AlertLevel: m.AlertLevel,
			Message:    m.Message,
		}

		if m.AlertLevel > types.AlertLevelNormal {
			n.alert = &types.Alert{
				DeviceID:  d.ID,
				Transport: types.TransportLoRaWAN,
				Type:      m.AlertType,
				Severity:  m.AlertLevel,
				Message:   m.Message,
				Timestamp: e.Timestamp,
				Location:  d.Location,
			}
		}
	}

	return n
}

func lorawanDevice(ld lorawan.Device) types.Device {
	d := types.Device{
		ID:           types.CompositeID(types.TransportLoRaWAN, ld.DevEUI),
		Transport:    types.TransportLoRaWAN,
		NativeID:     ld.DevEUI,
		Name:         ld.Name,
		Type:         ld.Type,
		Active:       ld.Active,
		LastSeen:     ld.LastSeen,
		Signal:       ld.RSSI,
		BatteryLevel: ld.BatteryLevel,
		Location:     ld.Location,
		Metadata: map[string]any{
			"devEUI":        ld.DevEUI,
			"fCnt":          ld.FCnt,
			"externalPower": ld.ExternalPower,
		},
	}

	if ld.Description != "" {
		d.Metadata["description"] = ld.Description
	}
	if ld.SNR != nil {
		d.Metadata["snr"] = *ld.SNR
	}
	if ld.Margin != nil {
		d.Metadata["margin"] = *ld.Margin
	}

	return d
}

func (e proximityEvent) normalize() normalized {
	if e.Type == proximity.EventError {
		return normalized{failure: failure(types.TransportProximity, e.Device.Address, e.Err, e.Timestamp)}
	}

	d := proximityDevice(e.Device)
	n := normalized{device: &d}

	switch e.Type {
	case proximity.EventDiscovered:
		n.change = changeDiscovered
	case proximity.EventUpdated:
		n.change = changeUpdated
	case proximity.EventLost:
		n.change = changeLost
	case proximity.EventReading:
		n.change = changeNone

		r := e.Reading
		if r == nil {
			return n
		}

		n.reading = &types.SensorReading{
			DeviceID:   d.ID,
			Transport:  types.TransportProximity,
			Timestamp:  e.Timestamp,
			Type:       d.Type,
			Data:       r.Data,
			AlertLevel: r.AlertLevel,
			Message:    r.Message,
		}

		if r.AlertLevel > types.AlertLevelNormal {
			n.alert = &types.Alert{
				DeviceID:  d.ID,
				Transport: types.TransportProximity,
				Type:      r.AlertType,
				Severity:  r.AlertLevel,
				Message:   r.Message,
				Timestamp: e.Timestamp,
			}
		}
	}

	return n
}

func proximityDevice(pd proximity.Device) types.Device {
	rssi := float64(pd.RSSI)

	d := types.Device{
		ID:           types.CompositeID(types.TransportProximity, pd.Address),
		Transport:    types.TransportProximity,
		NativeID:     pd.Address,
		Name:         pd.Name,
		Type:         pd.Type,
		Active:       pd.Active,
		LastSeen:     pd.LastSeen,
		Signal:       &rssi,
		BatteryLevel: pd.BatteryLevel,
		Proximity:    pd.Proximity,
		Distance:     pd.Distance,
		Metadata: map[string]any{
			"address": pd.Address,
		},
	}

	if pd.TxPower != nil {
		d.Metadata["txPower"] = *pd.TxPower
	}

	if b := pd.Beacon; b != nil {
		d.Metadata["beaconProtocol"] = b.Protocol
		if b.UUID != "" {
			d.Metadata["uuid"] = b.UUID
		}
		if b.Major != nil {
			d.Metadata["major"] = *b.Major
		}
		if b.Minor != nil {
			d.Metadata["minor"] = *b.Minor
		}
		if b.Namespace != "" {
			d.Metadata["namespace"] = b.Namespace
			d.Metadata["instance"] = b.Instance
		}
	}

	return d
}

func failure(transport types.Transport, nativeID string, err error, ts time.Time) *types.ErrorEvent {
	e := &types.ErrorEvent{
		Transport: transport,
		Kind:      "decode",
		Timestamp: ts,
	}

	if nativeID != "" {
		e.DeviceID = types.CompositeID(transport, nativeID)
	}
	if err != nil {
		e.Message = err.Error()
	}

	return e
}
