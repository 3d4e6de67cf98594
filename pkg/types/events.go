package types

import (
	"encoding/json"
	"time"
)

const (
	TopicDeviceConnected    string = "deviceConnected"
	TopicDeviceDisconnected string = "deviceDisconnected"
	TopicDeviceDiscovered   string = "deviceDiscovered"
	TopicDeviceUpdate       string = "deviceUpdate"
	TopicDeviceLost         string = "deviceLost"
	TopicSensorReading      string = "sensorReading"
	TopicAlert              string = "alert"
	TopicEmergencyAlert     string = "emergencyAlert"
	TopicAlertAcknowledged  string = "alertAcknowledged"
	TopicError              string = "gateway.error"
)

func marshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

type DeviceConnected struct {
	Device    Device    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

func (d *DeviceConnected) ContentType() string {
	return "application/json"
}
func (d *DeviceConnected) TopicName() string {
	return TopicDeviceConnected
}
func (d *DeviceConnected) Body() []byte {
	return marshal(d)
}

type DeviceDisconnected struct {
	Device    Device    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

func (d *DeviceDisconnected) ContentType() string {
	return "application/json"
}
func (d *DeviceDisconnected) TopicName() string {
	return TopicDeviceDisconnected
}
func (d *DeviceDisconnected) Body() []byte {
	return marshal(d)
}

type DeviceDiscovered struct {
	Device    Device    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

func (d *DeviceDiscovered) ContentType() string {
	return "application/json"
}
func (d *DeviceDiscovered) TopicName() string {
	return TopicDeviceDiscovered
}
func (d *DeviceDiscovered) Body() []byte {
	return marshal(d)
}

type DeviceUpdated struct {
	Device    Device    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

func (d *DeviceUpdated) ContentType() string {
	return "application/json"
}
func (d *DeviceUpdated) TopicName() string {
	return TopicDeviceUpdate
}
func (d *DeviceUpdated) Body() []byte {
	return marshal(d)
}

type DeviceLost struct {
	Device    Device    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}

func (d *DeviceLost) ContentType() string {
	return "application/json"
}
func (d *DeviceLost) TopicName() string {
	return TopicDeviceLost
}
func (d *DeviceLost) Body() []byte {
	return marshal(d)
}

type SensorReadingReceived struct {
	Reading SensorReading `json:"reading"`
}

func (s *SensorReadingReceived) ContentType() string {
	return "application/json"
}
func (s *SensorReadingReceived) TopicName() string {
	return TopicSensorReading
}
func (s *SensorReadingReceived) Body() []byte {
	return marshal(s)
}

type AlertCreated struct {
	Alert Alert `json:"alert"`
}

func (a *AlertCreated) ContentType() string {
	return "application/json"
}
func (a *AlertCreated) TopicName() string {
	return TopicAlert
}
func (a *AlertCreated) Body() []byte {
	return marshal(a)
}

// EmergencyAlert is published in addition to AlertCreated for emergency level alerts.
type EmergencyAlert struct {
	Alert Alert `json:"alert"`
}

func (a *EmergencyAlert) ContentType() string {
	return "application/json"
}
func (a *EmergencyAlert) TopicName() string {
	return TopicEmergencyAlert
}
func (a *EmergencyAlert) Body() []byte {
	return marshal(a)
}

type AlertAcknowledged struct {
	Alert Alert `json:"alert"`
}

func (a *AlertAcknowledged) ContentType() string {
	return "application/json"
}
func (a *AlertAcknowledged) TopicName() string {
	return TopicAlertAcknowledged
}
func (a *AlertAcknowledged) Body() []byte {
	return marshal(a)
}

// ErrorEvent carries a steady-state failure (transport or decode) to event consumers.
type ErrorEvent struct {
	Transport Transport `json:"transport"`
	DeviceID  string    `json:"deviceID,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ErrorEvent) ContentType() string {
	return "application/json"
}
func (e *ErrorEvent) TopicName() string {
	return TopicError
}
func (e *ErrorEvent) Body() []byte {
	return marshal(e)
}
