package lorawan

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brocaar/lorawan"
)

var ErrInvalidDevEUI = errors.New("invalid device eui")

type deviceInfo struct {
	DevEUI        string `json:"devEui"`
	DeviceName    string `json:"deviceName"`
	ApplicationID string `json:"applicationId"`
}

// eventHeader holds the device identity of an event. Newer network servers nest it under
// deviceInfo, older ones put it at the top level.
type eventHeader struct {
	DeviceInfo    *deviceInfo `json:"deviceInfo,omitempty"`
	DevEUI        string      `json:"devEUI,omitempty"`
	DeviceName    string      `json:"deviceName,omitempty"`
	ApplicationID string      `json:"applicationID,omitempty"`
}

func (h eventHeader) eui() string {
	if h.DeviceInfo != nil && h.DeviceInfo.DevEUI != "" {
		return h.DeviceInfo.DevEUI
	}
	return h.DevEUI
}

func (h eventHeader) name() string {
	if h.DeviceInfo != nil && h.DeviceInfo.DeviceName != "" {
		return h.DeviceInfo.DeviceName
	}
	return h.DeviceName
}

type rxInfo struct {
	RSSI    *float64 `json:"rssi,omitempty"`
	LoRaSNR *float64 `json:"loRaSNR,omitempty"`
	SNR     *float64 `json:"snr,omitempty"`
}

type uplinkEvent struct {
	eventHeader
	RxInfo []rxInfo   `json:"rxInfo"`
	FCnt   uint32     `json:"fCnt"`
	FPort  uint8      `json:"fPort"`
	Data   string     `json:"data"`
	Time   *time.Time `json:"time,omitempty"`
}

// signal returns the strongest rssi and its snr across all receiving gateways.
func (u uplinkEvent) signal() (rssi, snr *float64) {
	for _, rx := range u.RxInfo {
		if rx.RSSI == nil {
			continue
		}
		if rssi == nil || *rx.RSSI > *rssi {
			r := *rx.RSSI
			rssi = &r

			snr = nil
			if rx.SNR != nil {
				s := *rx.SNR
				snr = &s
			} else if rx.LoRaSNR != nil {
				s := *rx.LoRaSNR
				snr = &s
			}
		}
	}
	return
}

type joinEvent struct {
	eventHeader
	DevAddr string `json:"devAddr"`
}

type statusEvent struct {
	eventHeader
	Margin                  int     `json:"margin"`
	ExternalPowerSource     bool    `json:"externalPowerSource"`
	BatteryLevelUnavailable bool    `json:"batteryLevelUnavailable"`
	BatteryLevel            float64 `json:"batteryLevel"`
}

// NormalizeDevEUI accepts a hex or base64 encoded eui and returns it as lower case hex.
func NormalizeDevEUI(s string) (string, error) {
	s = strings.TrimSpace(s)

	var eui lorawan.EUI64

	if err := eui.UnmarshalText([]byte(strings.TrimPrefix(s, "0x"))); err == nil {
		return eui.String(), nil
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(b) != len(eui) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDevEUI, s)
	}

	copy(eui[:], b)
	return eui.String(), nil
}
