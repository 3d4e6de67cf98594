package proximity

import (
	"math"

	"github.com/diwise/iot-device-gateway/pkg/types"
)

// EstimateDistance applies the log-distance path loss model and returns meters. txPower is
// the calibrated signal strength at one meter. A signal stronger than txPower is treated
// as being at the reference point.
func EstimateDistance(rssi, txPower int) float64 {
	ratio := float64(txPower-rssi) / 20.0
	if ratio < 0 {
		ratio = 0
	}

	if ratio < 1.0 {
		return math.Pow(ratio, 10)
	}

	return 0.89976*math.Pow(ratio, 7.7095) + 0.111
}

// ProximityFromDistance bands an estimated distance.
func ProximityFromDistance(d float64) types.Proximity {
	switch {
	case d <= 1.0:
		return types.ProximityImmediate
	case d <= 3.0:
		return types.ProximityNear
	case d <= 10.0:
		return types.ProximityFar
	}
	return types.ProximityUnknown
}

// ProximityFromRSSI bands the raw signal when no transmit power reference is known.
func ProximityFromRSSI(rssi int) types.Proximity {
	switch {
	case rssi >= -40:
		return types.ProximityImmediate
	case rssi >= -60:
		return types.ProximityNear
	case rssi >= -80:
		return types.ProximityFar
	}
	return types.ProximityUnknown
}

// Estimate returns the proximity band and, when txPower is known, the distance.
func Estimate(rssi int, txPower *int) (types.Proximity, *float64) {
	if txPower == nil {
		return ProximityFromRSSI(rssi), nil
	}

	d := EstimateDistance(rssi, *txPower)
	return ProximityFromDistance(d), &d
}
