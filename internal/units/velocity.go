// Package units provides shared constants and conversion for velocity units
package units

import "math"

// Linear unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Angular unit constants
const (
	RadPS = "radps"
	DegPS = "degps"
)

// ValidLinearUnits contains all valid linear velocity unit values
var ValidLinearUnits = []string{MPS, MPH, KMPH, KPH}

// ValidAngularUnits contains all valid angular velocity unit values
var ValidAngularUnits = []string{RadPS, DegPS}

// IsValidLinear checks if the given unit is a valid linear velocity unit
func IsValidLinear(unit string) bool {
	for _, validUnit := range ValidLinearUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidAngular checks if the given unit is a valid angular velocity unit
func IsValidAngular(unit string) bool {
	for _, validUnit := range ValidAngularUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidLinearUnitsString returns a comma-separated string of valid linear units for error messages
func GetValidLinearUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertLinear converts a linear velocity from meters per second to the
// target units. Commands are carried in m/s internally.
func ConvertLinear(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ConvertAngular converts an angular velocity from radians per second to
// the target units. Commands are carried in rad/s internally.
func ConvertAngular(speedRadPS float64, targetUnits string) float64 {
	switch targetUnits {
	case DegPS:
		return speedRadPS * 180 / math.Pi
	default:
		return speedRadPS
	}
}
