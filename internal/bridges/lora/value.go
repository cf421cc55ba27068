package lora

import (
	"fmt"
	"math"
)

// coverStates maps raw cover values to their state names.
var coverStates = []string{"closed", "open", "opening", "closing"}

// Binary sensor state tokens.
const (
	stateOff = "off"
	stateOn  = "on"
)

// Representation converts a raw unsigned 32-bit magnitude into the
// published form of the entity's value.
//
// Numeric entities apply two's-complement recovery when the descriptor
// is signed, then fixed-point scaling by the descriptor precision.
// Cover entities map the raw value through the cover state vocabulary
// and binary sensors map zero/non-zero to off/on; neither applies
// scaling.
//
// Parameters:
//   - raw: Raw magnitude from a value frame
//
// Returns:
//   - any: string for cover and binary_sensor, float64 for sensor
//   - error: ErrInvalidState if a cover value is outside the vocabulary
func (d Descriptor) Representation(raw uint32) (any, error) {
	switch d.Component {
	case ComponentCover:
		if int(raw) >= len(coverStates) {
			return nil, fmt.Errorf("%w: cover state %d (entity %d)",
				ErrInvalidState, raw, d.EntityID)
		}
		return coverStates[raw], nil

	case ComponentBinarySensor:
		if raw == 0 {
			return stateOff, nil
		}
		return stateOn, nil

	default:
		return d.numeric(raw), nil
	}
}

// numeric applies sign recovery and fixed-point scaling.
func (d Descriptor) numeric(raw uint32) float64 {
	var value float64
	if d.Signed && raw&0x80000000 != 0 {
		value = float64(int64(raw) - (1 << 32))
	} else {
		value = float64(raw)
	}

	if d.Precision > 0 {
		value /= math.Pow10(int(d.Precision))
	}
	return value
}
