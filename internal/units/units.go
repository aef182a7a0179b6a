// Package units converts body and load measurements between the Imperial and Metric
// unit systems at the fixed two-decimal precision used for display and storage.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// System names a unit system. Measurement values never carry their system themselves;
// the owning document stores it alongside them.
type System string

const (
	Imperial System = "Imperial"
	Metric   System = "Metric"
)

const (
	kgToPound      = 2.20462
	poundToKG      = 1 / kgToPound
	centimeterToFt = 0.0328084
	feetToCM       = 1 / centimeterToFt
)

// ParseSystem parses a unit system name. Matching is case-insensitive.
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "imperial":
		return Imperial, nil
	case "metric":
		return Metric, nil
	default:
		return "", fmt.Errorf("unknown unit system %q (want Imperial or Metric)", s)
	}
}

// Valid reports whether s is one of the two known systems.
func (s System) Valid() bool {
	return s == Imperial || s == Metric
}

// IsImperial reports whether s is the Imperial system.
func (s System) IsImperial() bool {
	return s == Imperial
}

// WeightLabel is the display unit for weights in s.
func (s System) WeightLabel() string {
	if s.IsImperial() {
		return "lbs"
	}
	return "kg"
}

// HeightLabel is the display unit for heights in s.
func (s System) HeightLabel() string {
	if s.IsImperial() {
		return "ft"
	}
	return "cm"
}

// Truncate2 drops every digit after the hundredths place. It cuts the decimal
// representation of v instead of rounding, so results always move toward zero.
func Truncate2(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot == -1 || len(s) <= dot+3 {
		return v
	}
	out, err := strconv.ParseFloat(s[:dot+3], 64)
	if err != nil {
		// FormatFloat output always parses back.
		return v
	}
	return out
}

// Weight converts a weight between kilograms and pounds.
func Weight(value float64, sourceImperial, targetImperial bool) float64 {
	switch {
	case sourceImperial == targetImperial:
		return Truncate2(value)
	case targetImperial:
		return Truncate2(value * kgToPound)
	default:
		return Truncate2(value * poundToKG)
	}
}

// Height converts a height between centimeters and feet.
func Height(value float64, sourceImperial, targetImperial bool) float64 {
	switch {
	case sourceImperial == targetImperial:
		return Truncate2(value)
	case targetImperial:
		return Truncate2(value * centimeterToFt)
	default:
		return Truncate2(value * feetToCM)
	}
}

// ConvertWeight is Weight addressed by System.
func ConvertWeight(value float64, from, to System) float64 {
	return Weight(value, from.IsImperial(), to.IsImperial())
}

// ConvertHeight is Height addressed by System.
func ConvertHeight(value float64, from, to System) float64 {
	return Height(value, from.IsImperial(), to.IsImperial())
}
