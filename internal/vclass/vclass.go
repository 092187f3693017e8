// Package vclass maps free-form vehicle type strings from registration forms
// onto the capacity classes the admission pool partitions by.
package vclass

import "strings"

// Class is a capacity partition key.
type Class string

const (
	TwoWheel     Class = "two_wheel"
	FourWheel    Class = "four_wheel"
	Unclassified Class = "unclassified"
)

var twoWheelTypes = map[string]struct{}{
	"motorcycle": {},
	"motorbike":  {},
	"scooter":    {},
	"bicycle":    {},
	"e-bike":     {},
	"ebike":      {},
}

var fourWheelTypes = map[string]struct{}{
	"car":     {},
	"sedan":   {},
	"suv":     {},
	"van":     {},
	"pickup":  {},
	"truck":   {},
	"jeepney": {},
}

// Classify maps a vehicle type string to its capacity class. Matching is
// case-insensitive and ignores surrounding whitespace. Unknown types fall into
// the undifferentiated pool.
func Classify(vehicleType string) Class {
	t := strings.ToLower(strings.TrimSpace(vehicleType))
	if t == "" {
		return Unclassified
	}
	if _, ok := twoWheelTypes[t]; ok {
		return TwoWheel
	}
	if _, ok := fourWheelTypes[t]; ok {
		return FourWheel
	}
	return Unclassified
}
