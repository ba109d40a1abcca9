// Package geo holds the position types shared by the GPS probe and the sync layer
package geo

import (
	"fmt"
	"math"
)

// Status describes how trustworthy a Fix is
type Status uint8

const (
	// StatusSearching means no position has been established yet
	StatusSearching Status = iota
	// StatusLocked means the receiver reported a real position
	StatusLocked
	// StatusFallback means the configured site coordinates are in use
	StatusFallback
)

// String implements fmt.Stringer for log fields
func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusFallback:
		return "fallback"
	default:
		return "searching"
	}
}

// Fix is a decoded position
type Fix struct {
	Lat    float64
	Lon    float64
	Status Status
}

// Zero reports whether the fix carries no position at all
func (f Fix) Zero() bool { return f.Lat == 0 && f.Lon == 0 && f.Status == StatusSearching }

// LatString renders latitude with the six decimals the fleet backend stores
func (f Fix) LatString() string { return fmt.Sprintf("%.6f", f.Lat) }

// LonString renders longitude with the six decimals the fleet backend stores
func (f Fix) LonString() string { return fmt.Sprintf("%.6f", f.Lon) }

// DecodeDegMin converts an NMEA style DDMM.MMMM (or DDDMM.MMMM) value plus its
// hemisphere letter into signed decimal degrees. South and west come out negative
func DecodeDegMin(raw float64, hemi string) float64 {
	deg := math.Floor(raw / 100)
	dec := deg + (raw-deg*100)/60
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec
}
