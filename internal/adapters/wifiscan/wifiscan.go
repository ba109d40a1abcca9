// Package wifiscan observes nearby beacons. The runner only sees the Scanner
// port; behind it live the iw(8) backend used on hardware and a JSONL replay
// backend used by the offline tool and tests
package wifiscan

import "context"

// BSSIDLen is the length of a hardware identifier
const BSSIDLen = 6

// Station is one observed beacon
type Station struct {
	BSSID [BSSIDLen]byte
	Name  string // display name after cleanup, empty when hidden
	RSSI  int    // dBm
}

// Survey is one scan's worth of observations. RawCount is what the radio
// reported and may exceed len(Stations) when blocks failed to parse
type Survey struct {
	RawCount int
	Stations []Station
}

// Scanner is the port the runner drives once per tick
type Scanner interface {
	Scan(ctx context.Context) (Survey, error)
}
