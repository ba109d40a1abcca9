// Package domain defines the types and interfaces for the cycle aggregator
package domain

// ScanSample is one scan's contribution to the open cycle. A negative
// RawCount marks a failed scan; Tokens carries the hashed identities
// observed, already salted and rendered
type ScanSample struct {
	RawCount int
	Tokens   []string
}

// CycleSnapshot is the closed-cycle record emitted at flush time
type CycleSnapshot struct {
	Cycle       int64  `json:"cycle"` // ordinal, counts from 1
	Scans       int    `json:"scans"` // successful scans folded in
	Unique      int64  `json:"unique"`
	Repeated    int64  `json:"repeated"`
	Impressions int64  `json:"impressions"` // raw-count sum for the cycle
	Observed    int64  `json:"observed"`    // tokens classified after the cap
	Date        string `json:"date,omitempty"`
	DailyTotal  int64  `json:"daily_total"` // day total after the fold
}

// Totals are the cumulative counters; they never decrease
type Totals struct {
	DistinctEverSeen int64 `json:"distinct_ever_seen"`
	Scans            int64 `json:"scans"`
	Cycles           int64 `json:"cycles"`
	ScanErrors       int64 `json:"scan_errors"`
}

// Daily is the day-scoped impression count the cloud reconciles
type Daily struct {
	Date        string `json:"date"`
	Impressions int64  `json:"impressions"`
}

// Progress describes the open cycle for the diagnostics surface
type Progress struct {
	ScansInCycle  int   `json:"scans_in_cycle"`
	ScansPerCycle int   `json:"scans_per_cycle"`
	Unique        int64 `json:"unique"`
	Repeated      int64 `json:"repeated"`
	Impressions   int64 `json:"impressions"`
	Observed      int64 `json:"observed"`
	Tracking      int   `json:"tracking"` // tokens in the current presence set
}
