package domain

// RecorderPort ingests scans from the runner. Only one goroutine writes
type RecorderPort interface {
	// RecordScan folds one scan in; returns the snapshot when the scan
	// closed a cycle, nil otherwise
	RecordScan(s ScanSample) *CycleSnapshot
	// Flush closes the open cycle unconditionally
	Flush() CycleSnapshot
}

// DayPort is the sync orchestrator's day-scope surface
type DayPort interface {
	TrackedDate() string
	// ReconcileDaily adopts a day: positive remote counts are resumed,
	// anything else starts the day at zero
	ReconcileDaily(date string, remote int64) Daily
}

// ReaderPort is the diagnostics read surface; safe to call concurrently
// with the recorder
type ReaderPort interface {
	Totals() Totals
	Daily() Daily
	TrackedDate() string
	CycleProgress() Progress
}

// StatePort is the whole aggregator surface, for wiring collaborators that
// straddle the write and read sides
type StatePort interface {
	RecorderPort
	DayPort
	ReaderPort
}
