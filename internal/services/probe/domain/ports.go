// Package domain defines the environment probe's ports: wall-clock time and
// the geographic fix the sync layer publishes
package domain

import (
	"context"

	"footfall/internal/core/geo"
)

// ClockPort supplies network wall-clock time from the modem
type ClockPort interface {
	// WallClock returns a "2006-01-02 15:04:05 UTC" timestamp. ok is false
	// when the modem could not answer within the attempt budget; callers
	// must treat that as "time unavailable", never as an error
	WallClock(ctx context.Context) (ts string, ok bool)
}

// FixPort owns the process-wide geographic fix. Only the probe mutates it
type FixPort interface {
	// AcquireFix runs the long initial search. On timeout it returns a
	// probe-timeout error and leaves the fix untouched; the caller decides
	// whether to fall back
	AcquireFix(ctx context.Context) (geo.Fix, error)
	// RefreshFix is the short per-cycle re-query. Failure keeps the
	// previous fix
	RefreshFix(ctx context.Context) error
	// UseFallback installs the configured site coordinates and returns them
	UseFallback() geo.Fix
	// Fix returns the current fix; safe for concurrent readers
	Fix() geo.Fix
}

// Port is the full probe surface
type Port interface {
	ClockPort
	FixPort
}

// DateOf extracts the calendar-day key from a WallClock timestamp
func DateOf(ts string) string {
	if len(ts) < 10 {
		return ""
	}
	return ts[:10]
}
