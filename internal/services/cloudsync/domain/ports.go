package domain

import (
	"context"

	"footfall/internal/core/geo"
	aggdom "footfall/internal/services/aggregate/domain"
)

// SessionPort is the async remote-session surface the orchestrator drives.
// Writes are fire-and-forget with correlation ids; Advance is the explicit
// pump that drains their outcomes
type SessionPort interface {
	Ready() bool
	BeginAuth()
	PutJSON(path string, v any, task string) (id string)
	GetInt(ctx context.Context, path string) (int64, error)
	Advance() int
	Transferred() int64
}

// EnvironmentPort is the slice of the probe the orchestrator needs
type EnvironmentPort interface {
	WallClock(ctx context.Context) (string, bool)
	RefreshFix(ctx context.Context) error
	Fix() geo.Fix
}

// AggregatePort is the day-scope surface on the aggregator
type AggregatePort interface {
	TrackedDate() string
	ReconcileDaily(date string, remote int64) aggdom.Daily
	Daily() aggdom.Daily
}

// Port is what the runner calls after each flush and at bring-up
type Port interface {
	// AwaitReady pumps the session until sign-in completes or the bring-up
	// window elapses
	AwaitReady(ctx context.Context) bool
	// ResumeDay adopts today's remote daily count before the first scan, so
	// a restart mid-day neither loses nor double-counts what the previous
	// process already pushed
	ResumeDay(ctx context.Context) error
	// PublishDeviceInfo pushes the static device document
	PublishDeviceInfo(ctx context.Context) error
	// Sync reconciles the day scope and pushes the cycle's aggregate and
	// the current fix. Errors are advisory; the runner never stops on them
	Sync(ctx context.Context, cycle aggdom.CycleSnapshot) error
}
