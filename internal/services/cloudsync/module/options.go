package module

import (
	"time"

	"footfall/internal/platform/config"
)

// Options holds the orchestrator's wait windows, read from SERVICE_RTDB_*
type Options struct {
	AuthWait   time.Duration `validate:"gt=0"`
	AuthTick   time.Duration `validate:"gt=0"`
	UploadWait time.Duration `validate:"gt=0"`
	UploadTick time.Duration `validate:"gt=0"`
	InfoWait   time.Duration `validate:"gt=0"`
	InfoTick   time.Duration `validate:"gt=0"`
}

// FromConfig reads the sync options from the config.Conf
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("SERVICE_RTDB_")
	return Options{
		AuthWait:   rf.MayDuration("AUTH_WAIT", 60*time.Second),
		AuthTick:   rf.MayDuration("AUTH_TICK", 100*time.Millisecond),
		UploadWait: rf.MayDuration("UPLOAD_WAIT", 3*time.Second),
		UploadTick: rf.MayDuration("UPLOAD_TICK", 50*time.Millisecond),
		InfoWait:   rf.MayDuration("INFO_WAIT", 5*time.Second),
		InfoTick:   rf.MayDuration("INFO_TICK", 100*time.Millisecond),
	}
}
