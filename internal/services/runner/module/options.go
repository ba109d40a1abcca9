package module

import (
	"time"

	"footfall/internal/platform/config"
)

// Options holds the runner's schedule, read from AGENT_*
type Options struct {
	ScanInterval time.Duration `validate:"gt=0"`
	ScanTimeout  time.Duration `validate:"gt=0"`
	StartupDelay time.Duration `validate:"min=0"`
	MaxUptime    time.Duration `validate:"min=0"`
}

// FromConfig reads the runner options from the config.Conf
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("AGENT_")
	return Options{
		ScanInterval: af.MayDuration("SCAN_INTERVAL", 5*time.Second),
		ScanTimeout:  af.MayDuration("SCAN_TIMEOUT", 10*time.Second),
		StartupDelay: af.MayDuration("STARTUP_DELAY", 2*time.Second),
		MaxUptime:    af.MayDuration("MAX_UPTIME", 12*time.Hour),
	}
}
