package module

import (
	"time"

	"footfall/internal/platform/config"
)

// Options holds the probe's timing budget, read from CORE_PROBE_*
type Options struct {
	TimeAttempts   int           `validate:"min=1,max=10"`
	TimeSettle     time.Duration `validate:"min=0"`
	TimeWindow     time.Duration `validate:"gt=0"`
	TimeRetryDelay time.Duration `validate:"min=0"`

	GPSAcquireTimeout  time.Duration `validate:"gt=0"`
	GPSQueryInterval   time.Duration `validate:"gt=0"`
	GPSEnableSettle    time.Duration `validate:"min=0"`
	GPSRefreshAttempts int           `validate:"min=1,max=10"`
	GPSRefreshWindow   time.Duration `validate:"gt=0"`

	FallbackLat float64 `validate:"gte=-90,lte=90"`
	FallbackLon float64 `validate:"gte=-180,lte=180"`
}

// FromConfig reads the probe options from the config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_PROBE_")
	return Options{
		TimeAttempts:   pf.MayInt("TIME_ATTEMPTS", 3),
		TimeSettle:     pf.MayDuration("TIME_SETTLE", time.Second),
		TimeWindow:     pf.MayDuration("TIME_WINDOW", 2*time.Second),
		TimeRetryDelay: pf.MayDuration("TIME_RETRY_DELAY", 500*time.Millisecond),

		GPSAcquireTimeout:  pf.MayDuration("GPS_ACQUIRE_TIMEOUT", 90*time.Second),
		GPSQueryInterval:   pf.MayDuration("GPS_QUERY_INTERVAL", time.Second),
		GPSEnableSettle:    pf.MayDuration("GPS_ENABLE_SETTLE", 2*time.Second),
		GPSRefreshAttempts: pf.MayInt("GPS_REFRESH_ATTEMPTS", 3),
		GPSRefreshWindow:   pf.MayDuration("GPS_REFRESH_WINDOW", 2*time.Second),

		FallbackLat: pf.MayFloat64("FALLBACK_LAT", 33.610950),
		FallbackLon: pf.MayFloat64("FALLBACK_LON", 73.061333),
	}
}
