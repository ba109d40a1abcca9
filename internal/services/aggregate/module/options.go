package module

import "footfall/internal/platform/config"

// Options holds the aggregator's counting bounds
type Options struct {
	ScansPerCycle int `validate:"min=1,max=1000"`
	MaxPerScan    int `validate:"min=1,max=500"`
}

// FromConfig reads the aggregator options. The cycle length lives under the
// agent scope because the runner shares it
func FromConfig(cfg config.Conf) Options {
	return Options{
		ScansPerCycle: cfg.Prefix("AGENT_").MayInt("SCANS_PER_CYCLE", 10),
		MaxPerScan:    cfg.Prefix("CORE_AGG_").MayInt("MAX_PER_SCAN", 20),
	}
}
