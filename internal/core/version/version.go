// Package version provides information about the build version of the agent.
package version

// BuildInfo holds version information about the agent build.
type BuildInfo struct {
	Service  string `json:"service"`
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Firmware string `json:"firmware"`
}

// Info returns the build information for the named binary. The version,
// commit, and date variables are intended to be set at build time using
// -ldflags.
func Info(service string) BuildInfo {
	// Set via -ldflags "-X 'footfall/internal/core/version.version=v1.2.0'
	// -X 'footfall/internal/core/version.commit=abcd' -X 'footfall/internal/core/version.date=2026-08-01'"
	return BuildInfo{
		Service:  service,
		Version:  version,
		Commit:   commit,
		Date:     date,
		Firmware: Firmware(),
	}
}

// Firmware returns the firmware string published in the device document.
func Firmware() string { return version + "-PROD" }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
