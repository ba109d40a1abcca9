// Package module wires the environment probe over an open modem channel
package module

import (
	"footfall/internal/adapters/simcom"
	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"
	"footfall/internal/platform/validate"
	"footfall/internal/services/probe/domain"
	"footfall/internal/services/probe/service"
)

// Ports exposed by the probe module
type Ports struct {
	Env domain.Port
}

// Module implements the probe module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the probe module. The channel is the caller's hardware
// handle; pump is the session drain hook run during probe waits
func New(deps modkit.Deps, ch simcom.Channel, pump func(), opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{modkit.WithName("probe")}, opts...)...)

	o := FromConfig(deps.Cfg)
	validate.MustStruct(o)

	svc := service.New(ch, service.Config{
		TimeAttempts:   o.TimeAttempts,
		TimeSettle:     o.TimeSettle,
		TimeWindow:     o.TimeWindow,
		TimeRetryDelay: o.TimeRetryDelay,

		GPSAcquireTimeout:  o.GPSAcquireTimeout,
		GPSQueryInterval:   o.GPSQueryInterval,
		GPSEnableSettle:    o.GPSEnableSettle,
		GPSRefreshAttempts: o.GPSRefreshAttempts,
		GPSRefreshWindow:   o.GPSRefreshWindow,

		FallbackLat: o.FallbackLat,
		FallbackLon: o.FallbackLon,
	}, pump)

	m := &Module{deps: deps}
	m.ports = Ports{Env: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "probe" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the probe serves no routes
func (m *Module) MountRoutes(r httpkit.Router) {}
