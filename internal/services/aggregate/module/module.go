// Package module wires the cycle aggregator
package module

import (
	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"
	"footfall/internal/platform/validate"
	"footfall/internal/services/aggregate/domain"
	"footfall/internal/services/aggregate/service"
)

// Ports exposed by the aggregate module
type Ports struct {
	Recorder domain.RecorderPort
	Day      domain.DayPort
	Reader   domain.ReaderPort
	State    domain.StatePort
}

// Module implements the aggregate module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the aggregate module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{modkit.WithName("aggregate")}, opts...)...)

	o := FromConfig(deps.Cfg)
	validate.MustStruct(o)

	svc := service.New(service.Config{
		ScansPerCycle: o.ScansPerCycle,
		MaxPerScan:    o.MaxPerScan,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Recorder: svc, Day: svc, Reader: svc, State: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "aggregate" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the aggregator serves no routes
func (m *Module) MountRoutes(r httpkit.Router) {}
