// Package module wires the scan loop
package module

import (
	"context"

	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"
	"footfall/internal/platform/validate"
	"footfall/internal/services/runner/service"
)

// RunnerPort is the loop's lifecycle surface
type RunnerPort interface {
	Run(ctx context.Context) error
}

// Ports exposed by the runner module
type Ports struct {
	Runner RunnerPort
}

// Module implements the runner module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the runner module around its collaborators
func New(deps modkit.Deps, in service.Deps, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{modkit.WithName("runner")}, opts...)...)

	o := FromConfig(deps.Cfg)
	validate.MustStruct(o)

	svc := service.New(in, service.Config{
		ScanInterval: o.ScanInterval,
		ScanTimeout:  o.ScanTimeout,
		StartupDelay: o.StartupDelay,
		MaxUptime:    o.MaxUptime,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "runner" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the runner serves no routes
func (m *Module) MountRoutes(r httpkit.Router) {}
