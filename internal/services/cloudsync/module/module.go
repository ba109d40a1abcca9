// Package module wires the cloud sync orchestrator
package module

import (
	"footfall/internal/adapters/journal"
	"footfall/internal/core/identity"
	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"
	"footfall/internal/platform/validate"
	"footfall/internal/services/cloudsync/domain"
	"footfall/internal/services/cloudsync/service"
)

// Deps are the cross-module collaborators the orchestrator drives
type Deps struct {
	Session domain.SessionPort
	Env     domain.EnvironmentPort
	Agg     domain.AggregatePort
	Tracker *service.Tracker
	Device  identity.Device
	Journal *journal.Journal
}

// Ports exposed by the cloudsync module
type Ports struct {
	Sync domain.Port
}

// Module implements the cloudsync module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the cloudsync module
func New(deps modkit.Deps, in Deps, opts ...modkit.Option) *Module {
	_ = modkit.Build(append([]modkit.Option{modkit.WithName("cloudsync")}, opts...)...)

	o := FromConfig(deps.Cfg)
	validate.MustStruct(o)

	svc := service.New(in.Session, in.Env, in.Agg, in.Tracker, in.Device, in.Journal, service.Config{
		AuthWait:   o.AuthWait,
		AuthTick:   o.AuthTick,
		UploadWait: o.UploadWait,
		UploadTick: o.UploadTick,
		InfoWait:   o.InfoWait,
		InfoTick:   o.InfoTick,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Sync: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "cloudsync" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; sync serves no routes
func (m *Module) MountRoutes(r httpkit.Router) {}
