// Package module wires the diagnostics endpoints into the local listener
package module

import (
	"net/http"
	"time"

	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"

	diaghttp "footfall/internal/services/diag/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the diag module. The handler deps come in through the
// caller since they span several other modules
func New(deps modkit.Deps, hd diaghttp.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("diag"),
		modkit.WithPrefix("/diag"),
	}, opts...)...)

	if hd.StartedAt.IsZero() {
		hd.StartedAt = time.Now()
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		diaghttp.Register(r, hd)
		if external != nil {
			external(r)
		}
	}

	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
