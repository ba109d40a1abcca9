// Package http provides the device-local diagnostics endpoints
package http

import (
	"net/http"
	"time"

	"footfall/internal/core/geo"
	"footfall/internal/core/identity"
	"footfall/internal/core/version"
	"footfall/internal/modkit/httpkit"
	aggdom "footfall/internal/services/aggregate/domain"
)

// Deps are the handler dependencies; everything is a read-only snapshot
type Deps struct {
	Service   string
	StartedAt time.Time
	Device    identity.Device
	Reader    aggdom.ReaderPort

	Fix         func() geo.Fix
	Ready       func() bool
	Transferred func() int64
}

type handlers struct {
	deps Deps
}

// Register mounts the diagnostics routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/status", h.status)
	httpkit.Get(r, "/aggregate", h.aggregate)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// FixView renders the current fix without exposing internal types
type FixView struct {
	Lat    string `json:"lat"`
	Lon    string `json:"lon"`
	Status string `json:"status"`
}

// StatusResponse summarizes the agent's runtime state for field support
type StatusResponse struct {
	Device       string  `json:"device_id"`
	Name         string  `json:"device_name"`
	UptimeSec    int64   `json:"uptime_sec"`
	Fix          FixView `json:"fix"`
	SessionReady bool    `json:"session_ready"`
	Transferred  int64   `json:"transferred_bytes"`
	Date         string  `json:"date"`
	Daily        int64   `json:"daily_impressions"`
}

// AggregateResponse exposes the counters behind the read accessors
type AggregateResponse struct {
	Totals   aggdom.Totals   `json:"totals"`
	Daily    aggdom.Daily    `json:"daily"`
	Progress aggdom.Progress `json:"cycle"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.Service,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) status(_ *http.Request) (any, error) {
	fix := h.deps.Fix()
	daily := h.deps.Reader.Daily()
	return StatusResponse{
		Device:       h.deps.Device.DeviceID(),
		Name:         h.deps.Device.Name,
		UptimeSec:    int64(time.Since(h.deps.StartedAt) / time.Second),
		Fix:          FixView{Lat: fix.LatString(), Lon: fix.LonString(), Status: fix.Status.String()},
		SessionReady: h.deps.Ready(),
		Transferred:  h.deps.Transferred(),
		Date:         daily.Date,
		Daily:        daily.Impressions,
	}, nil
}

func (h *handlers) aggregate(_ *http.Request) (any, error) {
	return AggregateResponse{
		Totals:   h.deps.Reader.Totals(),
		Daily:    h.deps.Reader.Daily(),
		Progress: h.deps.Reader.CycleProgress(),
	}, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.Service), nil
}
