package service

import (
	"context"
	"io"
	"testing"
	"time"

	"footfall/internal/adapters/wifiscan"
	perr "footfall/internal/platform/errors"
	aggdom "footfall/internal/services/aggregate/domain"
	aggsvc "footfall/internal/services/aggregate/service"
)

// scriptScanner yields surveys then io.EOF, like a replay capture
type scriptScanner struct {
	surveys []wifiscan.Survey
	errs    []bool // parallel to surveys: true means this slot fails
	i       int
}

func (s *scriptScanner) Scan(context.Context) (wifiscan.Survey, error) {
	if s.i >= len(s.surveys) {
		return wifiscan.Survey{}, io.EOF
	}
	idx := s.i
	s.i++
	if idx < len(s.errs) && s.errs[idx] {
		return wifiscan.Survey{}, perr.ScanErrf("radio busy")
	}
	return s.surveys[idx], nil
}

type staticHasher struct{}

func (staticHasher) Token(id [wifiscan.BSSIDLen]byte) string {
	return string(id[:])
}

type captureSync struct {
	cycles []aggdom.CycleSnapshot
}

func (c *captureSync) Sync(_ context.Context, cy aggdom.CycleSnapshot) error {
	c.cycles = append(c.cycles, cy)
	return nil
}

func station(b byte) wifiscan.Station {
	return wifiscan.Station{BSSID: [6]byte{b, b, b, b, b, b}}
}

func fastRunner(sc wifiscan.Scanner, agg aggdom.RecorderPort, sy *captureSync) *Service {
	return New(Deps{
		Scanner:  sc,
		Hasher:   staticHasher{},
		Recorder: agg,
		Sync:     sy,
	}, Config{
		ScanInterval: time.Microsecond,
		ScanTimeout:  time.Second,
		StartupDelay: 0,
	})
}

func TestRunDrivesPipelineToExhaustion(t *testing.T) {
	surveys := make([]wifiscan.Survey, 6)
	for i := range surveys {
		surveys[i] = wifiscan.Survey{
			RawCount: 2,
			Stations: []wifiscan.Station{station('a'), station(byte('a' + i))},
		}
	}
	agg := aggsvc.New(aggsvc.Config{ScansPerCycle: 3, MaxPerScan: 20})
	sy := &captureSync{}
	r := fastRunner(&scriptScanner{surveys: surveys}, agg, sy)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sy.cycles) != 2 {
		t.Fatalf("cycles synced = %d, want 2 (6 scans / 3 per cycle)", len(sy.cycles))
	}
	if sy.cycles[0].Impressions != 6 {
		t.Fatalf("cycle 1 impressions = %d, want 6", sy.cycles[0].Impressions)
	}
	if got := agg.Totals().Scans; got != 6 {
		t.Fatalf("scans = %d", got)
	}
}

func TestRunRecordsScanFailures(t *testing.T) {
	sc := &scriptScanner{
		surveys: []wifiscan.Survey{{RawCount: 1, Stations: []wifiscan.Station{station('x')}}, {}, {}},
		errs:    []bool{false, true, true},
	}
	agg := aggsvc.New(aggsvc.Config{ScansPerCycle: 100, MaxPerScan: 20})
	sy := &captureSync{}
	r := fastRunner(sc, agg, sy)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tot := agg.Totals()
	if tot.ScanErrors != 2 {
		t.Fatalf("scan errors = %d, want 2", tot.ScanErrors)
	}
	if tot.Scans != 1 {
		t.Fatalf("scans = %d, failures never count as scans", tot.Scans)
	}
}

func TestRunStopsOnUptimeHorizon(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sy := &captureSync{}
	r := fastRunner(&scriptScanner{surveys: make([]wifiscan.Survey, 1000)}, agg, sy)
	r.cfg.MaxUptime = time.Nanosecond

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not honor the uptime horizon")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sy := &captureSync{}
	r := fastRunner(&scriptScanner{surveys: make([]wifiscan.Survey, 100000)}, agg, sy)
	r.cfg.ScanInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}

func TestPumpRunsBetweenScans(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	pumped := 0
	r := New(Deps{
		Scanner:  &scriptScanner{surveys: make([]wifiscan.Survey, 3)},
		Hasher:   staticHasher{},
		Recorder: agg,
		Sync:     &captureSync{},
		Pump:     func() { pumped++ },
	}, Config{ScanInterval: time.Microsecond, ScanTimeout: time.Second})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pumped == 0 {
		t.Fatal("pump never ran between scans")
	}
}
