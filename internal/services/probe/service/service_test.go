package service

import (
	"context"
	"testing"
	"time"

	"footfall/internal/core/geo"
	perr "footfall/internal/platform/errors"
)

// fakeChannel replays scripted responses, one per Collect call
type fakeChannel struct {
	sent     []string
	replies  []string
	collects int
	drains   int
}

func (f *fakeChannel) Send(cmd string) error { f.sent = append(f.sent, cmd); return nil }

func (f *fakeChannel) Collect(time.Duration) (string, error) {
	f.collects++
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeChannel) Drain() { f.drains++ }

// fastConfig keeps test waits in the microsecond range
func fastConfig() Config {
	return Config{
		TimeAttempts:   3,
		TimeSettle:     time.Microsecond,
		TimeWindow:     time.Millisecond,
		TimeRetryDelay: time.Microsecond,

		GPSAcquireTimeout:  20 * time.Millisecond,
		GPSQueryInterval:   time.Millisecond,
		GPSEnableSettle:    time.Microsecond,
		GPSRefreshAttempts: 3,
		GPSRefreshWindow:   time.Millisecond,

		FallbackLat: 33.610950,
		FallbackLon: 73.061333,
	}
}

func TestWallClockFirstAttempt(t *testing.T) {
	ch := &fakeChannel{replies: []string{`+CCLK: "25/12/02,10:30:45+00"` + "\r\nOK"}}
	s := New(ch, fastConfig(), nil)

	ts, ok := s.WallClock(context.Background())
	if !ok {
		t.Fatal("expected wall clock")
	}
	if ts != "2025-12-02 10:30:45 UTC" {
		t.Fatalf("ts = %q", ts)
	}
	if len(ch.sent) != 1 || ch.sent[0] != "AT+CCLK?" {
		t.Fatalf("sent = %v", ch.sent)
	}
}

func TestWallClockRetriesMalformed(t *testing.T) {
	ch := &fakeChannel{replies: []string{
		"ERROR",
		`+CCLK: "25/`,
		`+CCLK: "26/01/15,23:59:59+00"`,
	}}
	s := New(ch, fastConfig(), nil)

	ts, ok := s.WallClock(context.Background())
	if !ok {
		t.Fatal("expected wall clock after retries")
	}
	if ts != "2026-01-15 23:59:59 UTC" {
		t.Fatalf("ts = %q", ts)
	}
	if ch.collects != 3 {
		t.Fatalf("collects = %d, want 3", ch.collects)
	}
}

func TestWallClockExhaustsToSentinel(t *testing.T) {
	ch := &fakeChannel{replies: []string{"", "", ""}}
	s := New(ch, fastConfig(), nil)

	if ts, ok := s.WallClock(context.Background()); ok {
		t.Fatalf("expected unavailable, got %q", ts)
	}
	if ch.collects != 3 {
		t.Fatalf("collects = %d, want the full attempt budget", ch.collects)
	}
}

func TestAcquireFixLocks(t *testing.T) {
	ch := &fakeChannel{replies: []string{
		"+CGPSINFO: ,,,,,,,,", // still searching
		"+CGPSINFO: 4807.038,N,01131.000,E,021224,103045.0,22.5,0.0,0.0",
	}}
	s := New(ch, fastConfig(), nil)

	fix, err := s.AcquireFix(context.Background())
	if err != nil {
		t.Fatalf("AcquireFix: %v", err)
	}
	if fix.Status != geo.StatusLocked {
		t.Fatalf("status = %v", fix.Status)
	}
	if diff := fix.Lat - 48.117300; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("lat = %f", fix.Lat)
	}
	if diff := fix.Lon - 11.516667; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("lon = %f", fix.Lon)
	}
	if got := s.Fix(); got != fix {
		t.Fatalf("Fix() = %+v, want %+v", got, fix)
	}
}

func TestAcquireFixTimeoutThenFallback(t *testing.T) {
	ch := &fakeChannel{} // never answers
	s := New(ch, fastConfig(), nil)

	_, err := s.AcquireFix(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeProbeTimeout) {
		t.Fatalf("err = %v, want probe timeout", err)
	}
	if got := s.Fix(); !got.Zero() {
		t.Fatalf("fix mutated on timeout: %+v", got)
	}

	fb := s.UseFallback()
	if fb.Status != geo.StatusFallback {
		t.Fatalf("status = %v", fb.Status)
	}
	if fb.Lat != 33.610950 || fb.Lon != 73.061333 {
		t.Fatalf("fallback = %+v", fb)
	}
	if s.Fix() != fb {
		t.Fatal("fallback not installed")
	}
}

func TestRefreshFixKeepsPreviousOnMiss(t *testing.T) {
	ch := &fakeChannel{replies: []string{
		"+CGPSINFO: 4807.038,N,01131.000,E,021224,103045.0,22.5,0.0,0.0",
	}}
	s := New(ch, fastConfig(), nil)

	before, err := s.AcquireFix(context.Background())
	if err != nil {
		t.Fatalf("AcquireFix: %v", err)
	}

	// refresh finds nothing; the locked fix must survive
	if err := s.RefreshFix(context.Background()); err == nil {
		t.Fatal("expected refresh miss")
	}
	if s.Fix() != before {
		t.Fatalf("fix changed on failed refresh: %+v", s.Fix())
	}
}

func TestRefreshFixReplacesOnSuccess(t *testing.T) {
	ch := &fakeChannel{replies: []string{
		"+CGPSINFO: 4807.038,N,01131.000,E,021224,103045.0,22.5,0.0,0.0",
		"+CGPSINFO: ,,,,,,,,",
		"+CGPSINFO: 3336.657,N,07303.680,E,021224,110000.0,500.0,0.0,0.0",
	}}
	s := New(ch, fastConfig(), nil)

	if _, err := s.AcquireFix(context.Background()); err != nil {
		t.Fatalf("AcquireFix: %v", err)
	}
	if err := s.RefreshFix(context.Background()); err != nil {
		t.Fatalf("RefreshFix: %v", err)
	}
	fix := s.Fix()
	if fix.Status != geo.StatusLocked {
		t.Fatalf("status = %v", fix.Status)
	}
	if fix.Lat < 33.5 || fix.Lat > 33.7 {
		t.Fatalf("lat = %f, refresh did not replace", fix.Lat)
	}
}

func TestPumpRunsDuringWaits(t *testing.T) {
	ch := &fakeChannel{}
	pumped := 0
	cfg := fastConfig()
	cfg.GPSAcquireTimeout = 5 * time.Millisecond
	s := New(ch, cfg, func() { pumped++ })

	_, _ = s.AcquireFix(context.Background())
	if pumped == 0 {
		t.Fatal("pump never ran during acquisition wait")
	}
}
