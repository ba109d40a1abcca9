package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"footfall/internal/adapters/rtdb"
	"footfall/internal/core/geo"
	"footfall/internal/core/identity"
	perr "footfall/internal/platform/errors"
	aggdom "footfall/internal/services/aggregate/domain"
	aggsvc "footfall/internal/services/aggregate/service"
	dom "footfall/internal/services/cloudsync/domain"
)

// fakeSession settles writes synchronously through the tracker on the next
// Advance, the way the real session does from its worker goroutines
type fakeSession struct {
	ready    bool
	auths    int
	authOn   int // Ready flips true after this many BeginAuth calls
	remote   map[string]int64
	getErr   error
	puts     []put
	pending  []rtdb.Result
	track    *Tracker
	transfer int64
}

type put struct {
	path string
	v    any
	task string
}

func (f *fakeSession) Ready() bool { return f.ready }

func (f *fakeSession) BeginAuth() {
	f.auths++
	if f.authOn > 0 && f.auths >= f.authOn {
		f.ready = true
	}
}

func (f *fakeSession) PutJSON(path string, v any, task string) string {
	id := "id-" + strconv.Itoa(len(f.puts))
	f.puts = append(f.puts, put{path: path, v: v, task: task})
	f.pending = append(f.pending, rtdb.Result{Kind: rtdb.KindCompleted, Task: task, ID: id, Bytes: 442})
	return id
}

func (f *fakeSession) GetInt(_ context.Context, path string) (int64, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.remote[path], nil
}

func (f *fakeSession) Advance() int {
	n := len(f.pending)
	for _, r := range f.pending {
		f.transfer += int64(r.Bytes)
		f.track.Dispatch(r)
	}
	f.pending = nil
	return n
}

func (f *fakeSession) Transferred() int64 { return f.transfer }

// fakeEnv is a scripted probe
type fakeEnv struct {
	ts        string
	ok        bool
	fix       geo.Fix
	refreshes int
}

func (f *fakeEnv) WallClock(context.Context) (string, bool) { return f.ts, f.ok }
func (f *fakeEnv) RefreshFix(context.Context) error         { f.refreshes++; return nil }
func (f *fakeEnv) Fix() geo.Fix                             { return f.fix }

func fastWaits() Config {
	return Config{
		AuthWait:   20 * time.Millisecond,
		AuthTick:   time.Millisecond,
		UploadWait: 20 * time.Millisecond,
		UploadTick: time.Millisecond,
		InfoWait:   20 * time.Millisecond,
		InfoTick:   time.Millisecond,
	}
}

func device() identity.Device {
	return identity.Device{PanelID: "017", Name: "Digital Billboard #017", MAC: "AABBCCDDEEFF", Firmware: "dev-PROD"}
}

func newSync(sess *fakeSession, env *fakeEnv, agg domainAgg) (*Service, *Tracker) {
	track := NewTracker()
	sess.track = track
	return New(sess, env, agg, track, device(), nil, fastWaits()), track
}

type domainAgg interface {
	TrackedDate() string
	ReconcileDaily(date string, remote int64) aggdom.Daily
	Daily() aggdom.Daily
}

func TestSyncReconcilesNewDate(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{
		ready: true,
		remote: map[string]int64{
			"devices/panel-017/data/2026-08-30/daily_impressions": 5,
		},
	}
	env := &fakeEnv{ts: "2026-08-30 10:00:00 UTC", ok: true, fix: geo.Fix{Lat: 48.1173, Lon: 11.516667, Status: geo.StatusLocked}}
	s, _ := newSync(sess, env, agg)

	if err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 1}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if d := agg.Daily(); d.Impressions != 5 || d.Date != "2026-08-30" {
		t.Fatalf("daily = %+v, want remote value adopted", d)
	}
	if env.refreshes != 1 {
		t.Fatalf("refreshes = %d", env.refreshes)
	}
	if len(sess.puts) != 2 {
		t.Fatalf("puts = %d, want daily + location", len(sess.puts))
	}
	if sess.puts[0].path != "devices/panel-017/data/2026-08-30" {
		t.Fatalf("daily path = %q", sess.puts[0].path)
	}
	if sess.puts[1].path != "devices/panel-017/device_info/Location" {
		t.Fatalf("location path = %q", sess.puts[1].path)
	}
}

func TestSyncZeroRemoteStartsDayAtZero(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	agg.ReconcileDaily("2026-08-29", 40) // yesterday's running total

	sess := &fakeSession{ready: true, remote: map[string]int64{}}
	env := &fakeEnv{ts: "2026-08-30 00:00:05 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	if err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 9}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if d := agg.Daily(); d.Impressions != 0 || d.Date != "2026-08-30" {
		t.Fatalf("daily = %+v, want fresh day at zero", d)
	}
}

func TestSyncSameDateSkipsReconcile(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	agg.ReconcileDaily("2026-08-30", 7)

	sess := &fakeSession{ready: true, remote: map[string]int64{
		"devices/panel-017/data/2026-08-30/daily_impressions": 999,
	}}
	env := &fakeEnv{ts: "2026-08-30 12:00:00 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	if err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 2}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if d := agg.Daily(); d.Impressions != 7 {
		t.Fatalf("daily = %d, same-day sync must not re-adopt the remote", d.Impressions)
	}
}

func TestResumeDayAdoptsRemoteAtBringUp(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{ready: true, remote: map[string]int64{
		"devices/panel-017/data/2026-08-30/daily_impressions": 100,
	}}
	env := &fakeEnv{ts: "2026-08-30 08:00:00 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	if err := s.ResumeDay(context.Background()); err != nil {
		t.Fatalf("ResumeDay: %v", err)
	}
	if d := agg.Daily(); d.Date != "2026-08-30" || d.Impressions != 100 {
		t.Fatalf("daily = %+v, want remote day adopted before any scan", d)
	}
	if len(sess.puts) != 0 {
		t.Fatal("resume is read-only")
	}
}

func TestResumeDayPreservesFirstCycle(t *testing.T) {
	// a restart mid-day: the remote already holds 100 for today. Resume
	// must run before the first flush so the first cycle's 30 impressions
	// land on top of the resumed total instead of being overwritten by the
	// first sync's reconcile
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{ready: true, remote: map[string]int64{
		"devices/panel-017/data/2026-08-30/daily_impressions": 100,
	}}
	env := &fakeEnv{ts: "2026-08-30 08:05:00 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	if err := s.ResumeDay(context.Background()); err != nil {
		t.Fatalf("ResumeDay: %v", err)
	}

	agg.RecordScan(aggdom.ScanSample{RawCount: 30})
	snap := agg.Flush()

	if err := s.Sync(context.Background(), snap); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if d := agg.Daily(); d.Impressions != 130 {
		t.Fatalf("daily = %d, want 130 (resumed 100 + first cycle 30)", d.Impressions)
	}
	doc := sess.puts[0].v.(dom.DailyDocument)
	if doc.DailyImpressions != 130 {
		t.Fatalf("pushed daily_impressions = %d, want 130", doc.DailyImpressions)
	}
}

func TestResumeDayNeedsSessionAndClock(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})

	s, _ := newSync(&fakeSession{ready: false}, &fakeEnv{ts: "2026-08-30 08:00:00 UTC", ok: true}, agg)
	if err := s.ResumeDay(context.Background()); !perr.IsCode(err, perr.ErrorCodeAuthNotReady) {
		t.Fatalf("err = %v, want auth not ready", err)
	}

	s, _ = newSync(&fakeSession{ready: true}, &fakeEnv{ok: false}, agg)
	if err := s.ResumeDay(context.Background()); !perr.IsCode(err, perr.ErrorCodeProbeTimeout) {
		t.Fatalf("err = %v, want probe timeout", err)
	}
	if agg.TrackedDate() != "" {
		t.Fatal("a failed resume must not touch the day scope")
	}
}

func TestSyncSkipsWhenNotReady(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{ready: false}
	env := &fakeEnv{ts: "2026-08-30 10:00:00 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 3})
	if !perr.IsCode(err, perr.ErrorCodeAuthNotReady) {
		t.Fatalf("err = %v, want auth not ready", err)
	}
	if len(sess.puts) != 0 {
		t.Fatal("no writes may happen without a session")
	}
	if sess.auths == 0 {
		t.Fatal("skip should still nudge sign-in")
	}
	if env.refreshes != 1 {
		t.Fatal("fix refresh happens even when unauthenticated")
	}
}

func TestSyncSkipsWhenClockUnavailable(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{ready: true}
	env := &fakeEnv{ok: false}
	s, _ := newSync(sess, env, agg)

	err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 4})
	if !perr.IsCode(err, perr.ErrorCodeProbeTimeout) {
		t.Fatalf("err = %v, want probe timeout", err)
	}
	if len(sess.puts) != 0 {
		t.Fatal("no date, no writes")
	}
}

func TestSyncPostponesOnReconcileReadError(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	agg.ReconcileDaily("2026-08-29", 12)

	sess := &fakeSession{ready: true, getErr: perr.Unavailablef("remote flake")}
	env := &fakeEnv{ts: "2026-08-30 00:00:10 UTC", ok: true}
	s, _ := newSync(sess, env, agg)

	err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 5})
	if !perr.IsCode(err, perr.ErrorCodeRemoteWrite) {
		t.Fatalf("err = %v", err)
	}
	if d := agg.Daily(); d.Date != "2026-08-29" || d.Impressions != 12 {
		t.Fatalf("daily = %+v, a failed read must not zero the tracked day", d)
	}
	if len(sess.puts) != 0 {
		t.Fatal("writes postponed when the day scope is unresolved")
	}
}

func TestSyncDocuments(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	agg.ReconcileDaily("2026-08-30", 20)

	sess := &fakeSession{ready: true}
	env := &fakeEnv{
		ts:  "2026-08-30 15:30:00 UTC",
		ok:  true,
		fix: geo.Fix{Lat: 33.610950, Lon: 73.061333, Status: geo.StatusFallback},
	}
	s, _ := newSync(sess, env, agg)

	if err := s.Sync(context.Background(), aggdom.CycleSnapshot{Cycle: 6}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	daily := sess.puts[0].v.(dom.DailyDocument)
	if daily.BillboardID != "017" || daily.DailyImpressions != 20 || daily.Date != "2026-08-30" {
		t.Fatalf("daily doc = %+v", daily)
	}
	if daily.LastUpdated != "2026-08-30 15:30:00 UTC" {
		t.Fatalf("last updated = %q", daily.LastUpdated)
	}

	loc := sess.puts[1].v.(dom.LocationDocument)
	if loc.Lat != "33.610950" || loc.Long != "73.061333" {
		t.Fatalf("location doc = %+v", loc)
	}
}

func TestAwaitReadyPumpsAuth(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{authOn: 3}
	env := &fakeEnv{}
	s, _ := newSync(sess, env, agg)

	if !s.AwaitReady(context.Background()) {
		t.Fatal("expected readiness after pumped sign-in")
	}
	if sess.auths < 3 {
		t.Fatalf("auths = %d", sess.auths)
	}
}

func TestAwaitReadyTimesOut(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{} // never ready
	env := &fakeEnv{}
	s, _ := newSync(sess, env, agg)

	if s.AwaitReady(context.Background()) {
		t.Fatal("expected timeout")
	}
}

func TestPublishDeviceInfo(t *testing.T) {
	agg := aggsvc.New(aggsvc.Config{})
	sess := &fakeSession{ready: true}
	env := &fakeEnv{ts: "2026-08-30 08:00:00 UTC", ok: true, fix: geo.Fix{Lat: 48, Lon: 11, Status: geo.StatusLocked}}
	s, _ := newSync(sess, env, agg)

	if err := s.PublishDeviceInfo(context.Background()); err != nil {
		t.Fatalf("PublishDeviceInfo: %v", err)
	}
	if sess.puts[0].path != "devices/panel-017/device_info" {
		t.Fatalf("path = %q", sess.puts[0].path)
	}
	doc := sess.puts[0].v.(dom.DeviceDocument)
	if doc.MACAddress != "AABBCCDDEEFF" || doc.Status != "active" || doc.SetupTime != "2026-08-30 08:00:00 UTC" {
		t.Fatalf("device doc = %+v", doc)
	}
}

func TestTrackerSettlesAndForgets(t *testing.T) {
	tr := NewTracker()
	tr.Dispatch(rtdb.Result{Kind: rtdb.KindDebug, ID: "x"})
	if _, ok := tr.Outcome("x"); ok {
		t.Fatal("debug results must not settle an id")
	}
	tr.Dispatch(rtdb.Result{Kind: rtdb.KindCompleted, ID: "x", Bytes: 10})
	if r, ok := tr.Outcome("x"); !ok || r.Bytes != 10 {
		t.Fatalf("outcome = %+v %v", r, ok)
	}
	tr.Forget("x")
	if _, ok := tr.Outcome("x"); ok {
		t.Fatal("forgotten id still settled")
	}
}
