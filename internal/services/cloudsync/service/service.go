// Package service implements the cloud sync orchestrator: day-scope
// reconciliation against the remote tree, then correlation-tagged async
// writes of the aggregate snapshot and the current fix, waited out in a
// bounded pump window. Whatever the window does not acknowledge is
// abandoned; the next cycle's full-document write supersedes it
package service

import (
	"context"
	"time"

	"footfall/internal/adapters/journal"
	"footfall/internal/adapters/rtdb"
	"footfall/internal/core/identity"
	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
	"footfall/internal/platform/retry"
	aggdom "footfall/internal/services/aggregate/domain"
	dom "footfall/internal/services/cloudsync/domain"
	probedom "footfall/internal/services/probe/domain"
)

// Config bounds the orchestrator's waits
type Config struct {
	AuthWait   time.Duration
	AuthTick   time.Duration
	UploadWait time.Duration
	UploadTick time.Duration
	InfoWait   time.Duration
	InfoTick   time.Duration
}

// Service implements domain.Port
type Service struct {
	session dom.SessionPort
	env     dom.EnvironmentPort
	agg     dom.AggregatePort
	track   *Tracker
	dev     identity.Device
	jr      *journal.Journal
	cfg     Config
	log     logger.Logger
	now     func() time.Time // seam for tests
}

// New wires the orchestrator. The tracker must be the same one registered
// as the session's dispatch function
func New(session dom.SessionPort, env dom.EnvironmentPort, agg dom.AggregatePort,
	track *Tracker, dev identity.Device, jr *journal.Journal, cfg Config) *Service {
	if cfg.AuthWait <= 0 {
		cfg.AuthWait = 60 * time.Second
	}
	if cfg.AuthTick <= 0 {
		cfg.AuthTick = 100 * time.Millisecond
	}
	if cfg.UploadWait <= 0 {
		cfg.UploadWait = 3 * time.Second
	}
	if cfg.UploadTick <= 0 {
		cfg.UploadTick = 50 * time.Millisecond
	}
	if cfg.InfoWait <= 0 {
		cfg.InfoWait = 5 * time.Second
	}
	if cfg.InfoTick <= 0 {
		cfg.InfoTick = 100 * time.Millisecond
	}
	if jr == nil {
		jr = journal.Nop()
	}
	return &Service{
		session: session,
		env:     env,
		agg:     agg,
		track:   track,
		dev:     dev,
		jr:      jr,
		cfg:     cfg,
		log:     *logger.Named("cloudsync"),
		now:     time.Now,
	}
}

// AwaitReady implements domain.Port: pump sign-in to completion at bring-up
func (s *Service) AwaitReady(ctx context.Context) bool {
	ok := retry.Wait{Total: s.cfg.AuthWait, Tick: s.cfg.AuthTick}.Until(ctx, s.session.Ready, func() {
		s.session.BeginAuth()
		s.session.Advance()
	})
	if !ok {
		s.log.Warn().Dur("window", s.cfg.AuthWait).Msg("session not ready, starting unauthenticated")
		s.jr.Mark("auth window elapsed")
		return false
	}
	s.jr.Mark("session ready")
	return true
}

// ResumeDay implements domain.Port. It runs once at bring-up, before the
// first scan, so the first flush folds into an already-reconciled daily
// total; deferring this to the first Sync would let the reconcile overwrite
// the first cycle's impressions with the bare remote value
func (s *Service) ResumeDay(ctx context.Context) error {
	if !s.session.Ready() {
		return perr.AuthNotReadyf("day resume needs a ready session")
	}
	ts, ok := s.env.WallClock(ctx)
	if !ok {
		return perr.ProbeTimeoutf("day resume skipped: wall clock unavailable")
	}
	date := probedom.DateOf(ts)

	remote, err := s.session.GetInt(ctx, s.dataPath(date)+"/daily_impressions")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeRemoteWrite, "day resume: remote read")
	}
	daily := s.agg.ReconcileDaily(date, remote)
	s.log.Info().Str("date", date).Int64("remote", remote).
		Int64("daily", daily.Impressions).Msg("day resumed")
	s.jr.Mark("day resumed")
	return nil
}

// Sync implements domain.Port. The skip ladder mirrors the error taxonomy:
// a session that is not ready drops the cycle's cloud writes, an
// unavailable clock drops them too (no date guess), and a failed reconcile
// read postpones everything to the next cycle rather than risk zeroing a
// resumed day
func (s *Service) Sync(ctx context.Context, cycle aggdom.CycleSnapshot) error {
	// refresh the fix even when unauthenticated so the next publish is fresh
	if err := s.env.RefreshFix(ctx); err != nil {
		s.log.Debug().Err(err).Msg("fix refresh missed, publishing previous")
	}

	if !s.session.Ready() {
		s.session.BeginAuth()
		s.journalSkip(cycle, "auth not ready")
		return perr.AuthNotReadyf("cycle %d dropped: session not ready", cycle.Cycle)
	}

	ts, ok := s.env.WallClock(ctx)
	if !ok {
		s.journalSkip(cycle, "wall clock unavailable")
		return perr.ProbeTimeoutf("cycle %d dropped: wall clock unavailable", cycle.Cycle)
	}
	date := probedom.DateOf(ts)

	if s.agg.TrackedDate() != date {
		remote, err := s.session.GetInt(ctx, s.dataPath(date)+"/daily_impressions")
		if err != nil {
			s.journalSkip(cycle, "reconcile read failed")
			return perr.Wrapf(err, perr.ErrorCodeRemoteWrite, "cycle %d dropped: reconcile read", cycle.Cycle)
		}
		daily := s.agg.ReconcileDaily(date, remote)
		s.log.Info().Str("date", date).Int64("remote", remote).
			Int64("daily", daily.Impressions).Msg("day reconciled")
	}

	daily := s.agg.Daily()
	dailyID := s.session.PutJSON(s.dataPath(date), dom.DailyDocument{
		BillboardID:      s.dev.PanelID,
		Date:             date,
		DailyImpressions: daily.Impressions,
		LastUpdated:      ts,
	}, dom.TaskDailyData)

	fix := s.env.Fix()
	locID := s.session.PutJSON(s.infoPath()+"/Location", dom.LocationDocument{
		Lat:  fix.LatString(),
		Long: fix.LonString(),
	}, dom.TaskLocation)

	acked := s.awaitTasks(ctx, retry.Wait{Total: s.cfg.UploadWait, Tick: s.cfg.UploadTick}, dailyID, locID)

	s.jr.Log().Info().
		Str("event", "sync").
		Int64("cycle", cycle.Cycle).
		Str("date", date).
		Int64("daily_impressions", daily.Impressions).
		Bool("acked", acked).
		Int64("transferred", s.session.Transferred()).
		Msg("cycle synced")
	return nil
}

// PublishDeviceInfo implements domain.Port
func (s *Service) PublishDeviceInfo(ctx context.Context) error {
	if !s.session.Ready() {
		return perr.AuthNotReadyf("device info publish needs a ready session")
	}
	setup, ok := s.env.WallClock(ctx)
	if !ok {
		setup = s.now().UTC().Format("2006-01-02 15:04:05") + " UTC"
	}
	fix := s.env.Fix()
	id := s.session.PutJSON(s.infoPath(), dom.DeviceDocument{
		BillboardID: s.dev.PanelID,
		DeviceName:  s.dev.Name,
		Firmware:    s.dev.Firmware,
		MACAddress:  s.dev.MAC,
		SetupTime:   setup,
		Status:      "active",
		Location:    dom.LocationDocument{Lat: fix.LatString(), Long: fix.LonString()},
	}, dom.TaskDeviceInfo)

	if !s.awaitTasks(ctx, retry.Wait{Total: s.cfg.InfoWait, Tick: s.cfg.InfoTick}, id) {
		return perr.RemoteWritef("device info write not acknowledged in window")
	}
	s.jr.Mark("device info published")
	return nil
}

// awaitTasks pumps the session until every id settles or the window runs
// out. Errored tasks are logged and journaled; unsettled ones are abandoned
// for this cycle. Reports whether every task completed cleanly
func (s *Service) awaitTasks(ctx context.Context, w retry.Wait, ids ...string) bool {
	w.Until(ctx, func() bool {
		for _, id := range ids {
			if _, ok := s.track.Outcome(id); !ok {
				return false
			}
		}
		return true
	}, func() { s.session.Advance() })

	clean := true
	for _, id := range ids {
		r, ok := s.track.Outcome(id)
		if !ok {
			s.log.Warn().Str("id", id).Msg("write abandoned, window elapsed")
			clean = false
			continue
		}
		s.track.Forget(id)
		if r.Kind == rtdb.KindError {
			s.log.Warn().Str("task", r.Task).Str("id", r.ID).
				Int("code", r.Code).Err(r.Err).Msg("write failed")
			s.jr.Log().Warn().Str("event", "write_error").Str("task", r.Task).
				Int("code", r.Code).Str("message", r.Message).Msg("write failed")
			clean = false
		}
	}
	return clean
}

// journalSkip records a dropped cycle so field support can see why a day
// total lags the dashboard
func (s *Service) journalSkip(cycle aggdom.CycleSnapshot, why string) {
	s.log.Warn().Int64("cycle", cycle.Cycle).Str("why", why).Msg("sync skipped")
	s.jr.Log().Warn().Str("event", "sync_skipped").
		Int64("cycle", cycle.Cycle).
		Int64("impressions", cycle.Impressions).
		Str("why", why).Msg("sync skipped")
}

func (s *Service) dataPath(date string) string {
	return "devices/" + s.dev.DeviceID() + "/data/" + date
}

func (s *Service) infoPath() string {
	return "devices/" + s.dev.DeviceID() + "/device_info"
}
