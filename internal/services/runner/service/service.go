// Package service implements the agent's single control-flow loop: scan,
// hash, record, and on every cycle close, journal and sync. The loop owns
// all aggregator and probe mutation; everything it waits on pumps the
// session so async auth and uploads keep progressing
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"footfall/internal/adapters/journal"
	"footfall/internal/adapters/wifiscan"
	"footfall/internal/platform/logger"
	"footfall/internal/platform/retry"
	aggdom "footfall/internal/services/aggregate/domain"
	dom "footfall/internal/services/runner/domain"
)

// Config is the loop's schedule
type Config struct {
	ScanInterval time.Duration
	ScanTimeout  time.Duration
	StartupDelay time.Duration
	// MaxUptime is the self-heal horizon: the loop returns cleanly once
	// it elapses so the supervisor restarts the process with a fresh salt
	MaxUptime time.Duration
}

// Deps are the runner's collaborators
type Deps struct {
	Scanner  wifiscan.Scanner
	Hasher   dom.HasherPort
	Recorder aggdom.RecorderPort
	Sync     dom.SyncPort
	Journal  *journal.Journal
	// Pump drains the session between scans; nil for offline runs
	Pump func()
}

// Service is the runner
type Service struct {
	d   Deps
	cfg Config
	log logger.Logger
	now func() time.Time // seam for tests
}

// New constructs the runner
func New(d Deps, cfg Config) *Service {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Second
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 10 * time.Second
	}
	if cfg.StartupDelay < 0 {
		cfg.StartupDelay = 0
	}
	if d.Pump == nil {
		d.Pump = func() {}
	}
	if d.Journal == nil {
		d.Journal = journal.Nop()
	}
	return &Service{
		d:   d,
		cfg: cfg,
		log: *logger.Named("runner"),
		now: time.Now,
	}
}

// Run drives the loop until the context is cancelled, the uptime horizon
// passes, or the scan source is exhausted (replay captures). The return is
// always nil-on-purpose for lifecycle reasons; nothing inside the loop is
// allowed to kill the agent
func (s *Service) Run(ctx context.Context) error {
	start := s.now()
	s.d.Journal.Mark("runner started")
	s.log.Info().Dur("interval", s.cfg.ScanInterval).Msg("runner starting")

	s.pause(ctx, s.cfg.StartupDelay)

	for {
		if ctx.Err() != nil {
			s.d.Journal.Mark("runner stopped")
			return nil
		}
		if s.cfg.MaxUptime > 0 && s.now().Sub(start) >= s.cfg.MaxUptime {
			s.log.Info().Dur("uptime", s.cfg.MaxUptime).Msg("uptime horizon reached, exiting for restart")
			s.d.Journal.Mark("uptime horizon reached")
			return nil
		}
		if done := s.tick(ctx); done {
			s.d.Journal.Mark("scan source exhausted")
			return nil
		}
		s.pause(ctx, s.cfg.ScanInterval)
	}
}

// tick runs one scan through the pipeline. The bool reports end of input,
// which only a replay source produces
func (s *Service) tick(ctx context.Context) bool {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ScanTimeout)
	survey, err := s.d.Scanner.Scan(sctx)
	cancel()

	if err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		s.log.Warn().Err(err).Msg("scan failed")
		s.d.Recorder.RecordScan(aggdom.ScanSample{RawCount: -1})
		return false
	}

	tokens := make([]string, 0, len(survey.Stations))
	for _, st := range survey.Stations {
		tokens = append(tokens, s.d.Hasher.Token(st.BSSID))
	}

	snap := s.d.Recorder.RecordScan(aggdom.ScanSample{RawCount: survey.RawCount, Tokens: tokens})
	if snap == nil {
		return false
	}

	s.journalCycle(*snap)
	if err := s.d.Sync.Sync(ctx, *snap); err != nil {
		s.log.Warn().Err(err).Int64("cycle", snap.Cycle).Msg("sync incomplete")
	}
	return false
}

func (s *Service) journalCycle(snap aggdom.CycleSnapshot) {
	s.d.Journal.Log().Info().
		Str("event", "cycle").
		Int64("cycle", snap.Cycle).
		Int("scans", snap.Scans).
		Int64("unique", snap.Unique).
		Int64("repeated", snap.Repeated).
		Int64("impressions", snap.Impressions).
		Int64("daily_total", snap.DailyTotal).
		Msg("cycle closed")
}

// pause sleeps d at the pump's granularity
func (s *Service) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	tick := 100 * time.Millisecond
	if d < tick {
		tick = d
	}
	retry.Wait{Total: d, Tick: tick}.Until(ctx, func() bool { return false }, s.d.Pump)
}
