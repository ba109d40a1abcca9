// Package service implements the environment probe over the modem's AT
// channel: retried clock queries and the two GPS modes (long initial
// acquisition, short per-cycle refresh) sharing one decoder.
//
// Every wait goes through the retry package's bounded-wait so the session
// pump keeps running while the probe blocks; a 90 second GPS search must not
// starve in-flight auth or uploads
package service

import (
	"context"
	"sync"
	"time"

	"footfall/internal/adapters/simcom"
	"footfall/internal/core/geo"
	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
	"footfall/internal/platform/retry"
)

// pauseTick bounds how long a probe pause may go without pumping
const pauseTick = 100 * time.Millisecond

// Config bounds the probe's conversations with the modem
type Config struct {
	TimeAttempts   int
	TimeSettle     time.Duration // post-send settle before collecting
	TimeWindow     time.Duration // response collect window
	TimeRetryDelay time.Duration

	GPSAcquireTimeout  time.Duration // initial lock budget
	GPSQueryInterval   time.Duration // collect window per status query
	GPSEnableSettle    time.Duration // after AT+CGPS=1
	GPSRefreshAttempts int
	GPSRefreshWindow   time.Duration

	FallbackLat float64
	FallbackLon float64
}

// Service implements domain.Port. All modem traffic is serialized through
// the runner goroutine; the mutex only guards fix reads from the
// diagnostics listener
type Service struct {
	ch   simcom.Channel
	cfg  Config
	pump func()
	log  logger.Logger

	mu    sync.RWMutex
	fix   geo.Fix
	gpsOn bool
}

// New builds the probe over an open channel. pump runs at every pause tick;
// nil is allowed for tools that have no session to drain
func New(ch simcom.Channel, cfg Config, pump func()) *Service {
	if cfg.TimeAttempts <= 0 {
		cfg.TimeAttempts = 3
	}
	if cfg.TimeSettle <= 0 {
		cfg.TimeSettle = time.Second
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = 2 * time.Second
	}
	if cfg.TimeRetryDelay <= 0 {
		cfg.TimeRetryDelay = 500 * time.Millisecond
	}
	if cfg.GPSAcquireTimeout <= 0 {
		cfg.GPSAcquireTimeout = 90 * time.Second
	}
	if cfg.GPSQueryInterval <= 0 {
		cfg.GPSQueryInterval = time.Second
	}
	if cfg.GPSEnableSettle <= 0 {
		cfg.GPSEnableSettle = 2 * time.Second
	}
	if cfg.GPSRefreshAttempts <= 0 {
		cfg.GPSRefreshAttempts = 3
	}
	if cfg.GPSRefreshWindow <= 0 {
		cfg.GPSRefreshWindow = 2 * time.Second
	}
	if pump == nil {
		pump = func() {}
	}
	return &Service{
		ch:   ch,
		cfg:  cfg,
		pump: pump,
		log:  *logger.Named("probe"),
	}
}

// WallClock implements domain.ClockPort. Malformed payloads and silence
// burn an attempt each; exhausting the budget reports ok=false rather than
// an error, matching the sentinel contract
func (s *Service) WallClock(ctx context.Context) (string, bool) {
	var ts string
	pol := retry.Policy{Attempts: s.cfg.TimeAttempts, Delay: s.cfg.TimeRetryDelay}
	err := pol.Run(ctx, func(actx context.Context) error {
		s.ch.Drain()
		if err := s.ch.Send(simcom.CmdClock); err != nil {
			return err
		}
		s.pause(actx, s.cfg.TimeSettle)
		payload, err := s.ch.Collect(s.cfg.TimeWindow)
		if err != nil {
			return err
		}
		out, err := simcom.ParseClock(payload)
		if err != nil {
			return err
		}
		ts = out
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Int("attempts", s.cfg.TimeAttempts).Msg("wall clock unavailable")
		return "", false
	}
	return ts, true
}

// AcquireFix implements domain.FixPort: enable the receiver, then poll the
// status query until a coordinate line parses or the acquire budget runs
// out. A tagged line with empty fields is the receiver still searching and
// burns no attempt bookkeeping, just time
func (s *Service) AcquireFix(ctx context.Context) (geo.Fix, error) {
	if err := s.enableGPS(ctx); err != nil {
		return geo.Fix{}, err
	}
	var fix geo.Fix
	found := retry.Wait{Total: s.cfg.GPSAcquireTimeout, Tick: pauseTick}.Until(ctx, func() bool {
		f, ok := s.queryFix(s.cfg.GPSQueryInterval)
		if ok {
			fix = f
		}
		return ok
	}, s.pump)
	if !found {
		s.log.Warn().Dur("budget", s.cfg.GPSAcquireTimeout).Msg("gps acquisition timed out")
		return geo.Fix{}, perr.ProbeTimeoutf("gps acquisition window elapsed")
	}
	s.setFix(fix)
	s.log.Info().Float64("lat", fix.Lat).Float64("lon", fix.Lon).Msg("gps locked")
	return fix, nil
}

// RefreshFix implements domain.FixPort. The receiver stays enabled between
// cycles, so a refresh is just a few status queries; failure leaves the
// previous fix in place
func (s *Service) RefreshFix(ctx context.Context) error {
	if err := s.enableGPS(ctx); err != nil {
		return err
	}
	var fix geo.Fix
	pol := retry.Policy{Attempts: s.cfg.GPSRefreshAttempts}
	err := pol.Run(ctx, func(context.Context) error {
		f, ok := s.queryFix(s.cfg.GPSRefreshWindow)
		if !ok {
			return perr.Unavailablef("no fix in refresh window")
		}
		fix = f
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("gps refresh missed, keeping previous fix")
		return retry.Exhausted(err, "gps refresh")
	}
	s.setFix(fix)
	return nil
}

// UseFallback implements domain.FixPort
func (s *Service) UseFallback() geo.Fix {
	fix := geo.Fix{Lat: s.cfg.FallbackLat, Lon: s.cfg.FallbackLon, Status: geo.StatusFallback}
	s.mu.Lock()
	s.fix = fix
	s.mu.Unlock()
	s.log.Warn().Float64("lat", fix.Lat).Float64("lon", fix.Lon).Msg("using fallback coordinates")
	return fix
}

// Fix implements domain.FixPort
func (s *Service) Fix() geo.Fix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fix
}

// enableGPS powers the receiver once per session
func (s *Service) enableGPS(ctx context.Context) error {
	if s.gpsOn {
		return nil
	}
	s.ch.Drain()
	if err := s.ch.Send(simcom.CmdGPSOn); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "enable gps")
	}
	s.pause(ctx, s.cfg.GPSEnableSettle)
	s.ch.Drain()
	s.gpsOn = true
	return nil
}

// queryFix issues one status query and decodes whatever arrives in window.
// ok is false for "still searching", channel errors, and malformed lines
// alike; all of them mean "ask again"
func (s *Service) queryFix(window time.Duration) (geo.Fix, bool) {
	if err := s.ch.Send(simcom.CmdGPSInfo); err != nil {
		return geo.Fix{}, false
	}
	payload, err := s.ch.Collect(window)
	if err != nil {
		return geo.Fix{}, false
	}
	fix, has, err := simcom.ParseFix(payload)
	if err != nil {
		s.log.Debug().Err(err).Msg("gps line not ready")
		return geo.Fix{}, false
	}
	return fix, has
}

func (s *Service) setFix(fix geo.Fix) {
	s.mu.Lock()
	s.fix = fix
	s.mu.Unlock()
}

// pause sleeps d in pump-sized ticks so session results keep draining
func (s *Service) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	tick := pauseTick
	if d < tick {
		tick = d
	}
	retry.Wait{Total: d, Tick: tick}.Until(ctx, func() bool { return false }, s.pump)
}
