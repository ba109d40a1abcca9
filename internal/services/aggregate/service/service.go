// Package service implements the cycle aggregator: presence-token
// deduplication with exactly one cycle of lookback, per-cycle counters that
// fold into a day total at flush, and cumulative counters that only grow
package service

import (
	"sync"

	"footfall/internal/platform/logger"
	dom "footfall/internal/services/aggregate/domain"
)

// Config for the aggregator
type Config struct {
	ScansPerCycle int // auto-flush threshold
	MaxPerScan    int // classification cap per scan
}

// Service implements domain.RecorderPort, domain.DayPort and
// domain.ReaderPort. The runner goroutine is the only writer; the RWMutex
// exists so the diagnostics API can snapshot concurrently
type Service struct {
	mu  sync.RWMutex
	cfg Config
	log logger.Logger

	current  map[string]struct{}
	previous map[string]struct{}

	scansInCycle int
	unique       int64
	repeated     int64
	impressions  int64
	observed     int64

	totalDistinct int64
	totalScans    int64
	totalCycles   int64
	totalScanErrs int64

	trackedDate string
	daily       int64
}

// New constructs the aggregator with sane defaults
func New(cfg Config) *Service {
	if cfg.ScansPerCycle <= 0 {
		cfg.ScansPerCycle = 10
	}
	if cfg.MaxPerScan <= 0 {
		cfg.MaxPerScan = 20
	}
	return &Service{
		cfg:      cfg,
		log:      *logger.Named("aggregate"),
		current:  make(map[string]struct{}),
		previous: make(map[string]struct{}),
	}
}

// RecordScan implements domain.RecorderPort.
//
// A failed scan (negative RawCount) moves the error counter and nothing
// else. A successful scan adds its raw count to the cycle's impressions
// unconditionally, then classifies at most MaxPerScan tokens: a token
// already seen this cycle is a repeat; anything else is unique in the
// cycle, and newly distinct unless the previous cycle saw it. The snapshot
// return is non-nil only when this scan completed the cycle
func (s *Service) RecordScan(sample dom.ScanSample) *dom.CycleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sample.RawCount < 0 {
		s.totalScanErrs++
		s.log.Warn().Int64("total_scan_errors", s.totalScanErrs).Msg("scan failed")
		return nil
	}

	s.totalScans++
	s.scansInCycle++
	s.impressions += int64(sample.RawCount)

	tokens := sample.Tokens
	if len(tokens) > s.cfg.MaxPerScan {
		tokens = tokens[:s.cfg.MaxPerScan]
	}
	for _, tok := range tokens {
		s.observed++
		if _, seen := s.current[tok]; seen {
			s.repeated++
			continue
		}
		s.current[tok] = struct{}{}
		s.unique++
		if _, prior := s.previous[tok]; !prior {
			s.totalDistinct++
		}
	}

	if s.scansInCycle >= s.cfg.ScansPerCycle {
		snap := s.flushLocked()
		return &snap
	}
	return nil
}

// Flush implements domain.RecorderPort
func (s *Service) Flush() dom.CycleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked closes the cycle: impressions fold into the day total before
// anything resets, the current set becomes the lookback set, and the
// per-cycle counters zero
func (s *Service) flushLocked() dom.CycleSnapshot {
	s.daily += s.impressions
	s.totalCycles++

	snap := dom.CycleSnapshot{
		Cycle:       s.totalCycles,
		Scans:       s.scansInCycle,
		Unique:      s.unique,
		Repeated:    s.repeated,
		Impressions: s.impressions,
		Observed:    s.observed,
		Date:        s.trackedDate,
		DailyTotal:  s.daily,
	}

	s.previous = s.current
	s.current = make(map[string]struct{}, len(s.previous))
	s.scansInCycle = 0
	s.unique = 0
	s.repeated = 0
	s.impressions = 0
	s.observed = 0

	s.log.Info().
		Int64("cycle", snap.Cycle).
		Int("scans", snap.Scans).
		Int64("unique", snap.Unique).
		Int64("repeated", snap.Repeated).
		Int64("impressions", snap.Impressions).
		Int64("daily_total", snap.DailyTotal).
		Msg("cycle closed")

	return snap
}

// ReconcileDaily implements domain.DayPort. The remote count wins when it is
// positive; otherwise the new day starts from zero. Nothing else ever lowers
// the daily total
func (s *Service) ReconcileDaily(date string, remote int64) dom.Daily {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackedDate = date
	if remote > 0 {
		s.daily = remote
	} else {
		s.daily = 0
	}
	s.log.Info().Str("date", date).Int64("daily", s.daily).Msg("day adopted")
	return dom.Daily{Date: s.trackedDate, Impressions: s.daily}
}

// TrackedDate implements domain.DayPort and domain.ReaderPort
func (s *Service) TrackedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackedDate
}

// Totals implements domain.ReaderPort
func (s *Service) Totals() dom.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dom.Totals{
		DistinctEverSeen: s.totalDistinct,
		Scans:            s.totalScans,
		Cycles:           s.totalCycles,
		ScanErrors:       s.totalScanErrs,
	}
}

// Daily implements domain.ReaderPort
func (s *Service) Daily() dom.Daily {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dom.Daily{Date: s.trackedDate, Impressions: s.daily}
}

// CycleProgress implements domain.ReaderPort
func (s *Service) CycleProgress() dom.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dom.Progress{
		ScansInCycle:  s.scansInCycle,
		ScansPerCycle: s.cfg.ScansPerCycle,
		Unique:        s.unique,
		Repeated:      s.repeated,
		Impressions:   s.impressions,
		Observed:      s.observed,
		Tracking:      len(s.current),
	}
}
