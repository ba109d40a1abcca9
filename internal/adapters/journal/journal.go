// Package journal keeps the device-local activity journal: bring-up marks,
// cycle summaries, and sync outcomes as JSON lines in a size-rotated file.
// Journaling is best effort; a full disk or missing mount must never stall
// the scan loop, so write errors are swallowed by the sink
package journal

import (
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"footfall/internal/platform/logger"
)

const (
	defaultMaxSizeMB  = 5
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Options configures the journal sink
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Journal owns the rotated file sink and the structured writer over it
type Journal struct {
	log  logger.Logger
	sink *lumberjack.Logger
}

// Open builds a journal over a rotating file. Opening defers to the first
// write, so Open itself cannot fail; a bad path surfaces as silently dropped
// lines, which is the contract
func Open(o Options) *Journal {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = defaultMaxSizeMB
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = defaultMaxBackups
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = defaultMaxAgeDays
	}
	sink := &lumberjack.Logger{
		Filename:   o.Path,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
	}
	return &Journal{
		log:  zerolog.New(sink).With().Timestamp().Logger(),
		sink: sink,
	}
}

// Nop returns a journal that discards everything; the replay tool uses it
func Nop() *Journal {
	return &Journal{log: zerolog.Nop()}
}

// Log returns the journal-backed structured writer. Callers attach their own
// fields and lines land in the rotated file, not the process log
func (j *Journal) Log() *logger.Logger { return &j.log }

// Mark writes a bring-up or lifecycle marker line
func (j *Journal) Mark(event string) {
	j.log.Info().Str("event", event).Msg("mark")
}

// Close flushes and closes the underlying file
func (j *Journal) Close() error {
	if j.sink == nil {
		return nil
	}
	return j.sink.Close()
}
