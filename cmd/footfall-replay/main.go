// footfall-replay runs the scan pipeline over a recorded capture with no
// modem and no cloud. Each closed cycle prints as one JSON line; the run
// ends with the partial cycle (if any) and the cumulative totals
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"footfall/internal/adapters/wifiscan"
	"footfall/internal/core/token"
	"footfall/internal/platform/logger"
	aggdom "footfall/internal/services/aggregate/domain"
	aggsvc "footfall/internal/services/aggregate/service"
	runnersvc "footfall/internal/services/runner/service"
)

func main() {
	capture := flag.String("capture", "", "path to a JSONL scan capture")
	scansPerCycle := flag.Int("scans-per-cycle", 10, "scans folded into one cycle")
	maxPerScan := flag.Int("max-per-scan", 20, "station cap applied per scan")
	interval := flag.Duration("interval", 0, "delay between scans (0 = flat out)")
	saltHex := flag.String("salt", "", "8 hex chars; omit for a random session salt")
	flag.Parse()

	if *capture == "" {
		fmt.Fprintln(os.Stderr, "usage: footfall-replay -capture <file.jsonl> [flags]")
		os.Exit(2)
	}

	salt, err := parseSalt(*saltHex)
	if err != nil {
		fatal(err)
	}

	rp, err := wifiscan.OpenReplay(*capture)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = rp.Close() }()

	agg := aggsvc.New(aggsvc.Config{
		ScansPerCycle: *scansPerCycle,
		MaxPerScan:    *maxPerScan,
	})

	out := json.NewEncoder(os.Stdout)
	runner := runnersvc.New(runnersvc.Deps{
		Scanner:  rp,
		Hasher:   token.NewHasher(salt),
		Recorder: agg,
		Sync:     printSync{enc: out},
	}, runnersvc.Config{
		ScanInterval: maxDuration(*interval, time.Millisecond),
		ScanTimeout:  10 * time.Second,
	})

	if err := runner.Run(context.Background()); err != nil {
		fatal(err)
	}

	// the capture rarely lands on a cycle boundary
	if agg.CycleProgress().ScansInCycle > 0 {
		snap := agg.Flush()
		_ = out.Encode(partialLine{Partial: true, CycleSnapshot: snap})
	}
	_ = out.Encode(summaryLine{Surveys: rp.Surveys(), Totals: agg.Totals()})
}

type printSync struct {
	enc *json.Encoder
}

func (p printSync) Sync(_ context.Context, cycle aggdom.CycleSnapshot) error {
	return p.enc.Encode(cycle)
}

type partialLine struct {
	Partial bool `json:"partial"`
	aggdom.CycleSnapshot
}

type summaryLine struct {
	Surveys int           `json:"surveys"`
	Totals  aggdom.Totals `json:"totals"`
}

func parseSalt(s string) (token.Salt, error) {
	if s == "" {
		return token.NewSalt()
	}
	var salt token.Salt
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != token.SaltLen {
		return salt, fmt.Errorf("salt must be %d hex-encoded bytes", token.SaltLen)
	}
	copy(salt[:], b)
	return salt, nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func fatal(err error) {
	logger.Get().Fatal().Err(err).Msg("replay failed")
}
