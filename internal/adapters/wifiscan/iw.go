package wifiscan

import (
	"context"
	"net"
	"os/exec"
	"strconv"
	"strings"

	"footfall/internal/core/names"
	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
)

const defaultIface = "wlan0"

// IWScanner shells out to iw(8) for a full scan of the configured interface.
// Scans take the radio off-channel for a moment, which is fine at the 5s
// cadence the runner drives
type IWScanner struct {
	iface string
	run   func(ctx context.Context, name string, args ...string) ([]byte, error)
	log   logger.Logger
}

// NewIW builds the production scanner for iface
func NewIW(iface string) *IWScanner {
	if iface == "" {
		iface = defaultIface
	}
	return &IWScanner{
		iface: iface,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		log: *logger.Named("wifiscan"),
	}
}

// Scan runs one sweep. Any failure to execute or exit cleanly surfaces as a
// Scan-coded error; the caller records it and moves on
func (s *IWScanner) Scan(ctx context.Context) (Survey, error) {
	out, err := s.run(ctx, "iw", "dev", s.iface, "scan")
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		return Survey{}, perr.Wrapf(err, perr.ErrorCodeScan, "iw scan %s: %s", s.iface, stderr)
	}
	sv := parseIW(string(out))
	s.log.Debug().Int("raw", sv.RawCount).Int("parsed", len(sv.Stations)).Msg("scan complete")
	return sv, nil
}

// parseIW walks iw scan output. Blocks open with a "BSS aa:bb:cc:dd:ee:ff"
// line; the fields we keep are the indented "signal:" and "SSID:" lines.
// Blocks with an unparseable address still count toward RawCount
func parseIW(out string) Survey {
	var sv Survey
	var cur *Station

	flush := func() {
		if cur != nil {
			sv.Stations = append(sv.Stations, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "BSS "); ok {
			flush()
			sv.RawCount++
			bssid, ok := parseBSSID(rest)
			if !ok {
				continue
			}
			cur = &Station{BSSID: bssid}
			continue
		}
		if cur == nil {
			continue
		}
		field := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(field, "signal:"):
			cur.RSSI = parseSignal(field)
		case strings.HasPrefix(field, "SSID:"):
			cur.Name = names.Clean(strings.TrimPrefix(field, "SSID:"))
		}
	}
	flush()
	return sv
}

// parseBSSID reads the leading hardware address from a BSS line,
// tolerating the "(on wlan0)" suffix iw appends
func parseBSSID(rest string) ([BSSIDLen]byte, bool) {
	var id [BSSIDLen]byte
	end := strings.IndexAny(rest, "( \t")
	if end < 0 {
		end = len(rest)
	}
	hw, err := net.ParseMAC(strings.TrimSpace(rest[:end]))
	if err != nil || len(hw) != BSSIDLen {
		return id, false
	}
	copy(id[:], hw)
	return id, true
}

// parseSignal reads "-58.00 dBm" style values, truncating toward zero
func parseSignal(field string) int {
	v := strings.TrimSpace(strings.TrimPrefix(field, "signal:"))
	v = strings.TrimSuffix(v, " dBm")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return int(f)
}
