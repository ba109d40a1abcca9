package wifiscan

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"

	"footfall/internal/core/names"
	perr "footfall/internal/platform/errors"
)

const maxLineBytes = 1 << 20

// surveyLine is the capture format: one survey per line. Captured scan
// failures replay as failures so the error path gets exercised too
type surveyLine struct {
	RawCount  int           `json:"raw_count"`
	Stations  []stationLine `json:"stations"`
	ScanError bool          `json:"scan_error,omitempty"`
}

type stationLine struct {
	BSSID string `json:"bssid"`
	Name  string `json:"name"`
	RSSI  int    `json:"rssi"`
}

// ReplayScanner feeds captured surveys through the Scanner port. At the end
// of the capture Scan returns io.EOF; callers treat that as a clean end of
// input, not a radio failure
type ReplayScanner struct {
	rc      io.ReadCloser
	sc      *bufio.Scanner
	err     error
	surveys int
}

// OpenReplay opens a capture file for replay
func OpenReplay(path string) (*ReplayScanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open capture %s", path)
	}
	return NewReplay(f), nil
}

// NewReplay wraps any line source, e.g. a test buffer
func NewReplay(rc io.ReadCloser) *ReplayScanner {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &ReplayScanner{rc: rc, sc: sc}
}

// Scan returns the next captured survey. Malformed and blank lines are
// skipped, matching how capture files accumulate hand edits
func (r *ReplayScanner) Scan(ctx context.Context) (Survey, error) {
	if r.err != nil {
		return Survey{}, r.err
	}
	for {
		if err := ctx.Err(); err != nil {
			return Survey{}, err
		}
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				r.err = perr.Wrapf(err, perr.ErrorCodeIO, "read capture")
				return Survey{}, r.err
			}
			r.err = io.EOF
			return Survey{}, io.EOF
		}
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var sl surveyLine
		if err := json.Unmarshal(line, &sl); err != nil {
			continue
		}
		r.surveys++
		if sl.ScanError {
			return Survey{}, perr.ScanErrf("captured scan failure")
		}
		return decodeSurvey(sl), nil
	}
}

// Surveys returns how many capture lines have been consumed so far
func (r *ReplayScanner) Surveys() int { return r.surveys }

// Close closes the capture source
func (r *ReplayScanner) Close() error { return r.rc.Close() }

func decodeSurvey(sl surveyLine) Survey {
	sv := Survey{RawCount: sl.RawCount}
	for _, st := range sl.Stations {
		hw, err := net.ParseMAC(st.BSSID)
		if err != nil || len(hw) != BSSIDLen {
			continue
		}
		var id [BSSIDLen]byte
		copy(id[:], hw)
		sv.Stations = append(sv.Stations, Station{
			BSSID: id,
			Name:  names.Clean(st.Name),
			RSSI:  st.RSSI,
		})
	}
	if sv.RawCount < len(sv.Stations) {
		sv.RawCount = len(sv.Stations)
	}
	return sv
}
