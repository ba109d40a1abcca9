package simcom

import (
	"strconv"
	"strings"

	"footfall/internal/core/geo"
	perr "footfall/internal/platform/errors"
)

const (
	fixTag = "+CGPSINFO:"

	// clockLen is the shortest usable quoted clock payload,
	// "YY/MM/DD,HH:MM:SS" without the timezone suffix
	clockLen = 17
)

// ParseClock extracts the quoted payload from an AT+CCLK? response and
// renders it as "20YY-MM-DD HH:MM:SS UTC".
//
// A healthy modem answers like
//
//	+CCLK: "25/12/02,10:30:45+00"
//
// Only the first quoted substring is considered; anything shorter than the
// date-time core is a malformed response
func ParseClock(payload string) (string, error) {
	start := strings.IndexByte(payload, '"')
	if start < 0 {
		return "", perr.Malformedf("clock response has no quoted payload")
	}
	rest := payload[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", perr.Malformedf("clock response quote unterminated")
	}
	ts := rest[:end]
	if len(ts) < clockLen {
		return "", perr.Malformedf("clock payload too short: %q", ts)
	}
	var b strings.Builder
	b.Grow(len("2006-01-02 15:04:05 UTC"))
	b.WriteString("20")
	b.WriteString(ts[0:2]) // year
	b.WriteByte('-')
	b.WriteString(ts[3:5]) // month
	b.WriteByte('-')
	b.WriteString(ts[6:8]) // day
	b.WriteByte(' ')
	b.WriteString(ts[9:17]) // HH:MM:SS
	b.WriteString(" UTC")
	return b.String(), nil
}

// ParseFix scans an AT+CGPSINFO response for the tagged line and decodes the
// leading lat/lon fields. The bool reports whether the modem has a fix: a
// tagged line with empty coordinate fields means "still searching" and is
// not an error. A payload without the tag, or with garbage where the
// coordinates belong, is malformed
func ParseFix(payload string) (geo.Fix, bool, error) {
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, fixTag) {
			continue
		}
		body := strings.TrimSpace(line[len(fixTag):])
		if strings.Trim(body, ", ") == "" {
			return geo.Fix{}, false, nil
		}
		parts := strings.Split(body, ",")
		if len(parts) < 4 {
			return geo.Fix{}, false, perr.Malformedf("gps line truncated: %q", line)
		}
		rawLat, hemLat := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		rawLon, hemLon := strings.TrimSpace(parts[2]), strings.TrimSpace(parts[3])
		if rawLat == "" || rawLon == "" {
			return geo.Fix{}, false, nil
		}
		lat, err := strconv.ParseFloat(rawLat, 64)
		if err != nil {
			return geo.Fix{}, false, perr.Malformedf("gps latitude %q", rawLat)
		}
		lon, err := strconv.ParseFloat(rawLon, 64)
		if err != nil {
			return geo.Fix{}, false, perr.Malformedf("gps longitude %q", rawLon)
		}
		fix := geo.Fix{
			Lat:    geo.DecodeDegMin(lat, hemLat),
			Lon:    geo.DecodeDegMin(lon, hemLon),
			Status: geo.StatusLocked,
		}
		return fix, true, nil
	}
	return geo.Fix{}, false, perr.Malformedf("gps response missing %s tag", fixTag)
}
