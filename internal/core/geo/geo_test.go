package geo

import (
	"math"
	"testing"
)

func TestDecodeDegMin_ReferencePosition(t *testing.T) {
	t.Parallel()

	// Munich reference position from the receiver documentation
	lat := DecodeDegMin(4807.038, "N")
	lon := DecodeDegMin(1131.000, "E")

	if math.Abs(lat-48.117300) > 1e-4 {
		t.Fatalf("lat = %.6f, want 48.117300 within 1e-4", lat)
	}
	if math.Abs(lon-11.516667) > 1e-4 {
		t.Fatalf("lon = %.6f, want 11.516667 within 1e-4", lon)
	}
}

func TestDecodeDegMin_SouthWestNegate(t *testing.T) {
	t.Parallel()

	if v := DecodeDegMin(4807.038, "S"); v >= 0 {
		t.Fatalf("southern latitude should be negative, got %.6f", v)
	}
	if v := DecodeDegMin(1131.000, "W"); v >= 0 {
		t.Fatalf("western longitude should be negative, got %.6f", v)
	}

	// magnitude must match the northern/eastern decode exactly
	n := DecodeDegMin(4807.038, "N")
	s := DecodeDegMin(4807.038, "S")
	if n != -s {
		t.Fatalf("N/S decode not symmetric: %.6f vs %.6f", n, s)
	}
}

func TestFix_Strings(t *testing.T) {
	t.Parallel()

	f := Fix{Lat: 33.610950, Lon: 73.061333, Status: StatusFallback}
	if got := f.LatString(); got != "33.610950" {
		t.Fatalf("LatString = %q", got)
	}
	if got := f.LonString(); got != "73.061333" {
		t.Fatalf("LonString = %q", got)
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	cases := map[Status]string{
		StatusSearching: "searching",
		StatusLocked:    "locked",
		StatusFallback:  "fallback",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestFix_Zero(t *testing.T) {
	t.Parallel()

	if !(Fix{}).Zero() {
		t.Fatal("zero Fix should report Zero")
	}
	if (Fix{Lat: 1}).Zero() {
		t.Fatal("fix with a latitude should not report Zero")
	}
	if (Fix{Status: StatusFallback}).Zero() {
		t.Fatal("fallback fix should not report Zero")
	}
}
