// Package names cleans over-the-air display names (SSIDs and similar
// free-text identifiers) before they reach the journal or the diag API
//
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization
// 3 Map any Unicode whitespace to ASCII space
// 4 Remove control and format runes ZWJ ZWNJ FEFF etc
// 5 Width fold fullwidth to ASCII
// 6 Collapse space runs to single spaces and trim
// 7 Truncate to MaxLen runes
package names

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxLen bounds a cleaned name. The 802.11 SSID element caps at 32 octets,
// so anything longer survived a broken capture
const MaxLen = 32

// spaceMap sends every Unicode whitespace rune to a plain space so that the
// control-rune removal that follows cannot glue words together
func spaceMap(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// pool of fresh transformer chains; the chain carries state while running
var cleanPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Map(spaceMap),
			runes.Remove(runes.In(unicode.C)), // control format private-use surrogate
			width.Fold,
		)
	},
}

// Clean returns the display form of s following the pipeline above.
// Case and accents are preserved; a hidden (empty) SSID stays empty
func Clean(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := cleanPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	cleanPool.Put(tr)

	return truncate(collapseSpaces(ns))
}

// collapseSpaces converts space runs to a single ASCII space and trims the ends
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == ' ' {
			inRun = true
			continue
		}
		if inRun {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inRun = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string) string {
	n := 0
	for i := range s {
		if n == MaxLen {
			return s[:i]
		}
		n++
	}
	return s
}
