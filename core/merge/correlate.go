package merge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/text/unicode/norm"
)

// CharProps controls which characters take part in a correlation.
type CharProps struct {
	IgnoreCase        bool
	IgnorePunctuation bool
}

// DefaultCharProps ignores punctuation but not case.
var DefaultCharProps = CharProps{IgnorePunctuation: true}

// Correlator scores the similarity of two texts from 0 (unrelated) to 1
// (identical). Implementations must be deterministic and free of side
// effects.
type Correlator interface {
	Correlate(a, b string, props CharProps) float64
}

// CorrelatorFunc adapts a plain function to Correlator.
type CorrelatorFunc func(a, b string, props CharProps) float64

// Correlate calls f.
func (f CorrelatorFunc) Correlate(a, b string, props CharProps) float64 {
	return f(a, b, props)
}

// TextCorrelator scores texts as 1 - levenshtein/maxLen over their
// normalized runes. Two empty texts correlate fully; one empty text does not
// correlate at all.
type TextCorrelator struct{}

// Correlate implements Correlator.
func (TextCorrelator) Correlate(a, b string, props CharProps) float64 {
	a, b = normalizeText(a, props), normalizeText(b, props)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	// No timeout: a timed-out diff is not minimal and would make the score
	// depend on machine speed.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(a, b, false)
	dist := dmp.DiffLevenshtein(diffs)
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	score := 1 - float64(dist)/float64(maxLen)
	return min(max(score, 0), 1)
}

func normalizeText(s string, props CharProps) string {
	s = norm.NFC.String(s)
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = sb.Len() > 0
			continue
		case props.IgnorePunctuation && unicode.IsPunct(r):
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		if props.IgnoreCase {
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
