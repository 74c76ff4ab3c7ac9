package ir

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
)

// Bounds of the BBCCCVVV encoding.
const (
	MaxChapter = 999
	MaxVerse   = 999
)

// Ordinal is a book/chapter/verse triple encoded as BBCCCVVV so that numeric
// order matches canonical order. Zero is not a valid ordinal.
type Ordinal int

// NewOrdinal encodes a book number (1-based canonical order), chapter and verse.
func NewOrdinal(book, chapter, verse int) Ordinal {
	return Ordinal(book*1_000_000 + chapter*1_000 + verse)
}

// Book returns the 1-based canonical book number.
func (o Ordinal) Book() int { return int(o) / 1_000_000 }

// Chapter returns the chapter number.
func (o Ordinal) Chapter() int { return int(o) / 1_000 % 1_000 }

// Verse returns the verse number.
func (o Ordinal) Verse() int { return int(o) % 1_000 }

// IsValid reports whether the ordinal names a known book.
func (o Ordinal) IsValid() bool {
	return o > 0 && OSISBook(o.Book()) != ""
}

// String renders the ordinal as an OSIS ID (e.g., "Gen.1.1").
func (o Ordinal) String() string {
	book := OSISBook(o.Book())
	if book == "" {
		return fmt.Sprintf("%08d", int(o))
	}
	return fmt.Sprintf("%s.%d.%d", book, o.Chapter(), o.Verse())
}

// RefRange is an inclusive range of ordinals. Ranges are totally ordered by
// Min, then Max.
type RefRange struct {
	Min Ordinal `json:"min"`
	Max Ordinal `json:"max"`
}

// NewRefRange returns the range [min, max]. It fails when either bound is
// zero or min is after max.
func NewRefRange(min, max Ordinal) (RefRange, error) {
	rr := RefRange{Min: min, Max: max}
	if !rr.IsValid() {
		return RefRange{}, &errors.ValidationError{
			Field:   "range",
			Value:   fmt.Sprintf("%d-%d", int(min), int(max)),
			Message: "range bounds must be non-zero and ordered",
		}
	}
	return rr, nil
}

// SingleVerse returns the range covering exactly one ordinal.
func SingleVerse(o Ordinal) RefRange {
	return RefRange{Min: o, Max: o}
}

// IsValid reports whether the range is initialised and ordered.
func (r RefRange) IsValid() bool {
	return r.Min > 0 && r.Max > 0 && r.Min <= r.Max
}

// Overlaps reports whether r and other share at least one ordinal.
func (r RefRange) Overlaps(other RefRange) bool {
	return !(r.Max < other.Min || other.Max < r.Min)
}

// Contains reports whether o falls inside the range.
func (r RefRange) Contains(o Ordinal) bool {
	return r.Min <= o && o <= r.Max
}

// Compare orders ranges by Min, then Max.
func (r RefRange) Compare(other RefRange) int {
	switch {
	case r.Min < other.Min:
		return -1
	case r.Min > other.Min:
		return 1
	case r.Max < other.Max:
		return -1
	case r.Max > other.Max:
		return 1
	}
	return 0
}

// Less reports whether r sorts before other.
func (r RefRange) Less(other RefRange) bool {
	return r.Compare(other) < 0
}

// Union returns the smallest range covering both r and other. A zero range
// acts as the identity.
func (r RefRange) Union(other RefRange) RefRange {
	if r == (RefRange{}) {
		return other
	}
	if other == (RefRange{}) {
		return r
	}
	return RefRange{Min: min(r.Min, other.Min), Max: max(r.Max, other.Max)}
}

// String renders the range as "Gen.1.1-Gen.1.5", or a single ordinal.
func (r RefRange) String() string {
	if r.Min == r.Max {
		return r.Min.String()
	}
	return r.Min.String() + "-" + r.Max.String()
}
