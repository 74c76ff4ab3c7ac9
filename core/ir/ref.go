package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
)

// Ref represents a canonical scripture reference.
type Ref struct {
	// Book is the OSIS book ID (e.g., "Gen", "Matt", "1John").
	Book string `json:"book"`

	// Chapter is the chapter number (1-indexed, 0 for whole-book references).
	Chapter int `json:"chapter,omitempty"`

	// Verse is the verse number (1-indexed, 0 for whole-chapter references).
	Verse int `json:"verse,omitempty"`

	// ChapterEnd is the ending chapter for ranges that cross a chapter break.
	ChapterEnd int `json:"chapter_end,omitempty"`

	// VerseEnd is the ending verse for ranges (optional).
	VerseEnd int `json:"verse_end,omitempty"`

	// SubVerse is the verse subdivision (e.g., "a", "b").
	SubVerse string `json:"sub_verse,omitempty"`

	// OSISID is the full OSIS ID string (e.g., "Gen.1.1", "Matt.5.3-12").
	OSISID string `json:"osis_id,omitempty"`
}

// refGrammar is the participle grammar for OSIS-style references.
// Examples: "Gen", "Gen.1", "Gen.1.1", "Gen.1.1a", "Gen.1.1-3", "Gen.1.30-2.3", "1John.3.16"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	BookPrefix string       `parser:"@Int?"`
	BookName   string       `parser:"@Ident"`
	ChapterRef *chapterPart `parser:"( \".\" @@ )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type chapterPart struct {
	Chapter  int        `parser:"@Int"`
	VerseRef *versePart `parser:"( \".\" @@ )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type versePart struct {
	Verse    int       `parser:"@Int"`
	SubVerse *string   `parser:"@SubVerse?"`
	Range    *rangeEnd `parser:"( \"-\" @@ )?"`
}

// rangeEnd is either "V" (same chapter) or "C.V" (cross-chapter).
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeEnd struct {
	First  int  `parser:"@Int"`
	Second *int `parser:"( \".\" @Int )?"`
}

// refLexer defines the lexer for OSIS references.
// Note: Ident starts with uppercase to distinguish from SubVerse (single lowercase)
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Z][A-Za-z]*`}, // Book names start with uppercase
	{Name: "SubVerse", Pattern: `[a-z]`},       // Single lowercase letter for sub-verse
	{Name: "Punct", Pattern: `[.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// refParser is the participle parser for OSIS references.
var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// ParseRef parses an OSIS-style reference string.
// Supported formats:
//   - "Gen" (book only)
//   - "Gen.1" (book and chapter)
//   - "Gen.1.1" (book, chapter, and verse)
//   - "Gen.1.1a" (with sub-verse)
//   - "Gen.1.1-3" (verse range)
//   - "Gen.1.30-2.3" (range crossing a chapter break)
func ParseRef(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewParse("reference", "", "empty reference string")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, &errors.ParseError{Format: "reference", Message: fmt.Sprintf("invalid reference format %q", s), Err: err}
	}

	ref := &Ref{
		Book:   parsed.BookPrefix + parsed.BookName,
		OSISID: s,
	}

	if parsed.ChapterRef != nil {
		ref.Chapter = parsed.ChapterRef.Chapter

		if v := parsed.ChapterRef.VerseRef; v != nil {
			ref.Verse = v.Verse

			if v.SubVerse != nil {
				ref.SubVerse = *v.SubVerse
			}

			if v.Range != nil {
				if v.Range.Second != nil {
					ref.ChapterEnd = v.Range.First
					ref.VerseEnd = *v.Range.Second
				} else {
					ref.VerseEnd = v.Range.First
				}
			}
		}
	}

	return ref, nil
}

// String returns the OSIS ID representation of the reference.
func (r *Ref) String() string {
	if r.OSISID != "" {
		return r.OSISID
	}

	var sb strings.Builder
	sb.WriteString(r.Book)

	if r.Chapter > 0 {
		sb.WriteString(".")
		sb.WriteString(strconv.Itoa(r.Chapter))

		if r.Verse > 0 {
			sb.WriteString(".")
			sb.WriteString(strconv.Itoa(r.Verse))
			sb.WriteString(r.SubVerse)

			if r.VerseEnd > 0 {
				sb.WriteString("-")
				if r.ChapterEnd > 0 && r.ChapterEnd != r.Chapter {
					sb.WriteString(strconv.Itoa(r.ChapterEnd))
					sb.WriteString(".")
				}
				sb.WriteString(strconv.Itoa(r.VerseEnd))
			}
		}
	}

	return sb.String()
}

// IsRange returns true if this reference spans multiple verses.
func (r *Ref) IsRange() bool {
	if r.VerseEnd == 0 {
		return false
	}
	if r.ChapterEnd > r.Chapter {
		return true
	}
	return r.VerseEnd > r.Verse
}

// Contains returns true if this reference contains the other reference.
func (r *Ref) Contains(other *Ref) bool {
	if r.Book != other.Book {
		return false
	}

	// Book-only reference contains all chapters
	if r.Chapter == 0 {
		return true
	}

	rr, err := r.Range()
	if err != nil {
		return false
	}
	or, err := other.Range()
	if err != nil {
		return false
	}
	return rr.Min <= or.Min && or.Max <= rr.Max
}

// Range converts the reference into an inclusive ordinal range. Book-only and
// chapter-only references cover every verse of the book or chapter.
func (r *Ref) Range() (RefRange, error) {
	book := BookNumber(r.Book)
	if book == 0 {
		return RefRange{}, errors.NewValidation("book", fmt.Sprintf("unknown book %q", r.Book))
	}

	if r.Chapter == 0 {
		return RefRange{
			Min: NewOrdinal(book, 1, 1),
			Max: NewOrdinal(book, MaxChapter, MaxVerse),
		}, nil
	}
	if r.Verse == 0 {
		return RefRange{
			Min: NewOrdinal(book, r.Chapter, 1),
			Max: NewOrdinal(book, r.Chapter, MaxVerse),
		}, nil
	}

	endChapter, endVerse := r.Chapter, r.Verse
	if r.VerseEnd > 0 {
		endVerse = r.VerseEnd
		if r.ChapterEnd > 0 {
			endChapter = r.ChapterEnd
		}
	}
	return NewRefRange(NewOrdinal(book, r.Chapter, r.Verse), NewOrdinal(book, endChapter, endVerse))
}

// ParseRefRange parses an OSIS reference and returns its ordinal range.
func ParseRefRange(s string) (RefRange, error) {
	ref, err := ParseRef(s)
	if err != nil {
		return RefRange{}, err
	}
	return ref.Range()
}

// MustParseRefRange is like ParseRefRange but panics on error.
// It is intended for tests and static tables.
func MustParseRefRange(s string) RefRange {
	rr, err := ParseRefRange(s)
	if err != nil {
		panic(fmt.Sprintf("ir: invalid reference range %q: %v", s, err))
	}
	return rr
}
