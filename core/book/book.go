// Package book holds the in-memory model of one version of a scripture book:
// sections with heading and content texts, paragraphs, and the verse segments
// inside each paragraph. It is the input side of a structural compare; nothing
// here is mutated by the compare itself.
package book

import (
	"strings"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// StyleStanzaBreak is the paragraph style of a blank line between stanzas.
const StyleStanzaBreak = "b"

// Book is one version (Current or Revision) of a scripture book.
type Book struct {
	ID       uuid.UUID
	Code     string // OSIS ID, e.g. "Gen"
	Number   int    // 1-based canonical book number
	Sections []*Section
}

// Section is a run of content paragraphs introduced by an optional heading.
type Section struct {
	ID      uuid.UUID
	Heading *Text
	Content *Text

	// Start is the reference position at which the section was opened. It is
	// used when the content has no verses.
	Start ir.Ordinal
}

// Text is an owning sequence of paragraphs.
type Text struct {
	ID         uuid.UUID
	Paragraphs []*Paragraph
}

// Paragraph is a styled paragraph. Content paragraphs carry verse segments;
// heading paragraphs carry plain text.
type Paragraph struct {
	ID     uuid.UUID
	Style  string
	Text   string
	Verses []*Verse

	// Anchor is the reference position of a paragraph without verses.
	Anchor ir.Ordinal
}

// Verse is the part of a verse that lives in one paragraph. A verse that
// continues into a following paragraph yields a second segment with
// StartsWithNumber false.
type Verse struct {
	ID               uuid.UUID
	Range            ir.RefRange
	Text             string
	StartsWithNumber bool
}

// New creates an empty book for the given OSIS ID or USX code.
func New(code string) *Book {
	n := ir.BookNumber(code)
	osis := ir.OSISBook(n)
	if osis == "" {
		osis = code
	}
	return &Book{ID: uuid.New(), Code: osis, Number: n}
}

// AddSection appends an empty section opened at start.
func (b *Book) AddSection(start ir.Ordinal) *Section {
	s := &Section{
		ID:      uuid.New(),
		Heading: &Text{ID: uuid.New()},
		Content: &Text{ID: uuid.New()},
		Start:   start,
	}
	b.Sections = append(b.Sections, s)
	return s
}

// AddParagraph appends an empty paragraph with the given style.
func (t *Text) AddParagraph(style string) *Paragraph {
	p := &Paragraph{ID: uuid.New(), Style: style}
	t.Paragraphs = append(t.Paragraphs, p)
	return p
}

// AddHeading appends a heading paragraph with plain text.
func (t *Text) AddHeading(style, text string) *Paragraph {
	p := t.AddParagraph(style)
	p.Text = text
	return p
}

// AddStanzaBreak appends an empty stanza-break paragraph anchored at ref.
func (t *Text) AddStanzaBreak(anchor ir.Ordinal) *Paragraph {
	p := t.AddParagraph(StyleStanzaBreak)
	p.Anchor = anchor
	return p
}

// AddVerse appends a verse segment to the paragraph.
func (p *Paragraph) AddVerse(rr ir.RefRange, text string, startsWithNumber bool) *Verse {
	v := &Verse{ID: uuid.New(), Range: rr, Text: text, StartsWithNumber: startsWithNumber}
	p.Verses = append(p.Verses, v)
	return v
}

// IsStanzaBreak reports whether the paragraph is a structurally empty
// stanza break.
func (p *Paragraph) IsStanzaBreak() bool {
	return p.Style == StyleStanzaBreak && len(p.Verses) == 0 && strings.TrimSpace(p.Text) == ""
}

// Range returns the union of the paragraph's verse ranges, or its anchor when
// it has no verses.
func (p *Paragraph) Range() ir.RefRange {
	var rr ir.RefRange
	for _, v := range p.Verses {
		rr = rr.Union(v.Range)
	}
	if rr == (ir.RefRange{}) && p.Anchor != 0 {
		return ir.SingleVerse(p.Anchor)
	}
	return rr
}

// Contents returns the paragraph's text with verse segments joined by spaces.
func (p *Paragraph) Contents() string {
	if len(p.Verses) == 0 {
		return p.Text
	}
	parts := make([]string, 0, len(p.Verses))
	for _, v := range p.Verses {
		parts = append(parts, v.Text)
	}
	return strings.Join(parts, " ")
}

// Range returns the reference span of the section's content, falling back
// to Start when the content has no verses.
func (s *Section) Range() ir.RefRange {
	var rr ir.RefRange
	for _, p := range s.Content.Paragraphs {
		for _, v := range p.Verses {
			rr = rr.Union(v.Range)
		}
	}
	if rr == (ir.RefRange{}) && s.Start != 0 {
		return ir.SingleVerse(s.Start)
	}
	return rr
}

// HeadRef returns the start reference of the section heading.
func (s *Section) HeadRef() ir.Ordinal {
	return s.Range().Min
}

// HeadingText returns the heading paragraphs joined by newlines.
func (s *Section) HeadingText() string {
	lines := make([]string, 0, len(s.Heading.Paragraphs))
	for _, p := range s.Heading.Paragraphs {
		lines = append(lines, p.Text)
	}
	return strings.Join(lines, "\n")
}

// Stats counts the structural units of a book.
type Stats struct {
	Sections   int
	Paragraphs int
	Verses     int
}

// Stats returns unit counts for progress reporting and logs.
func (b *Book) Stats() Stats {
	var st Stats
	st.Sections = len(b.Sections)
	for _, s := range b.Sections {
		st.Paragraphs += len(s.Content.Paragraphs)
		for _, p := range s.Content.Paragraphs {
			st.Verses += len(p.Verses)
		}
	}
	return st
}
