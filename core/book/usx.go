package book

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

var (
	usxBookExpr   = xpath.MustCompile("/usx/book")
	usxBlocksExpr = xpath.MustCompile("/usx/*")
)

// Paragraph styles that open a section heading.
var headingStyles = map[string]bool{
	"s": true, "s1": true, "s2": true, "s3": true, "s4": true,
	"ms": true, "ms1": true, "ms2": true, "ms3": true, "mr": true, "sr": true, "r": true,
}

// Paragraph styles that belong to the book title matter and are not compared.
var skippedStyles = map[string]bool{
	"h": true, "toc1": true, "toc2": true, "toc3": true, "ide": true, "rem": true,
	"mt": true, "mt1": true, "mt2": true, "mt3": true, "imt": true, "ip": true, "is": true,
}

// LoadUSX reads a USX document into a Book. Section headings open new
// sections, chapter milestones move the reference position, and text before
// the first verse of a paragraph continues the previous verse.
func LoadUSX(r io.Reader) (*Book, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "USX", Message: "malformed XML", Err: err}
	}

	bookNode := xmlquery.QuerySelector(doc, usxBookExpr)
	if bookNode == nil {
		return nil, errors.NewParse("USX", "", "missing book element")
	}
	code := bookNode.SelectAttr("code")
	if ir.BookNumber(code) == 0 {
		return nil, errors.NewParse("USX", "", fmt.Sprintf("unknown book code %q", code))
	}

	l := &usxLoader{book: New(code)}
	for _, n := range xmlquery.QuerySelectorAll(doc, usxBlocksExpr) {
		if err := l.block(n); err != nil {
			return nil, err
		}
	}
	return l.book, nil
}

type usxLoader struct {
	book    *Book
	chapter int
	pos     ir.Ordinal // last reference position reached
	last    *Verse     // last verse segment opened anywhere in the book
	section *Section   // section receiving content
	para    *Paragraph // paragraph being filled
	current *Verse     // verse segment receiving text in para
}

func (l *usxLoader) block(n *xmlquery.Node) error {
	switch n.Data {
	case "chapter":
		if n.SelectAttr("eid") != "" {
			return nil
		}
		ch, err := strconv.Atoi(n.SelectAttr("number"))
		if err != nil || ch <= 0 || ch > ir.MaxChapter {
			return errors.NewParse("USX", "", fmt.Sprintf("bad chapter number %q", n.SelectAttr("number")))
		}
		l.chapter = ch
		l.pos = ir.NewOrdinal(l.book.Number, ch, 1)
	case "para":
		return l.paragraph(n)
	}
	return nil
}

func (l *usxLoader) paragraph(n *xmlquery.Node) error {
	style := n.SelectAttr("style")
	switch {
	case skippedStyles[style]:
		return nil
	case headingStyles[style]:
		// Consecutive headings share one section.
		if l.section == nil || len(l.section.Content.Paragraphs) > 0 {
			l.section = l.book.AddSection(l.pos)
		}
		l.section.Heading.AddHeading(style, collapse(n.InnerText()))
		return nil
	}

	if l.section == nil {
		l.section = l.book.AddSection(l.pos)
	}
	l.para = l.section.Content.AddParagraph(style)
	l.current = nil
	if err := l.inline(n); err != nil {
		return err
	}
	for _, v := range l.para.Verses {
		v.Text = collapse(v.Text)
	}
	if len(l.para.Verses) == 0 {
		l.para.Anchor = l.pos
	}
	return nil
}

func (l *usxLoader) inline(n *xmlquery.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			l.text(c.Data)
		case xmlquery.ElementNode:
			switch c.Data {
			case "verse":
				if err := l.verse(c); err != nil {
					return err
				}
			case "note", "figure":
				// Embedded objects are not part of the verse text.
			default:
				if err := l.inline(c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *usxLoader) verse(n *xmlquery.Node) error {
	if n.SelectAttr("eid") != "" && n.SelectAttr("number") == "" {
		return nil
	}
	if l.chapter == 0 {
		return errors.NewParse("USX", "", "verse before first chapter")
	}
	first, last, err := parseVerseNumber(n.SelectAttr("number"))
	if err != nil {
		return err
	}
	rr, err := ir.NewRefRange(
		ir.NewOrdinal(l.book.Number, l.chapter, first),
		ir.NewOrdinal(l.book.Number, l.chapter, last),
	)
	if err != nil {
		return err
	}
	v := &Verse{ID: uuid.New(), Range: rr, StartsWithNumber: true}
	l.para.Verses = append(l.para.Verses, v)
	l.current = v
	l.last = v
	l.pos = rr.Max
	return nil
}

func (l *usxLoader) text(s string) {
	if l.current == nil {
		if strings.TrimSpace(s) == "" {
			return
		}
		rr := ir.SingleVerse(l.pos)
		if l.last != nil {
			rr = l.last.Range
		}
		if !rr.IsValid() {
			// Text before the first chapter has no reference position.
			return
		}
		l.current = &Verse{ID: uuid.New(), Range: rr}
		l.para.Verses = append(l.para.Verses, l.current)
	}
	l.current.Text += s
}

// parseVerseNumber parses "3", "3a" or a bridge such as "3-5".
func parseVerseNumber(s string) (first, last int, err error) {
	start, end, bridged := strings.Cut(strings.TrimSpace(s), "-")
	first, err = leadingInt(start)
	if err != nil {
		return 0, 0, errors.NewParse("USX", "", fmt.Sprintf("bad verse number %q", s))
	}
	last = first
	if bridged {
		last, err = leadingInt(end)
		if err != nil || last < first {
			return 0, 0, errors.NewParse("USX", "", fmt.Sprintf("bad verse bridge %q", s))
		}
	}
	return first, last, nil
}

func leadingInt(s string) (int, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err == nil && (n <= 0 || n > ir.MaxVerse) {
		err = fmt.Errorf("verse number %d out of range", n)
	}
	return n, err
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
