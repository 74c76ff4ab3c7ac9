package merge

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperMerge/core/book"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// Progress is called once per structural unit enumerated while proxy lists
// are built. It may be nil.
type Progress func()

func (f Progress) step() {
	if f != nil {
		f()
	}
}

func checkRange(kind string, i int, rr ir.RefRange) error {
	if rr.IsValid() {
		return nil
	}
	return &errors.ValidationError{
		Field:   kind,
		Value:   fmt.Sprintf("%d-%d", int(rr.Min), int(rr.Max)),
		Message: fmt.Sprintf("%s %d has no valid reference range", kind, i),
	}
}

// SectionProxies returns one proxy per section of b.
func SectionProxies(b *book.Book, side ir.Side, progress Progress) ([]*Proxy, error) {
	out := make([]*Proxy, 0, len(b.Sections))
	for i, s := range b.Sections {
		progress.step()
		rr := s.Range()
		if err := checkRange("section", i, rr); err != nil {
			return nil, err
		}
		out = append(out, &Proxy{
			Range:  rr,
			Side:   side,
			Index:  i,
			Handle: s.ID,
			Owner:  b.ID,
			Text:   s.HeadingText(),
		})
	}
	return out, nil
}

// ParagraphProxies returns one proxy per content paragraph of b. Stanza
// breaks become empty proxies.
func ParagraphProxies(b *book.Book, side ir.Side, progress Progress) ([]*Proxy, error) {
	var out []*Proxy
	for _, s := range b.Sections {
		for i, p := range s.Content.Paragraphs {
			progress.step()
			rr := p.Range()
			if err := checkRange("paragraph", len(out), rr); err != nil {
				return nil, err
			}
			out = append(out, &Proxy{
				Range:  rr,
				Side:   side,
				Index:  i,
				Handle: p.ID,
				Owner:  s.Content.ID,
				Para:   p.ID,
				Empty:  p.IsStanzaBreak(),
				Text:   p.Contents(),
			})
		}
	}
	return out, nil
}

// VerseProxies returns one proxy per verse line of b: each verse segment of a
// paragraph, plus one empty proxy for each stanza break. Lines are owned by
// the section content text, so Index counts lines across its paragraphs.
func VerseProxies(b *book.Book, side ir.Side, progress Progress) ([]*Proxy, error) {
	var out []*Proxy
	for _, s := range b.Sections {
		line := 0
		for _, p := range s.Content.Paragraphs {
			if len(p.Verses) == 0 {
				progress.step()
				rr := p.Range()
				if err := checkRange("verse line", len(out), rr); err != nil {
					return nil, err
				}
				out = append(out, &Proxy{
					Range:  rr,
					Side:   side,
					Index:  line,
					Handle: p.ID,
					Owner:  s.Content.ID,
					Para:   p.ID,
					Empty:  p.IsStanzaBreak(),
					Text:   p.Text,
				})
				line++
				continue
			}
			for _, v := range p.Verses {
				progress.step()
				if err := checkRange("verse line", len(out), v.Range); err != nil {
					return nil, err
				}
				out = append(out, &Proxy{
					Range:      v.Range,
					Side:       side,
					Index:      line,
					Handle:     v.ID,
					Owner:      s.Content.ID,
					Para:       p.ID,
					Text:       v.Text,
					VerseStart: v.StartsWithNumber,
				})
				line++
			}
		}
	}
	return out, nil
}
