// Package diff holds the output of a structural compare: classified
// differences, an ordered list of them with a cursor, and the offset fixes the
// list needs when the Current is edited underneath it.
package diff

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// Position locates a difference on one side. Para is the paragraph handle,
// IchMin and IchLim a character range in it, and Map the structural position
// (section, paragraph, ...) used for ordering. The character range means
// nothing when Para is uuid.Nil.
type Position struct {
	Para   uuid.UUID `json:"para"`
	IchMin int       `json:"ich_min"`
	IchLim int       `json:"ich_lim"`
	Map    []int     `json:"map,omitempty"`
}

func (p Position) validate(side string) error {
	if p.IchMin < 0 || p.IchLim < p.IchMin {
		return errors.NewValidation(side, fmt.Sprintf("bad character range %d..%d", p.IchMin, p.IchLim))
	}
	if p.Para == uuid.Nil && (p.IchMin != 0 || p.IchLim != 0) {
		return errors.NewValidation(side, "character range without a paragraph")
	}
	return nil
}

func (p Position) clone() Position {
	p.Map = slices.Clone(p.Map)
	return p
}

func (p Position) equal(o Position) bool {
	return p.Para == o.Para && p.IchMin == o.IchMin && p.IchLim == o.IchLim && slices.Equal(p.Map, o.Map)
}

// Difference is one discrepancy between the Current and the Revision.
type Difference struct {
	RefStart ir.Ordinal `json:"ref_start"`
	RefEnd   ir.Ordinal `json:"ref_end"`
	Kind     Kind       `json:"kind"`
	Flags    Flags      `json:"flags,omitempty"`

	Curr Position `json:"curr"`
	Rev  Position `json:"rev"`

	// MovedFrom is the Current paragraph a moved verse came from.
	MovedFrom    uuid.UUID `json:"moved_from"`
	MovedFromIch int       `json:"moved_from_ich,omitempty"`

	StyleNameCurr string `json:"style_curr,omitempty"`
	StyleNameRev  string `json:"style_rev,omitempty"`
	WsNameCurr    string `json:"ws_curr,omitempty"`
	WsNameRev     string `json:"ws_rev,omitempty"`

	SubDiffsForEmbeds []*Difference `json:"sub_embeds,omitempty"`
	SubDiffsForParas  []*Difference `json:"sub_paras,omitempty"`

	// Section handles are set only on section kinds.
	SectionsCurr []uuid.UUID `json:"sections_curr,omitempty"`
	SectionsRev  []uuid.UUID `json:"sections_rev,omitempty"`
}

func checkRefs(start, end ir.Ordinal) error {
	if start <= 0 || end < start {
		return errors.NewValidation("reference", fmt.Sprintf("bad reference span %d-%d", int(start), int(end)))
	}
	return nil
}

func checkPositions(curr, rev Position) error {
	if err := curr.validate("current position"); err != nil {
		return err
	}
	return rev.validate("revision position")
}

// NewTextDifference returns a text difference between two paragraphs. At
// least one flag must be set.
func NewTextDifference(start, end ir.Ordinal, flags Flags, curr, rev Position) (*Difference, error) {
	if err := checkRefs(start, end); err != nil {
		return nil, err
	}
	if flags == 0 || flags&^flagsAll != 0 {
		return nil, errors.NewValidation("flags", fmt.Sprintf("invalid text difference flags %s", flags))
	}
	if curr.Para == uuid.Nil || rev.Para == uuid.Nil {
		return nil, errors.NewValidation("paragraph", "text difference needs a paragraph on both sides")
	}
	if err := checkPositions(curr, rev); err != nil {
		return nil, err
	}
	return &Difference{RefStart: start, RefEnd: end, Kind: KindTextDifference, Flags: flags, Curr: curr, Rev: rev}, nil
}

// NewStructureDifference returns a verse, paragraph or stanza-break
// difference.
func NewStructureDifference(start, end ir.Ordinal, kind Kind, curr, rev Position) (*Difference, error) {
	if err := checkRefs(start, end); err != nil {
		return nil, err
	}
	switch {
	case kind == KindNone, kind == KindTextDifference, kind == KindVerseMoved, kind.IsSection():
		return nil, errors.NewValidation("kind", fmt.Sprintf("%s is not a structure difference", kind))
	case kind < 0 || int(kind) >= len(kindNames):
		return nil, errors.NewValidation("kind", fmt.Sprintf("unknown kind %d", int(kind)))
	}
	if err := checkPositions(curr, rev); err != nil {
		return nil, err
	}
	return &Difference{RefStart: start, RefEnd: end, Kind: kind, Curr: curr, Rev: rev}, nil
}

// NewSectionDifference returns a difference about whole sections or section
// heads. Added kinds need Current section handles, missing kinds Revision
// ones.
func NewSectionDifference(start, end ir.Ordinal, kind Kind, curr, rev Position, sectionsCurr, sectionsRev []uuid.UUID) (*Difference, error) {
	if err := checkRefs(start, end); err != nil {
		return nil, err
	}
	if !kind.IsSection() {
		return nil, errors.NewValidation("kind", fmt.Sprintf("%s is not a section difference", kind))
	}
	switch {
	case kind.IsAddedToCurrent() && len(sectionsCurr) == 0:
		return nil, errors.NewValidation("sections", fmt.Sprintf("%s needs current sections", kind))
	case kind.IsMissingInCurrent() && len(sectionsRev) == 0:
		return nil, errors.NewValidation("sections", fmt.Sprintf("%s needs revision sections", kind))
	case len(sectionsCurr) == 0 && len(sectionsRev) == 0:
		return nil, errors.NewValidation("sections", fmt.Sprintf("%s needs sections", kind))
	}
	if err := checkPositions(curr, rev); err != nil {
		return nil, err
	}
	return &Difference{
		RefStart:     start,
		RefEnd:       end,
		Kind:         kind,
		Curr:         curr,
		Rev:          rev,
		SectionsCurr: slices.Clone(sectionsCurr),
		SectionsRev:  slices.Clone(sectionsRev),
	}, nil
}

// NewMovedVerseDifference returns a verse that sits in a different paragraph
// in the Current than in the Revision. from and fromIch locate where it was.
func NewMovedVerseDifference(start, end ir.Ordinal, curr, rev Position, from uuid.UUID, fromIch int) (*Difference, error) {
	if err := checkRefs(start, end); err != nil {
		return nil, err
	}
	if from == uuid.Nil || fromIch < 0 {
		return nil, errors.NewValidation("moved from", "moved verse needs a source paragraph")
	}
	if err := checkPositions(curr, rev); err != nil {
		return nil, err
	}
	return &Difference{RefStart: start, RefEnd: end, Kind: KindVerseMoved, Curr: curr, Rev: rev, MovedFrom: from, MovedFromIch: fromIch}, nil
}

// Clone returns a deep copy of d.
func (d *Difference) Clone() *Difference {
	if d == nil {
		return nil
	}
	c := *d
	c.Curr = d.Curr.clone()
	c.Rev = d.Rev.clone()
	c.SectionsCurr = slices.Clone(d.SectionsCurr)
	c.SectionsRev = slices.Clone(d.SectionsRev)
	c.SubDiffsForEmbeds = cloneAll(d.SubDiffsForEmbeds)
	c.SubDiffsForParas = cloneAll(d.SubDiffsForParas)
	return &c
}

func cloneAll(diffs []*Difference) []*Difference {
	if diffs == nil {
		return nil
	}
	out := make([]*Difference, len(diffs))
	for i, d := range diffs {
		out[i] = d.Clone()
	}
	return out
}

// Equal reports whether every field of d and o is equal, sub-differences
// included.
func (d *Difference) Equal(o *Difference) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.RefStart == o.RefStart &&
		d.RefEnd == o.RefEnd &&
		d.Kind == o.Kind &&
		d.Flags == o.Flags &&
		d.Curr.equal(o.Curr) &&
		d.Rev.equal(o.Rev) &&
		d.MovedFrom == o.MovedFrom &&
		d.MovedFromIch == o.MovedFromIch &&
		d.StyleNameCurr == o.StyleNameCurr &&
		d.StyleNameRev == o.StyleNameRev &&
		d.WsNameCurr == o.WsNameCurr &&
		d.WsNameRev == o.WsNameRev &&
		slices.Equal(d.SectionsCurr, o.SectionsCurr) &&
		slices.Equal(d.SectionsRev, o.SectionsRev) &&
		slices.EqualFunc(d.SubDiffsForEmbeds, o.SubDiffsForEmbeds, (*Difference).Equal) &&
		slices.EqualFunc(d.SubDiffsForParas, o.SubDiffsForParas, (*Difference).Equal)
}

// IsEquivalent is a relaxed Equal: it compares references, kind, flags and
// paragraphs but ignores character offsets, position maps and style names.
func (d *Difference) IsEquivalent(o *Difference) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.RefStart == o.RefStart &&
		d.RefEnd == o.RefEnd &&
		d.Kind == o.Kind &&
		d.Flags == o.Flags &&
		d.Curr.Para == o.Curr.Para &&
		d.Rev.Para == o.Rev.Para &&
		slices.EqualFunc(d.SubDiffsForEmbeds, o.SubDiffsForEmbeds, (*Difference).IsEquivalent) &&
		slices.EqualFunc(d.SubDiffsForParas, o.SubDiffsForParas, (*Difference).IsEquivalent)
}

// HasSubDiffs reports whether d owns any sub-differences.
func (d *Difference) HasSubDiffs() bool {
	return len(d.SubDiffsForEmbeds) > 0 || len(d.SubDiffsForParas) > 0
}

func (d *Difference) checkSub(sub *Difference) error {
	switch {
	case sub == nil:
		return errors.NewInvariant("difference", "nil sub-difference")
	case sub == d:
		return errors.NewInvariant("difference", "difference cannot own itself")
	case sub.HasSubDiffs():
		return errors.NewInvariant("difference", "sub-differences cannot own sub-differences")
	}
	return nil
}

// AddSubDiffForEmbed attaches a footnote or picture difference to a text
// difference.
func (d *Difference) AddSubDiffForEmbed(sub *Difference) error {
	if d.Kind != KindTextDifference {
		return errors.NewInvariant("difference", "embedded sub-differences need a text difference, not %s", d.Kind)
	}
	if err := d.checkSub(sub); err != nil {
		return err
	}
	d.SubDiffsForEmbeds = append(d.SubDiffsForEmbeds, sub)
	return nil
}

// AddSubDiffForParagraph attaches a per-paragraph breakdown to a structure
// change.
func (d *Difference) AddSubDiffForParagraph(sub *Difference) error {
	if !d.Kind.IsParagraphStructure() {
		return errors.NewInvariant("difference", "paragraph sub-differences need a structure change, not %s", d.Kind)
	}
	if err := d.checkSub(sub); err != nil {
		return err
	}
	d.SubDiffsForParas = append(d.SubDiffsForParas, sub)
	return nil
}

// SetDestinationIP sets where in the Current content missing from it would be
// inserted.
func (d *Difference) SetDestinationIP(para uuid.UUID, ich int) error {
	if !d.Kind.IsMissingInCurrent() {
		return errors.NewInvariant("difference", "SetDestinationIP called on %s", d.Kind)
	}
	if para == uuid.Nil || ich < 0 {
		return errors.NewValidation("destination", "insertion point needs a paragraph and a non-negative offset")
	}
	d.Curr.Para = para
	d.Curr.IchMin = ich
	d.Curr.IchLim = ich
	return nil
}

// SetMovedFromIP updates where a moved verse came from.
func (d *Difference) SetMovedFromIP(para uuid.UUID, ich int) error {
	if d.Kind != KindVerseMoved {
		return errors.NewInvariant("difference", "SetMovedFromIP called on %s", d.Kind)
	}
	if para == uuid.Nil || ich < 0 {
		return errors.NewValidation("moved from", "insertion point needs a paragraph and a non-negative offset")
	}
	d.MovedFrom = para
	d.MovedFromIch = ich
	return nil
}

// SectionsAdded returns the Current sections of a section-added difference.
func (d *Difference) SectionsAdded() ([]uuid.UUID, error) {
	if d.Kind != KindSectionAddedToCurrent && d.Kind != KindSectionHeadAddedToCurrent {
		return nil, errors.NewInvariant("difference", "SectionsAdded called on %s", d.Kind)
	}
	return slices.Clone(d.SectionsCurr), nil
}

func (d *Difference) String() string {
	s := fmt.Sprintf("%s %s", d.Kind, ir.RefRange{Min: d.RefStart, Max: d.RefEnd})
	if d.Flags != 0 {
		s += " [" + d.Flags.String() + "]"
	}
	return s
}
