package merge

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// Level is the granularity of a compare run.
type Level int

const (
	LevelSections Level = iota
	LevelParagraphs
	LevelVerses
)

func (l Level) String() string {
	switch l {
	case LevelSections:
		return "sections"
	case LevelParagraphs:
		return "paragraphs"
	case LevelVerses:
		return "verses"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses "sections", "paragraphs" or "verses".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sections", "section":
		return LevelSections, nil
	case "paragraphs", "paragraph":
		return LevelParagraphs, nil
	case "verses", "verse":
		return LevelVerses, nil
	}
	return LevelSections, errors.NewValidation("level", fmt.Sprintf("unknown compare level %q", s))
}

// StructuralDifferences turns sorted clusters into differences. Matched
// clusters yield none: comparing their text is the caller's business.
// Complex clusters carry one sub-difference per unit.
func StructuralDifferences(level Level, clusters []*Cluster) ([]*diff.Difference, error) {
	var out []*diff.Difference
	for _, c := range clusters {
		if c.Type == MatchedItems {
			continue
		}
		kind, err := differenceKind(level, c)
		if err != nil {
			return nil, err
		}
		d, err := newDifference(level, kind, c)
		if err != nil {
			return nil, err
		}
		if c.Type.IsComplex() && kind.IsParagraphStructure() {
			for _, p := range c.Current {
				if err := addUnitSubDiff(d, level, p); err != nil {
					return nil, err
				}
			}
			for _, p := range c.Revision {
				if err := addUnitSubDiff(d, level, p); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func allEmpty(items []*Proxy) bool {
	return len(items) > 0 && !hasContent(items)
}

func differenceKind(level Level, c *Cluster) (diff.Kind, error) {
	switch level {
	case LevelSections:
		switch c.Type {
		case AddedToCurrent:
			return diff.KindSectionAddedToCurrent, nil
		case MissingInCurrent:
			return diff.KindSectionMissingInCurrent, nil
		case OrphansInCurrent, SplitInCurrent:
			return diff.KindSectionHeadAddedToCurrent, nil
		case OrphansInRevision, MergedInCurrent:
			return diff.KindSectionHeadMissingInCurrent, nil
		case MultipleInBoth:
			return diff.KindSectionStructureChange, nil
		}
	case LevelParagraphs, LevelVerses:
		added, missing := diff.KindVerseAddedToCurrent, diff.KindVerseMissingInCurrent
		if level == LevelParagraphs {
			added, missing = diff.KindParagraphAddedToCurrent, diff.KindParagraphMissingInCurrent
		}
		switch c.Type {
		case AddedToCurrent, OrphansInCurrent:
			if allEmpty(c.Current) {
				return diff.KindStanzaBreakAddedToCurrent, nil
			}
			return added, nil
		case MissingInCurrent, OrphansInRevision:
			if allEmpty(c.Revision) {
				return diff.KindStanzaBreakMissingInCurrent, nil
			}
			return missing, nil
		case SplitInCurrent:
			if level == LevelParagraphs {
				return diff.KindParagraphSplitInCurrent, nil
			}
			return diff.KindParagraphStructureChange, nil
		case MergedInCurrent:
			if level == LevelParagraphs {
				return diff.KindParagraphMergedInCurrent, nil
			}
			return diff.KindParagraphStructureChange, nil
		case MultipleInBoth:
			return diff.KindParagraphStructureChange, nil
		}
	}
	return diff.KindNone, errors.NewInvariant("differences", "no difference kind for %s cluster at %s level", c.Type, level)
}

// position describes one side of a cluster: its first unit, or the insertion
// point when the side is empty.
func position(level Level, items []*Proxy, insertAt int) diff.Position {
	if len(items) == 0 {
		return diff.Position{Map: []int{insertAt}}
	}
	p := items[0]
	para := p.Para
	if level == LevelSections {
		para = uuid.Nil
	}
	pos := diff.Position{Para: para, Map: []int{p.pos}}
	if para != uuid.Nil {
		pos.IchLim = len(p.Text)
	}
	return pos
}

func handles(items []*Proxy) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, p := range items {
		out[i] = p.Handle
	}
	return out
}

func newDifference(level Level, kind diff.Kind, c *Cluster) (*diff.Difference, error) {
	curr := position(level, c.Current, c.InsertIndex)
	rev := position(level, c.Revision, c.InsertIndex)
	if kind.IsSection() {
		return diff.NewSectionDifference(c.Range.Min, c.Range.Max, kind, curr, rev, handles(c.Current), handles(c.Revision))
	}
	return diff.NewStructureDifference(c.Range.Min, c.Range.Max, kind, curr, rev)
}

func addUnitSubDiff(d *diff.Difference, level Level, p *Proxy) error {
	var (
		kind        diff.Kind
		curr, rev   diff.Position
		currH, revH []uuid.UUID
	)
	one := []*Proxy{p}
	if p.Side == ir.Current {
		kind = diff.KindParagraphAddedToCurrent
		curr = position(level, one, 0)
		currH = []uuid.UUID{p.Handle}
	} else {
		kind = diff.KindParagraphMissingInCurrent
		rev = position(level, one, 0)
		revH = []uuid.UUID{p.Handle}
	}

	var sub *diff.Difference
	var err error
	if level == LevelSections {
		if p.Side == ir.Current {
			kind = diff.KindSectionAddedToCurrent
		} else {
			kind = diff.KindSectionMissingInCurrent
		}
		sub, err = diff.NewSectionDifference(p.Range.Min, p.Range.Max, kind, curr, rev, currH, revH)
	} else {
		sub, err = diff.NewStructureDifference(p.Range.Min, p.Range.Max, kind, curr, rev)
	}
	if err != nil {
		return err
	}
	return d.AddSubDiffForParagraph(sub)
}
