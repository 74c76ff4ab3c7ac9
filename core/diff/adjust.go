package diff

import (
	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
)

// The functions in this file keep Current-side positions coherent after the
// Current paragraphs have been edited. Callers run them after the edit, once
// per changed paragraph.

func (l *List) startIndex(start *Difference) (int, error) {
	if start == nil {
		return -1, errors.NewNotFound("difference", "")
	}
	i := l.IndexOf(start)
	if i < 0 {
		return -1, errors.NewNotFound("difference", start.String())
	}
	return i, nil
}

func shift(p *Position, offset int) {
	p.IchMin = max(p.IchMin+offset, 0)
	p.IchLim = max(p.IchLim+offset, p.IchMin)
}

// AdjustFollowingOffsets shifts the Current character offsets of every
// difference after start that lies in para. In a sorted list the scan stops
// at the first difference in another paragraph.
func (l *List) AdjustFollowingOffsets(start *Difference, para uuid.UUID, offset int) error {
	i, err := l.startIndex(start)
	if err != nil {
		return err
	}
	for _, d := range l.diffs[i+1:] {
		if d.Curr.Para != para {
			if l.sorted {
				break
			}
			continue
		}
		shift(&d.Curr, offset)
	}
	return nil
}

// FixFollowingParaDiffs moves differences that pointed into oldPara over to
// newPara, shifting their offsets, after the two paragraphs were merged or
// split. The scan starts at start itself. When ichLimit is not negative,
// differences starting beyond it are left alone.
//
// A ParagraphAddedToCurrent difference in oldPara no longer describes a whole
// paragraph once that paragraph has been joined to another, so it becomes
// VerseAddedToCurrent. The difference just before it gets the same treatment
// when it is a paragraph addition in either paragraph.
func (l *List) FixFollowingParaDiffs(start *Difference, oldPara, newPara uuid.UUID, offset, ichLimit int) error {
	i, err := l.startIndex(start)
	if err != nil {
		return err
	}
	for j := i; j < len(l.diffs); j++ {
		d := l.diffs[j]
		if d.Curr.Para != oldPara {
			if l.sorted && j > i {
				break
			}
			continue
		}
		if ichLimit >= 0 && d.Curr.IchMin > ichLimit {
			continue
		}
		d.Curr.Para = newPara
		shift(&d.Curr, offset)

		if d.Kind == KindParagraphAddedToCurrent {
			d.Kind = KindVerseAddedToCurrent
			if j > 0 {
				prev := l.diffs[j-1]
				if prev.Kind == KindParagraphAddedToCurrent && (prev.Curr.Para == oldPara || prev.Curr.Para == newPara) {
					prev.Kind = KindVerseAddedToCurrent
				}
			}
		}
	}
	return nil
}

// FixDiffsForVerseMoved updates the list after the verse text of moved, of
// length n characters, was moved in the Current from its MovedFrom position
// to its Current position. Differences after the old position close the gap;
// differences at or after the new position make room.
func (l *List) FixDiffsForVerseMoved(moved *Difference, n int) error {
	if moved.Kind != KindVerseMoved {
		return errors.NewInvariant("difflist", "FixDiffsForVerseMoved called on %s", moved.Kind)
	}
	if _, err := l.startIndex(moved); err != nil {
		return err
	}
	for _, d := range l.diffs {
		if d == moved {
			continue
		}
		if d.Curr.Para == moved.MovedFrom && d.Curr.IchMin > moved.MovedFromIch {
			shift(&d.Curr, -n)
		}
		if d.Curr.Para == moved.Curr.Para && d.Curr.IchMin >= moved.Curr.IchMin {
			shift(&d.Curr, n)
		}
	}
	return nil
}

// FixCurrParaHvosAndSetIch repoints every difference from start on that
// referred to oldPara, which no longer exists, at an insertion point ich in
// newPara.
func (l *List) FixCurrParaHvosAndSetIch(start *Difference, oldPara, newPara uuid.UUID, ich int) error {
	i, err := l.startIndex(start)
	if err != nil {
		return err
	}
	if ich < 0 {
		return errors.NewValidation("ich", "insertion point must not be negative")
	}
	for _, d := range l.diffs[i:] {
		if d.Curr.Para != oldPara {
			continue
		}
		d.Curr.Para = newPara
		d.Curr.IchMin = ich
		d.Curr.IchLim = ich
	}
	return nil
}

// FixMissingCurrParaDestIP gives every missing-in-current difference whose
// destination was in para a new destination ich in newPara.
func (l *List) FixMissingCurrParaDestIP(para, newPara uuid.UUID, ich int) error {
	for _, d := range l.diffs {
		if !d.Kind.IsMissingInCurrent() || d.Curr.Para != para {
			continue
		}
		if err := d.SetDestinationIP(newPara, ich); err != nil {
			return err
		}
	}
	return nil
}
