package diff

import (
	"cmp"
	"slices"

	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// Comparator orders differences by document position, preferring one side.
type Comparator struct {
	Primary ir.Side
}

// Comparators for the two sides.
var (
	ByCurrent  = NewComparator(ir.Current)
	ByRevision = NewComparator(ir.Revision)
)

// NewComparator returns a comparator whose primary keys come from side.
func NewComparator(primary ir.Side) Comparator {
	return Comparator{Primary: primary}
}

func (c Comparator) positions(d *Difference) (primary, secondary Position) {
	if c.Primary == ir.Revision {
		return d.Rev, d.Curr
	}
	return d.Curr, d.Rev
}

// Compare orders a and b by, in turn: the primary side's position map and
// character offset, the other side's position map and character offset, and
// finally kind and flags descending.
func (c Comparator) Compare(a, b *Difference) int {
	ap, as := c.positions(a)
	bp, bs := c.positions(b)
	if n := slices.Compare(ap.Map, bp.Map); n != 0 {
		return n
	}
	if n := cmp.Compare(ap.IchMin, bp.IchMin); n != 0 {
		return n
	}
	if n := slices.Compare(as.Map, bs.Map); n != 0 {
		return n
	}
	if n := cmp.Compare(as.IchMin, bs.IchMin); n != 0 {
		return n
	}
	if n := cmp.Compare(b.Kind, a.Kind); n != 0 {
		return n
	}
	return cmp.Compare(b.Flags, a.Flags)
}
