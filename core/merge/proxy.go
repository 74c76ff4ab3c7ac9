package merge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// Proxy describes one structural unit (section, paragraph or verse line) of
// one side. Builders fill in the unexported position; everything else is set
// by the code that enumerates the book.
type Proxy struct {
	Range ir.RefRange
	Side  ir.Side

	// Index is the unit's position within its owning sequence.
	Index int

	// Handle identifies the real object. Owner identifies the owning
	// sequence and is uuid.Nil when the unit has none.
	Handle uuid.UUID
	Owner  uuid.UUID

	// Para is the containing paragraph of a verse line, or the paragraph
	// itself at paragraph level.
	Para uuid.UUID

	// Empty marks a structurally empty unit such as a stanza break.
	Empty bool

	Text       string
	VerseStart bool // text begins with a verse number

	pos int // position in the side's input list
}

// Pos returns the proxy's position in the list it was clustered from.
func (p *Proxy) Pos() int { return p.pos }

func (p *Proxy) String() string {
	return fmt.Sprintf("%s[%d] %s", p.Side, p.pos, p.Range)
}

// arena holds the two input lists of a builder run. Related edges are
// adjacency lists of indices into the opposite side.
type arena struct {
	items   [2][]*Proxy
	related [2][][]int
}

func newArena(curr, rev []*Proxy) (*arena, error) {
	a := &arena{items: [2][]*Proxy{curr, rev}}
	for side := range a.items {
		for i, p := range a.items[side] {
			if p == nil {
				return nil, errors.NewValidation("proxy", fmt.Sprintf("%s proxy %d is nil", ir.Side(side), i))
			}
			if !p.Range.IsValid() {
				return nil, &errors.ValidationError{
					Field:   "range",
					Value:   fmt.Sprintf("%d-%d", int(p.Range.Min), int(p.Range.Max)),
					Message: fmt.Sprintf("%s proxy %d has an invalid reference range", ir.Side(side), i),
				}
			}
			if p.Side != ir.Side(side) {
				return nil, &errors.ValidationError{
					Field:   "side",
					Value:   p.Side.String(),
					Message: fmt.Sprintf("proxy %d in the %s list belongs to the %s", i, ir.Side(side), p.Side),
				}
			}
			p.pos = i
		}
		a.related[side] = make([][]int, len(a.items[side]))
	}
	return a, nil
}

// relate records an overlap edge between every overlapping pair.
func (a *arena) relate() {
	for i, c := range a.items[ir.Current] {
		for j, r := range a.items[ir.Revision] {
			if c.Range.Overlaps(r.Range) {
				a.related[ir.Current][i] = append(a.related[ir.Current][i], j)
				a.related[ir.Revision][j] = append(a.related[ir.Revision][j], i)
			}
		}
	}
}

// bitset is a fixed-size set of small non-negative integers.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) clear(i int) { b[i/64] &^= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }
