package diff

import (
	"encoding/json"
	"slices"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
)

// List is an ordered collection of differences with a cursor. The cursor is
// -1 exactly when the list is empty.
//
// A List is not safe for concurrent use.
type List struct {
	diffs   []*Difference
	current int
	sorted  bool
}

// NewList returns a list holding diffs with the cursor on the first one.
func NewList(diffs ...*Difference) *List {
	l := &List{diffs: slices.Clone(diffs), current: -1, sorted: len(diffs) <= 1}
	if len(diffs) > 0 {
		l.current = 0
	}
	return l
}

// Len returns the number of differences.
func (l *List) Len() int { return len(l.diffs) }

// At returns the difference at i, or nil when i is out of range.
func (l *List) At(i int) *Difference {
	if i < 0 || i >= len(l.diffs) {
		return nil
	}
	return l.diffs[i]
}

// All returns the differences in list order.
func (l *List) All() []*Difference {
	return slices.Clone(l.diffs)
}

// Sorted reports whether the list is known to be in comparator order.
func (l *List) Sorted() bool { return l.sorted }

// Add appends d.
func (l *List) Add(d *Difference) {
	l.diffs = append(l.diffs, d)
	if l.current < 0 {
		l.current = 0
	}
	l.sorted = len(l.diffs) <= 1
}

// Insert places d at index i, keeping the cursor on the same difference.
func (l *List) Insert(i int, d *Difference) error {
	if i < 0 || i > len(l.diffs) {
		return errors.NewInvariant("difflist", "insert index %d out of range [0,%d]", i, len(l.diffs))
	}
	l.diffs = slices.Insert(l.diffs, i, d)
	switch {
	case l.current < 0:
		l.current = 0
	case i <= l.current:
		l.current++
	}
	l.sorted = len(l.diffs) <= 1
	return nil
}

// Remove deletes d (by identity) and reports whether it was present. The
// cursor stays on the same difference, or on a neighbour if d was current.
func (l *List) Remove(d *Difference) bool {
	i := l.IndexOf(d)
	if i < 0 {
		return false
	}
	l.diffs = slices.Delete(l.diffs, i, i+1)
	if i < l.current {
		l.current--
	}
	l.current = min(l.current, len(l.diffs)-1)
	return true
}

// IndexOf returns the index of d (by identity), or -1.
func (l *List) IndexOf(d *Difference) int {
	for i, x := range l.diffs {
		if x == d {
			return i
		}
	}
	return -1
}

// Current returns the difference under the cursor, or nil.
func (l *List) Current() *Difference { return l.At(l.current) }

// CurrentIndex returns the cursor position, or -1 for an empty list.
func (l *List) CurrentIndex() int { return l.current }

// MoveFirst moves the cursor to the first difference and returns it.
func (l *List) MoveFirst() *Difference {
	if len(l.diffs) == 0 {
		return nil
	}
	l.current = 0
	return l.diffs[0]
}

// MoveNext advances the cursor and returns the new current difference. At
// the end of the list it does nothing and returns nil.
func (l *List) MoveNext() *Difference {
	if l.current+1 >= len(l.diffs) {
		return nil
	}
	l.current++
	return l.diffs[l.current]
}

// MovePrev moves the cursor back and returns the new current difference. At
// the start of the list it does nothing and returns nil.
func (l *List) MovePrev() *Difference {
	if l.current <= 0 {
		return nil
	}
	l.current--
	return l.diffs[l.current]
}

// MoveTo puts the cursor on d and reports whether d is in the list.
func (l *List) MoveTo(d *Difference) bool {
	i := l.IndexOf(d)
	if i < 0 {
		return false
	}
	l.current = i
	return true
}

// SortIfNeeded stably sorts an unsorted list with c. The cursor follows the
// difference it was on. Two distinct differences that compare equal are an
// invariant violation; the list is left sorted but the error is returned.
func (l *List) SortIfNeeded(c Comparator) error {
	if l.sorted {
		return nil
	}
	cur := l.Current()
	slices.SortStableFunc(l.diffs, c.Compare)
	l.sorted = true

	l.current = -1
	if len(l.diffs) > 0 {
		l.current = 0
		if i := l.IndexOf(cur); i >= 0 {
			l.current = i
		}
	}

	for i := 1; i < len(l.diffs); i++ {
		if a, b := l.diffs[i-1], l.diffs[i]; c.Compare(a, b) == 0 && a != b {
			return errors.NewInvariant("difflist", "differences %d and %d (%s) compare equal", i-1, i, a)
		}
	}
	return nil
}

// Clone returns a deep copy of l, cursor and sorted state included.
func (l *List) Clone() *List {
	return &List{diffs: cloneAll(l.diffs), current: l.current, sorted: l.sorted}
}

// Equal reports whether l and o hold equal differences in the same order
// with the same cursor.
func (l *List) Equal(o *List) bool {
	return l.current == o.current &&
		l.sorted == o.sorted &&
		slices.EqualFunc(l.diffs, o.diffs, (*Difference).Equal)
}

type listJSON struct {
	Differences []*Difference `json:"differences"`
	Current     int           `json:"current"`
	Sorted      bool          `json:"sorted"`
}

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) {
	diffs := l.diffs
	if diffs == nil {
		diffs = []*Difference{}
	}
	return json.Marshal(listJSON{Differences: diffs, Current: l.current, Sorted: l.sorted})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(b []byte) error {
	var v listJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Current < -1 || v.Current >= len(v.Differences) || (v.Current == -1) != (len(v.Differences) == 0) {
		return errors.NewValidation("current", "cursor out of range")
	}
	l.diffs, l.current, l.sorted = v.Differences, v.Current, v.Sorted
	return nil
}
