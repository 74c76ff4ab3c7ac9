package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// ClusterType classifies a cluster by how many units it holds on each side.
type ClusterType int

const (
	None ClusterType = iota
	MatchedItems
	AddedToCurrent
	MissingInCurrent
	// OrphansInCurrent and OrphansInRevision have the shape of
	// AddedToCurrent and MissingInCurrent but are left over after a complex
	// cluster was split apart.
	OrphansInCurrent
	OrphansInRevision
	SplitInCurrent
	MergedInCurrent
	MultipleInBoth
)

var clusterTypeNames = [...]string{
	None:              "None",
	MatchedItems:      "MatchedItems",
	AddedToCurrent:    "AddedToCurrent",
	MissingInCurrent:  "MissingInCurrent",
	OrphansInCurrent:  "OrphansInCurrent",
	OrphansInRevision: "OrphansInRevision",
	SplitInCurrent:    "SplitInCurrent",
	MergedInCurrent:   "MergedInCurrent",
	MultipleInBoth:    "MultipleInBoth",
}

func (t ClusterType) String() string {
	if t >= 0 && int(t) < len(clusterTypeNames) {
		return clusterTypeNames[t]
	}
	return fmt.Sprintf("ClusterType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t ClusterType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ClusterType) UnmarshalText(b []byte) error {
	for i, name := range clusterTypeNames {
		if strings.EqualFold(name, string(b)) {
			*t = ClusterType(i)
			return nil
		}
	}
	return errors.NewValidation("cluster type", fmt.Sprintf("unknown cluster type %q", b))
}

// IsComplex reports whether the type relates more than one unit on a side.
func (t ClusterType) IsComplex() bool {
	return t == SplitInCurrent || t == MergedInCurrent || t == MultipleInBoth
}

// IsOneSided reports whether the type has units on one side only.
func (t ClusterType) IsOneSided() bool {
	switch t {
	case AddedToCurrent, MissingInCurrent, OrphansInCurrent, OrphansInRevision:
		return true
	}
	return false
}

// Classify returns the cluster type for the given unit counts.
func Classify(revCount, currCount int) (ClusterType, error) {
	switch {
	case revCount < 0 || currCount < 0 || (revCount == 0 && currCount == 0):
		return None, errors.NewInvariant("cluster", "cannot classify %d revision and %d current items", revCount, currCount)
	case revCount == 0:
		return AddedToCurrent, nil
	case currCount == 0:
		return MissingInCurrent, nil
	case revCount == 1 && currCount == 1:
		return MatchedItems, nil
	case revCount == 1:
		return SplitInCurrent, nil
	case currCount == 1:
		return MergedInCurrent, nil
	}
	return MultipleInBoth, nil
}

// Cluster groups related units from both sides.
type Cluster struct {
	Type     ClusterType
	Range    ir.RefRange
	Current  []*Proxy
	Revision []*Proxy

	// InsertIndex is where a one-sided cluster's units belong in the other
	// side's list, or -1 when unset.
	InsertIndex int

	alive [2]bitset // nil until the simplifier tombstones an item
}

func newCluster() *Cluster {
	return &Cluster{InsertIndex: -1}
}

// Items returns the cluster's units on the given side.
func (c *Cluster) Items(side ir.Side) []*Proxy {
	if side == ir.Current {
		return c.Current
	}
	return c.Revision
}

func (c *Cluster) add(p *Proxy) {
	if p.Side == ir.Current {
		c.Current = append(c.Current, p)
	} else {
		c.Revision = append(c.Revision, p)
	}
	c.Range = c.Range.Union(p.Range)
}

func (c *Cluster) classify() error {
	t, err := Classify(len(c.Revision), len(c.Current))
	if err != nil {
		return err
	}
	c.Type = t
	return nil
}

// SortKey returns the cluster's position on each side: the first unit's list
// position, or InsertIndex when the side is empty.
func (c *Cluster) SortKey() (curr, rev int) {
	curr, rev = c.InsertIndex, c.InsertIndex
	if len(c.Current) > 0 {
		curr = c.Current[0].pos
	}
	if len(c.Revision) > 0 {
		rev = c.Revision[0].pos
	}
	return curr, rev
}

// SourceItems returns the populated side of a one-sided cluster.
func (c *Cluster) SourceItems() ([]*Proxy, error) {
	switch c.Type {
	case AddedToCurrent, OrphansInCurrent:
		return c.Current, nil
	case MissingInCurrent, OrphansInRevision:
		return c.Revision, nil
	}
	return nil, errors.NewInvariant("cluster", "SourceItems called on %s cluster", c.Type)
}

func (c *Cluster) String() string {
	return fmt.Sprintf("%s %s (%d current, %d revision)", c.Type, c.Range, len(c.Current), len(c.Revision))
}

// SortClusters orders clusters by SortKey, Current position first. The sort
// is stable.
func SortClusters(clusters []*Cluster) {
	slices.SortStableFunc(clusters, func(a, b *Cluster) int {
		ac, ar := a.SortKey()
		bc, br := b.SortKey()
		if ac != bc {
			return ac - bc
		}
		return ar - br
	})
}
