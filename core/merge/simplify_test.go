package merge

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// cluster builds one classified cluster holding all of curr and rev.
func cluster(t *testing.T, curr, rev []*Proxy) *Cluster {
	t.Helper()
	if _, err := newArena(curr, rev); err != nil {
		t.Fatal(err)
	}
	c := newCluster()
	for _, p := range curr {
		c.add(p)
	}
	for _, p := range rev {
		c.add(p)
	}
	if err := c.classify(); err != nil {
		t.Fatal(err)
	}
	return c
}

// exact correlates equal texts only.
var exact = CorrelatorFunc(func(a, b string, _ CharProps) float64 {
	if a == b {
		return 1
	}
	return 0
})

func simplifier(corr Correlator) *Simplifier {
	s := NewSimplifier()
	s.Correlator = corr
	return s
}

func types(clusters []*Cluster) []ClusterType {
	out := make([]ClusterType, len(clusters))
	for i, c := range clusters {
		out[i] = c.Type
	}
	return out
}

func TestSimplifyCorrelatedPairs(t *testing.T) {
	tOwner, uOwner := uuid.New(), uuid.New()
	curr := mkProxies(ir.Current,
		line{rr: vv(1, 1), owner: tOwner, para: uuid.New(), text: "In the beginning"},
		line{rr: vv(1, 1), owner: tOwner, para: uuid.New(), text: "God created"},
	)
	rev := mkProxies(ir.Revision,
		line{rr: vv(1, 1), owner: uOwner, para: uuid.New(), text: "In the beginning,"},
		line{rr: vv(1, 1), owner: uOwner, para: uuid.New(), text: "God created."},
	)

	clusters, err := BuildAdjacentClusters(curr, rev)
	if err != nil {
		t.Fatalf("BuildAdjacentClusters failed: %v", err)
	}
	if len(clusters) != 1 || clusters[0].Type != MultipleInBoth {
		t.Fatalf("clusters = %v, want one MultipleInBoth", clusters)
	}

	high := CorrelatorFunc(func(string, string, CharProps) float64 { return 0.9 })
	got, err := simplifier(high).Simplify(clusters)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if !slices.Equal(types(got), []ClusterType{MatchedItems, MatchedItems}) {
		t.Fatalf("types = %v, want two MatchedItems", types(got))
	}
	for i, c := range got {
		if c.Current[0] != curr[i] || c.Revision[0] != rev[i] {
			t.Errorf("pair %d = %v/%v, want %v/%v", i, c.Current[0], c.Revision[0], curr[i], rev[i])
		}
	}
	checkPartition(t, got, curr, rev)

	// The default text correlator agrees once punctuation is ignored.
	clusters, _ = BuildAdjacentClusters(curr, rev)
	got, err = NewSimplifier().Simplify(clusters)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if !slices.Equal(types(got), []ClusterType{MatchedItems, MatchedItems}) {
		t.Errorf("default correlator types = %v, want two MatchedItems", types(got))
	}
}

func TestSimplifyBelowThreshold(t *testing.T) {
	curr := mkProxies(ir.Current,
		line{rr: vv(1, 1), para: uuid.New(), text: "a"},
		line{rr: vv(1, 1), para: uuid.New(), text: "b"},
	)
	rev := mkProxies(ir.Revision,
		line{rr: vv(1, 1), para: uuid.New(), text: "a"},
		line{rr: vv(1, 1), para: uuid.New(), text: "b"},
	)
	c := cluster(t, curr, rev)

	low := CorrelatorFunc(func(string, string, CharProps) float64 { return 0.5 })
	got, err := simplifier(low).Simplify([]*Cluster{c})
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if len(got) != 1 || got[0] != c || c.Type != MultipleInBoth {
		t.Errorf("got %v, want the original MultipleInBoth cluster", got)
	}
}

func TestSimplifySkipsUnsuitableClusters(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	tests := []struct {
		name      string
		curr, rev []line
	}{
		{
			name: "single paragraph",
			curr: []line{{rr: vv(1, 1), para: p1, text: "a"}, {rr: vv(1, 1), para: p1, text: "b"}},
			rev:  []line{{rr: vv(1, 1), para: p2, text: "a"}, {rr: vv(1, 1), para: p2, text: "b"}},
		},
		{
			name: "verse bridge",
			curr: []line{{rr: vv(1, 2), para: uuid.New(), text: "a"}, {rr: vv(3, 3), para: uuid.New(), text: "b"}},
			rev:  []line{{rr: vv(1, 1), para: uuid.New(), text: "a"}, {rr: vv(2, 3), para: uuid.New(), text: "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cluster(t, mkProxies(ir.Current, tt.curr...), mkProxies(ir.Revision, tt.rev...))
			got, err := simplifier(exact).ExtractCorrelatedPairs([]*Cluster{c})
			if err != nil {
				t.Fatalf("ExtractCorrelatedPairs failed: %v", err)
			}
			if len(got) != 1 || got[0].Type != MultipleInBoth {
				t.Errorf("got %v, want cluster left alone", got)
			}
		})
	}
}

func TestSimplifyOrphans(t *testing.T) {
	p1, p2, q1 := uuid.New(), uuid.New(), uuid.New()
	curr := mkProxies(ir.Current,
		line{rr: vv(1, 1), para: p1, text: "a"},
		line{rr: vv(2, 2), para: p1, text: "b"},
		line{rr: vv(2, 2), para: p2, text: "c"},
	)
	rev := mkProxies(ir.Revision,
		line{rr: vv(1, 1), para: q1, text: "a"},
		line{rr: vv(2, 2), para: q1, text: "b"},
	)
	c := cluster(t, curr, rev)

	got, err := simplifier(exact).Simplify([]*Cluster{c})
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	want := []ClusterType{MatchedItems, MatchedItems, OrphansInCurrent}
	if !slices.Equal(types(got), want) {
		t.Fatalf("types = %v, want %v", types(got), want)
	}
	orphan := got[2]
	if len(orphan.Current) != 1 || orphan.Current[0] != curr[2] {
		t.Errorf("orphan items = %v, want %v", orphan.Current, curr[2])
	}
	if orphan.InsertIndex != 2 {
		t.Errorf("orphan InsertIndex = %d, want 2", orphan.InsertIndex)
	}
	if orphan.Range != vv(2, 2) {
		t.Errorf("orphan Range = %v, want %v", orphan.Range, vv(2, 2))
	}
	checkPartition(t, got, curr, rev)
}

func TestSimplifyVerseStartBoundary(t *testing.T) {
	build := func(revStart bool) *Cluster {
		curr := mkProxies(ir.Current,
			line{rr: vv(1, 1), para: uuid.New(), text: "q"},
			line{rr: vv(1, 1), para: uuid.New(), text: "a", start: true},
		)
		rev := mkProxies(ir.Revision, line{rr: vv(1, 1), para: uuid.New(), text: "a", start: revStart})
		return cluster(t, curr, rev)
	}

	got, err := simplifier(exact).ExtractCorrelatedPairs([]*Cluster{build(false)})
	if err != nil {
		t.Fatalf("ExtractCorrelatedPairs failed: %v", err)
	}
	if !slices.Equal(types(got), []ClusterType{SplitInCurrent}) {
		t.Errorf("mismatched verse start: types = %v, want [SplitInCurrent]", types(got))
	}

	got, err = simplifier(exact).ExtractCorrelatedPairs([]*Cluster{build(true)})
	if err != nil {
		t.Fatalf("ExtractCorrelatedPairs failed: %v", err)
	}
	SortClusters(got)
	if !slices.Equal(types(got), []ClusterType{OrphansInCurrent, MatchedItems}) {
		t.Errorf("matching verse start: types = %v, want [OrphansInCurrent MatchedItems]", types(got))
	}
}

func TestExtractStanzaBreaksMatchedPair(t *testing.T) {
	curr := mkProxies(ir.Current, line{rr: vv(4, 4), empty: true})
	rev := mkProxies(ir.Revision, line{rr: vv(4, 4), text: "And God said"})
	c := cluster(t, curr, rev)

	got, err := NewSimplifier().Simplify([]*Cluster{c})
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if !slices.Equal(types(got), []ClusterType{AddedToCurrent, MissingInCurrent}) {
		t.Fatalf("types = %v, want [AddedToCurrent MissingInCurrent]", types(got))
	}
	if got[0].Current[0] != curr[0] || got[0].InsertIndex != 0 {
		t.Errorf("added = %v insert %d, want %v insert 0", got[0].Current, got[0].InsertIndex, curr[0])
	}
	if got[1].Revision[0] != rev[0] || got[1].InsertIndex != 1 {
		t.Errorf("missing = %v insert %d, want %v insert 1", got[1].Revision, got[1].InsertIndex, rev[0])
	}
}

func TestExtractStanzaBreaksOneSided(t *testing.T) {
	curr := mkProxies(ir.Current,
		line{rr: vv(1, 1), empty: true},
		line{rr: vv(1, 2), text: "text"},
		line{rr: vv(2, 2), empty: true},
		line{rr: vv(2, 2), empty: true},
	)
	c := cluster(t, curr, nil)
	c.InsertIndex = 3

	got, err := NewSimplifier().ExtractStanzaBreaks([]*Cluster{c})
	if err != nil {
		t.Fatalf("ExtractStanzaBreaks failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d clusters, want 4: %v", len(got), got)
	}
	for _, g := range got {
		if g.Type != AddedToCurrent {
			t.Errorf("type = %v, want AddedToCurrent", g.Type)
		}
		if g.InsertIndex != 3 {
			t.Errorf("InsertIndex = %d, want 3", g.InsertIndex)
		}
		if g != c && (len(g.Current) != 1 || !g.Current[0].Empty) {
			t.Errorf("extracted cluster %v should hold one empty unit", g)
		}
	}
	if len(c.Current) != 1 || c.Current[0] != curr[1] {
		t.Errorf("remaining = %v, want %v", c.Current, curr[1])
	}
	if c.Range != vv(1, 2) {
		t.Errorf("remaining Range = %v, want %v", c.Range, vv(1, 2))
	}
}

func TestExtractStanzaBreaksComplex(t *testing.T) {
	curr := mkProxies(ir.Current,
		line{rr: vv(3, 3), empty: true},
		line{rr: vv(3, 3), text: "x"},
		line{rr: vv(3, 3), text: "y"},
	)
	rev := mkProxies(ir.Revision,
		line{rr: vv(3, 3), empty: true},
		line{rr: vv(3, 3), text: "z"},
	)
	c := cluster(t, curr, rev)

	got, err := NewSimplifier().ExtractStanzaBreaks([]*Cluster{c})
	if err != nil {
		t.Fatalf("ExtractStanzaBreaks failed: %v", err)
	}
	SortClusters(got)
	if !slices.Equal(types(got), []ClusterType{MatchedItems, SplitInCurrent}) {
		t.Fatalf("types = %v, want [MatchedItems SplitInCurrent]", types(got))
	}
	if !got[0].Current[0].Empty || !got[0].Revision[0].Empty {
		t.Errorf("matched pair %v should be the stanza breaks", got[0])
	}
	if got[1].InsertIndex != -1 {
		t.Errorf("complex InsertIndex = %d, want -1", got[1].InsertIndex)
	}
}

func TestExtractStanzaBreaksSplitsRemainder(t *testing.T) {
	curr := mkProxies(ir.Current,
		line{rr: vv(1, 2), text: "In the beginning"},
		line{rr: vv(2, 2), empty: true},
		line{rr: vv(2, 2), empty: true},
	)
	rev := mkProxies(ir.Revision,
		line{rr: vv(1, 2), empty: true},
	)
	clusters, err := BuildOverlapClusters(curr, rev)
	if err != nil {
		t.Fatalf("BuildOverlapClusters failed: %v", err)
	}

	s := NewSimplifier()
	got, err := s.Simplify(clusters)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	checkPartition(t, got, curr, rev)

	count := make(map[ClusterType]int)
	for _, c := range got {
		count[c.Type]++
		if !c.Type.IsOneSided() {
			continue
		}
		items, _ := c.SourceItems()
		if hasContent(items) && hasEmpty(items) {
			t.Errorf("%v mixes content with a stanza break", c)
		}
	}
	want := map[ClusterType]int{MatchedItems: 1, OrphansInCurrent: 1, AddedToCurrent: 1}
	if d := cmp.Diff(want, count); d != "" {
		t.Errorf("cluster types mismatch (-want +got):\n%s", d)
	}

	diffs, err := StructuralDifferences(LevelVerses, got)
	if err != nil {
		t.Fatalf("StructuralDifferences failed: %v", err)
	}
	byKind := make(map[diff.Kind]int)
	for _, d := range diffs {
		byKind[d.Kind]++
	}
	if byKind[diff.KindStanzaBreakAddedToCurrent] != 1 || byKind[diff.KindVerseAddedToCurrent] != 1 {
		t.Errorf("difference kinds = %v, want one stanza break and one verse added", byKind)
	}

	again, err := s.Simplify(got)
	if err != nil {
		t.Fatalf("second Simplify failed: %v", err)
	}
	if !slices.Equal(types(again), types(got)) {
		t.Errorf("second pass types = %v, want %v", types(again), types(got))
	}
}

func hasEmpty(items []*Proxy) bool {
	return slices.ContainsFunc(items, func(p *Proxy) bool { return p.Empty })
}

func TestSimplifyIdempotent(t *testing.T) {
	curr := mkProxies(ir.Current, ranges(vv(1, 1), vv(2, 2), vv(4, 4))...)
	rev := mkProxies(ir.Revision, ranges(vv(1, 1), vv(3, 3), vv(4, 4))...)
	clusters, err := BuildAdjacentClusters(curr, rev)
	if err != nil {
		t.Fatalf("BuildAdjacentClusters failed: %v", err)
	}

	s := NewSimplifier()
	once, err := s.Simplify(clusters)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	type snap struct {
		c      *Cluster
		typ    ClusterType
		insert int
	}
	var before []snap
	for _, c := range once {
		before = append(before, snap{c, c.Type, c.InsertIndex})
	}

	twice, err := s.Simplify(once)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if len(twice) != len(before) {
		t.Fatalf("second pass returned %d clusters, want %d", len(twice), len(before))
	}
	for i, c := range twice {
		if c != before[i].c || c.Type != before[i].typ || c.InsertIndex != before[i].insert {
			t.Errorf("cluster %d changed: %v insert %d", i, c, c.InsertIndex)
		}
	}
}

func TestPlaceOrphanNearest(t *testing.T) {
	curr := mkProxies(ir.Current, ranges(vv(1, 1), vv(3, 3), vv(5, 5))...)
	rev := mkProxies(ir.Revision, ranges(vv(1, 1), vv(3, 3))...)
	if _, err := newArena(curr, rev); err != nil {
		t.Fatal(err)
	}

	first := &Cluster{Type: MatchedItems, Range: vv(1, 1), Current: curr[:1], Revision: rev[:1]}
	second := &Cluster{Type: MatchedItems, Range: vv(3, 3), Current: curr[1:2], Revision: rev[1:]}
	orphan := &Cluster{Type: OrphansInCurrent, Range: vv(5, 5), Current: curr[2:], InsertIndex: -1}

	if got := placeOrphan(orphan, []*Cluster{first, second, orphan}); got != 2 {
		t.Errorf("placeOrphan() = %d, want 2", got)
	}
	if got := placeOrphan(orphan, []*Cluster{second, first, orphan}); got != 2 {
		t.Errorf("placeOrphan() with clusters out of order = %d, want 2", got)
	}

	early := &Cluster{Type: OrphansInRevision, Range: vv(1, 1), Revision: rev[:1], InsertIndex: -1}
	if got := placeOrphan(early, []*Cluster{second, early}); got != 0 {
		t.Errorf("placeOrphan() with nothing before = %d, want 0", got)
	}
}
