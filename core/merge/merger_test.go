package merge

import (
	"slices"
	"testing"

	"github.com/FocuswithJustin/JuniperMerge/core/book"
	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

func kinds(l *diff.List) []diff.Kind {
	var out []diff.Kind
	for _, d := range l.All() {
		out = append(out, d.Kind)
	}
	return out
}

// sections builds a book with one section per start verse; each section
// holds one paragraph covering verses up to the next start.
func sections(starts []int, last int) *book.Book {
	b := book.New("Gen")
	for i, s := range starts {
		end := last
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		sec := b.AddSection(ir.NewOrdinal(1, 1, s))
		sec.Heading.AddHeading("s1", "Heading")
		p := sec.Content.AddParagraph("p")
		for v := s; v <= end; v++ {
			p.AddVerse(vv(v, v), "text", true)
		}
	}
	return b
}

func TestCompareSections(t *testing.T) {
	tests := []struct {
		name      string
		curr, rev []int
		want      []ClusterType
		wantKinds []diff.Kind
	}{
		{
			name:  "nearby heads",
			curr:  []int{1, 50},
			rev:   []int{1, 48},
			want:  []ClusterType{MatchedItems, MatchedItems},
		},
		{
			name:      "extra head in current",
			curr:      []int{1, 20, 50},
			rev:       []int{1, 48},
			want:      []ClusterType{MatchedItems, OrphansInCurrent, MatchedItems},
			wantKinds: []diff.Kind{diff.KindSectionHeadAddedToCurrent},
		},
		{
			name:      "extra head in revision",
			curr:      []int{1, 48},
			rev:       []int{1, 20, 50},
			want:      []ClusterType{MatchedItems, OrphansInRevision, MatchedItems},
			wantKinds: []diff.Kind{diff.KindSectionHeadMissingInCurrent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewMerger().Compare(LevelSections, sections(tt.curr, 50), sections(tt.rev, 50))
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if !slices.Equal(types(res.Clusters), tt.want) {
				t.Errorf("types = %v, want %v", types(res.Clusters), tt.want)
			}
			if got := kinds(res.Differences); !slices.Equal(got, tt.wantKinds) {
				t.Errorf("kinds = %v, want %v", got, tt.wantKinds)
			}
			if !res.Differences.Sorted() {
				t.Error("differences should be sorted")
			}
		})
	}
}

func TestCompareSectionsAdded(t *testing.T) {
	curr := sections([]int{1, 10}, 20)
	rev := sections([]int{1}, 9)

	res, err := NewMerger().Compare(LevelSections, curr, rev)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !slices.Equal(types(res.Clusters), []ClusterType{MatchedItems, AddedToCurrent}) {
		t.Fatalf("types = %v", types(res.Clusters))
	}
	d := res.Differences.At(0)
	if d == nil || d.Kind != diff.KindSectionAddedToCurrent {
		t.Fatalf("difference = %v, want SectionAddedToCurrent", d)
	}
	added, err := d.SectionsAdded()
	if err != nil || len(added) != 1 || added[0] != curr.Sections[1].ID {
		t.Errorf("SectionsAdded() = %v, %v", added, err)
	}
}

func TestCompareParagraphsStanzaBreak(t *testing.T) {
	curr := book.New("Gen")
	s := curr.AddSection(ir.NewOrdinal(1, 1, 1))
	p := s.Content.AddParagraph("p")
	p.AddVerse(vv(1, 2), "In the beginning", true)
	s.Content.AddStanzaBreak(ir.NewOrdinal(1, 1, 5))

	rev := book.New("Gen")
	s = rev.AddSection(ir.NewOrdinal(1, 1, 1))
	s.Content.AddParagraph("p").AddVerse(vv(1, 2), "In the beginning", true)
	s.Content.AddParagraph("q1").AddVerse(vv(5, 5), "And God said", true)

	res, err := NewMerger().Compare(LevelParagraphs, curr, rev)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	want := []ClusterType{MatchedItems, AddedToCurrent, MissingInCurrent}
	if !slices.Equal(types(res.Clusters), want) {
		t.Errorf("types = %v, want %v", types(res.Clusters), want)
	}
	wantKinds := []diff.Kind{diff.KindStanzaBreakAddedToCurrent, diff.KindParagraphMissingInCurrent}
	if got := kinds(res.Differences); !slices.Equal(got, wantKinds) {
		t.Errorf("kinds = %v, want %v", got, wantKinds)
	}
}

func TestCompareVerses(t *testing.T) {
	curr := book.New("Gen")
	s := curr.AddSection(ir.NewOrdinal(1, 1, 1))
	s.Content.AddParagraph("p").AddVerse(vv(1, 1), "In the beginning", true)
	p := s.Content.AddParagraph("p")
	p.AddVerse(vv(1, 1), "God created", false)
	p.AddVerse(vv(2, 2), "And the earth", true)
	p.AddVerse(vv(3, 3), "And God said", true)

	rev := book.New("Gen")
	s = rev.AddSection(ir.NewOrdinal(1, 1, 1))
	p = s.Content.AddParagraph("p")
	p.AddVerse(vv(1, 1), "In the beginning God created", true)
	p.AddVerse(vv(2, 2), "And the earth", true)

	m := NewMerger()
	steps := 0
	m.Progress = func() { steps++ }
	res, err := m.Compare(LevelVerses, curr, rev)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if steps != 6 {
		t.Errorf("progress steps = %d, want 6", steps)
	}

	want := []ClusterType{SplitInCurrent, MatchedItems, AddedToCurrent}
	if !slices.Equal(types(res.Clusters), want) {
		t.Fatalf("types = %v, want %v", types(res.Clusters), want)
	}
	wantKinds := []diff.Kind{diff.KindParagraphStructureChange, diff.KindVerseAddedToCurrent}
	if got := kinds(res.Differences); !slices.Equal(got, wantKinds) {
		t.Fatalf("kinds = %v, want %v", got, wantKinds)
	}
	split := res.Differences.At(0)
	if len(split.SubDiffsForParas) != 3 {
		t.Errorf("split has %d sub-differences, want 3", len(split.SubDiffsForParas))
	}
	added := res.Differences.At(1)
	if added.Rev.Map[0] != 2 || added.Curr.Map[0] != 3 {
		t.Errorf("added positions = %v / %v, want [3] / [2]", added.Curr.Map, added.Rev.Map)
	}
}

func TestCompareLimit(t *testing.T) {
	curr := sections([]int{1, 10}, 20)
	rev := sections([]int{1}, 9)

	m := NewMerger()
	m.Limit = ir.MustParseRefRange("Gen.1.1-9")
	res, err := m.Compare(LevelVerses, curr, rev)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, c := range res.Clusters {
		if !c.Range.Overlaps(m.Limit) {
			t.Errorf("cluster %v lies outside %v", c.Range, m.Limit)
		}
	}
	if n := res.Differences.Len(); n != 0 {
		t.Errorf("%d differences inside the shared verses, want 0", n)
	}

	m.Limit = ir.MustParseRefRange("Gen.1.10-20")
	res, err = m.Compare(LevelSections, curr, rev)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !slices.Equal(types(res.Clusters), []ClusterType{AddedToCurrent}) {
		t.Errorf("types = %v, want [AddedToCurrent]", types(res.Clusters))
	}

	m.Limit = ir.MustParseRefRange("Exod.1")
	_, err = m.Compare(LevelVerses, curr, rev)
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "range" {
		t.Errorf("Compare outside the book error = %v, want range ValidationError", err)
	}
}

func TestCompareErrors(t *testing.T) {
	m := NewMerger()
	if _, err := m.Compare(LevelVerses, nil, book.New("Gen")); err == nil {
		t.Error("Compare with a nil book should fail")
	}
	if _, err := m.Compare(Level(9), book.New("Gen"), book.New("Gen")); err == nil {
		t.Error("Compare with an unknown level should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"sections", LevelSections, true},
		{"Paragraph", LevelParagraphs, true},
		{" verses ", LevelVerses, true},
		{"chapters", LevelSections, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
