package ir

import (
	"errors"
	"testing"

	jerrors "github.com/FocuswithJustin/JuniperMerge/core/errors"
)

func TestOrdinalParts(t *testing.T) {
	o := NewOrdinal(1, 2, 3)
	if o != 1_002_003 {
		t.Fatalf("NewOrdinal(1,2,3) = %d, want 1002003", int(o))
	}
	if o.Book() != 1 || o.Chapter() != 2 || o.Verse() != 3 {
		t.Errorf("parts = (%d,%d,%d), want (1,2,3)", o.Book(), o.Chapter(), o.Verse())
	}
	if got := o.String(); got != "Gen.2.3" {
		t.Errorf("String() = %q, want %q", got, "Gen.2.3")
	}
	if !o.IsValid() {
		t.Error("IsValid() = false, want true")
	}
	if Ordinal(0).IsValid() {
		t.Error("zero ordinal should be invalid")
	}
	if Ordinal(99_001_001).IsValid() {
		t.Error("unknown book should be invalid")
	}
}

func TestBookNumber(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"Gen", 1},
		{"GEN", 1},
		{"gen", 1},
		{"Ps", 19},
		{"PSA", 19},
		{"Matt", 40},
		{"MAT", 40},
		{"1John", 62},
		{"1JN", 62},
		{"Rev", 66},
		{"Bogus", 0},
	}
	for _, tt := range tests {
		if got := BookNumber(tt.code); got != tt.want {
			t.Errorf("BookNumber(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
	if OSISBook(66) != "Rev" || OSISBook(0) != "" || OSISBook(67) != "" {
		t.Error("OSISBook bounds are wrong")
	}
	if USXCode(43) != "JHN" {
		t.Errorf("USXCode(43) = %q, want JHN", USXCode(43))
	}
	if len(OSISBookOrder) != 66 || len(usxBookCodes) != 66 {
		t.Errorf("book tables have %d/%d entries, want 66", len(OSISBookOrder), len(usxBookCodes))
	}
}

func TestNewRefRange(t *testing.T) {
	if _, err := NewRefRange(NewOrdinal(1, 1, 5), NewOrdinal(1, 1, 1)); err == nil {
		t.Error("NewRefRange(max < min) should fail")
	} else if !errors.Is(err, jerrors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
	if _, err := NewRefRange(0, NewOrdinal(1, 1, 1)); err == nil {
		t.Error("NewRefRange(0, x) should fail")
	}
	rr, err := NewRefRange(NewOrdinal(1, 1, 1), NewOrdinal(1, 1, 5))
	if err != nil {
		t.Fatalf("NewRefRange error: %v", err)
	}
	if got := rr.String(); got != "Gen.1.1-Gen.1.5" {
		t.Errorf("String() = %q", got)
	}
	if got := SingleVerse(NewOrdinal(1, 1, 1)).String(); got != "Gen.1.1" {
		t.Errorf("SingleVerse.String() = %q", got)
	}
}

func TestRefRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Gen.1.1-3", "Gen.1.3-6", true},
		{"Gen.1.1-3", "Gen.1.4-6", false},
		{"Gen.1.4-6", "Gen.1.1-3", false},
		{"Gen.1.1-6", "Gen.1.2-3", true},
		{"Gen.1.30-2.3", "Gen.2.1", true},
		{"Gen.1", "Gen.1.31", true},
		{"Gen.1", "Gen.2.1", false},
	}
	for _, tt := range tests {
		a, b := MustParseRefRange(tt.a), MustParseRefRange(tt.b)
		if got := a.Overlaps(b); got != tt.want {
			t.Errorf("%s.Overlaps(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := b.Overlaps(a); got != tt.want {
			t.Errorf("%s.Overlaps(%s) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestRefRangeCompare(t *testing.T) {
	a := MustParseRefRange("Gen.1.1-3")
	b := MustParseRefRange("Gen.1.1-5")
	c := MustParseRefRange("Gen.1.2")

	if a.Compare(b) >= 0 || b.Compare(a) <= 0 {
		t.Error("ties on Min should break by Max")
	}
	if b.Compare(c) >= 0 {
		t.Error("Min should be the primary key")
	}
	if a.Compare(a) != 0 {
		t.Error("Compare(self) != 0")
	}
	if !a.Less(c) || c.Less(a) {
		t.Error("Less disagrees with Compare")
	}
}

func TestRefRangeUnion(t *testing.T) {
	a := MustParseRefRange("Gen.1.1-3")
	b := MustParseRefRange("Gen.1.5-6")
	want := MustParseRefRange("Gen.1.1-6")
	if got := a.Union(b); got != want {
		t.Errorf("Union = %v, want %v", got, want)
	}
	if got := (RefRange{}).Union(a); got != a {
		t.Errorf("zero.Union(a) = %v, want %v", got, a)
	}
	if !want.Contains(NewOrdinal(1, 1, 4)) || want.Contains(NewOrdinal(1, 1, 7)) {
		t.Error("Contains is wrong")
	}
}

func TestParseRefRange(t *testing.T) {
	tests := []struct {
		input    string
		min, max Ordinal
		wantErr  bool
	}{
		{"Gen.1.1", NewOrdinal(1, 1, 1), NewOrdinal(1, 1, 1), false},
		{"GEN.1.1-5", NewOrdinal(1, 1, 1), NewOrdinal(1, 1, 5), false},
		{"Gen.1.30-2.3", NewOrdinal(1, 1, 30), NewOrdinal(1, 2, 3), false},
		{"Gen.2", NewOrdinal(1, 2, 1), NewOrdinal(1, 2, MaxVerse), false},
		{"Nope.1.1", 0, 0, true},
		{"Gen.1.5-3", 0, 0, true},
	}
	for _, tt := range tests {
		rr, err := ParseRefRange(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRefRange(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRefRange(%q) error: %v", tt.input, err)
			continue
		}
		if rr.Min != tt.min || rr.Max != tt.max {
			t.Errorf("ParseRefRange(%q) = %d-%d, want %d-%d", tt.input, rr.Min, rr.Max, tt.min, tt.max)
		}
	}
}
