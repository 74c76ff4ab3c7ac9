package diff

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
)

// Kind is the single structural classification of a Difference.
type Kind int

const (
	KindNone Kind = iota
	// KindTextDifference is a text range that differs; its details are in
	// Flags.
	KindTextDifference
	KindVerseMissingInCurrent
	KindVerseAddedToCurrent
	KindVerseMoved
	KindParagraphMissingInCurrent
	KindParagraphAddedToCurrent
	KindParagraphStructureChange
	KindParagraphSplitInCurrent
	KindParagraphMergedInCurrent
	KindStanzaBreakMissingInCurrent
	KindStanzaBreakAddedToCurrent
	KindSectionMissingInCurrent
	KindSectionAddedToCurrent
	KindSectionHeadMissingInCurrent
	KindSectionHeadAddedToCurrent
	KindSectionStructureChange
)

var kindNames = [...]string{
	KindNone:                        "None",
	KindTextDifference:              "TextDifference",
	KindVerseMissingInCurrent:       "VerseMissingInCurrent",
	KindVerseAddedToCurrent:         "VerseAddedToCurrent",
	KindVerseMoved:                  "VerseMoved",
	KindParagraphMissingInCurrent:   "ParagraphMissingInCurrent",
	KindParagraphAddedToCurrent:     "ParagraphAddedToCurrent",
	KindParagraphStructureChange:    "ParagraphStructureChange",
	KindParagraphSplitInCurrent:     "ParagraphSplitInCurrent",
	KindParagraphMergedInCurrent:    "ParagraphMergedInCurrent",
	KindStanzaBreakMissingInCurrent: "StanzaBreakMissingInCurrent",
	KindStanzaBreakAddedToCurrent:   "StanzaBreakAddedToCurrent",
	KindSectionMissingInCurrent:     "SectionMissingInCurrent",
	KindSectionAddedToCurrent:       "SectionAddedToCurrent",
	KindSectionHeadMissingInCurrent: "SectionHeadMissingInCurrent",
	KindSectionHeadAddedToCurrent:   "SectionHeadAddedToCurrent",
	KindSectionStructureChange:      "SectionStructureChange",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if strings.EqualFold(name, string(b)) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.NewValidation("kind", fmt.Sprintf("unknown difference kind %q", b))
}

// IsSection reports whether the kind describes whole sections and carries
// section handles.
func (k Kind) IsSection() bool {
	switch k {
	case KindSectionMissingInCurrent, KindSectionAddedToCurrent,
		KindSectionHeadMissingInCurrent, KindSectionHeadAddedToCurrent,
		KindSectionStructureChange:
		return true
	}
	return false
}

// IsMissingInCurrent reports whether the kind describes content present only
// in the Revision. Such differences have a destination insertion point in
// the Current.
func (k Kind) IsMissingInCurrent() bool {
	switch k {
	case KindVerseMissingInCurrent, KindParagraphMissingInCurrent,
		KindStanzaBreakMissingInCurrent, KindSectionMissingInCurrent,
		KindSectionHeadMissingInCurrent:
		return true
	}
	return false
}

// IsAddedToCurrent reports whether the kind describes content present only in
// the Current.
func (k Kind) IsAddedToCurrent() bool {
	switch k {
	case KindVerseAddedToCurrent, KindParagraphAddedToCurrent,
		KindStanzaBreakAddedToCurrent, KindSectionAddedToCurrent,
		KindSectionHeadAddedToCurrent:
		return true
	}
	return false
}

// IsParagraphStructure reports whether the kind may own per-paragraph
// sub-differences.
func (k Kind) IsParagraphStructure() bool {
	switch k {
	case KindParagraphStructureChange, KindParagraphSplitInCurrent,
		KindParagraphMergedInCurrent, KindSectionStructureChange:
		return true
	}
	return false
}

// Flags are the fine-grained details of a KindTextDifference. Several may be
// set at once.
type Flags uint16

const (
	FlagTextDiffers Flags = 1 << iota
	FlagCharStyleDiffers
	FlagParagraphStyleDiffers
	FlagWritingSystemDiffers
	FlagMultipleCharStyleDiffs
	FlagMultipleWritingSystemDiffs
	FlagFootnoteDiffers
	FlagPictureDiffers
	FlagFootnoteAddedOrMissing

	flagsAll = FlagFootnoteAddedOrMissing<<1 - 1
)

var flagNames = []string{
	"TextDiffers",
	"CharStyleDiffers",
	"ParagraphStyleDiffers",
	"WritingSystemDiffers",
	"MultipleCharStyleDiffs",
	"MultipleWritingSystemDiffs",
	"FootnoteDiffers",
	"PictureDiffers",
	"FootnoteAddedOrMissing",
}

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := f &^ flagsAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint16(rest)))
	}
	return strings.Join(parts, "|")
}
