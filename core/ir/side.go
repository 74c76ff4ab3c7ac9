package ir

import (
	"fmt"
	"strings"
)

// Side names one of the two versions being compared.
type Side int

const (
	// Current is the live working copy.
	Current Side = iota
	// Revision is the saved or imported baseline.
	Revision
)

// String returns "current" or "revision".
func (s Side) String() string {
	switch s {
	case Current:
		return "current"
	case Revision:
		return "revision"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Current {
		return Revision
	}
	return Current
}

// ParseSide parses "current" or "revision" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current", "curr":
		return Current, nil
	case "revision", "rev":
		return Revision, nil
	}
	return Current, fmt.Errorf("unknown side %q", s)
}
