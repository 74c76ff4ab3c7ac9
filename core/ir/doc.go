// Package ir provides the scripture reference primitives shared by the
// structural compare.
//
// # References
//
// Ref is a parsed OSIS reference ("Gen.1.1", "Matt.5.3-12", "Gen.1.30-2.3").
// ParseRef uses a participle grammar; Ref.Range converts a reference into an
// ordinal range.
//
// # Ordinals
//
// An Ordinal encodes book, chapter and verse as BBCCCVVV so that integer order
// matches canonical order. Books are numbered 1..66 in OSISBookOrder; both OSIS
// IDs and USX codes are accepted by BookNumber.
//
// # Ranges
//
// RefRange is an inclusive [Min, Max] interval of ordinals with a total order
// (Min, then Max) and an overlap test. Every structural unit compared by the
// merge package carries one.
//
// # Example
//
//	rr, err := ir.ParseRefRange("Gen.1.1-5")
//	if err != nil {
//	    return err
//	}
//	if rr.Overlaps(ir.SingleVerse(ir.NewOrdinal(1, 1, 3))) {
//	    // ...
//	}
package ir
