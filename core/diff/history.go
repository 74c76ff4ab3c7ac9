package diff

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// DefaultHistoryLimit bounds the number of undo snapshots kept.
const DefaultHistoryLimit = 100

// Digest returns the hex BLAKE3 digest of l's JSON encoding. Equal lists
// have equal digests.
func Digest(l *List) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to encode difference list: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

type snapshot struct {
	list   *List
	digest string
}

// History keeps undo and redo snapshots of a difference list. Snapshots are
// deep clones, so later edits to the live list never reach them.
type History struct {
	undo  []snapshot
	redo  []snapshot
	limit int
}

// NewHistory returns a history keeping at most limit undo snapshots
// (DefaultHistoryLimit when limit <= 0).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func take(l *List) (snapshot, error) {
	d, err := Digest(l)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{list: l.Clone(), digest: d}, nil
}

// Record saves l before an edit. It reports false, and records nothing, when
// l is unchanged since the last snapshot. Recording clears the redo stack.
func (h *History) Record(l *List) (bool, error) {
	s, err := take(l)
	if err != nil {
		return false, err
	}
	if n := len(h.undo); n > 0 && h.undo[n-1].digest == s.digest {
		return false, nil
	}
	h.undo = append(h.undo, s)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	return true, nil
}

// Undo returns the last recorded list and saves live for Redo. It returns
// nil when there is nothing to undo.
func (h *History) Undo(live *List) (*List, error) {
	if len(h.undo) == 0 {
		return nil, nil
	}
	s, err := take(live)
	if err != nil {
		return nil, err
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, s)
	return prev.list.Clone(), nil
}

// Redo reverses the last Undo. It returns nil when there is nothing to redo.
func (h *History) Redo(live *List) (*List, error) {
	if len(h.redo) == 0 {
		return nil, nil
	}
	s, err := take(live)
	if err != nil {
		return nil, err
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s)
	return next.list.Clone(), nil
}

// CanUndo reports whether Undo would return a list.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would return a list.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
