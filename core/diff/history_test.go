package diff

import (
	"testing"
)

func TestDigest(t *testing.T) {
	a := NewList(added(t, 0, 0))
	b := a.Clone()

	da, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	db, _ := Digest(b)
	if da != db {
		t.Errorf("equal lists have digests %s and %s", da, db)
	}
	if len(da) != 64 {
		t.Errorf("digest length = %d, want 64", len(da))
	}

	b.At(0).Curr.Map[0] = 3
	if db, _ = Digest(b); db == da {
		t.Error("changed list should change the digest")
	}
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(0)
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("new history should be empty")
	}
	if l, err := h.Undo(NewList()); l != nil || err != nil {
		t.Errorf("Undo on empty history = %v, %v", l, err)
	}

	live := NewList(added(t, 0, 0))
	ok, err := h.Record(live)
	if err != nil || !ok {
		t.Fatalf("Record() = %v, %v", ok, err)
	}
	if ok, _ := h.Record(live); ok {
		t.Error("recording an unchanged list should be a no-op")
	}

	// Edit the live list after recording it.
	live.Add(added(t, 1, 0))

	prev, err := h.Undo(live)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if prev.Len() != 1 {
		t.Errorf("undone list has %d differences, want 1", prev.Len())
	}
	if !h.CanRedo() || h.CanUndo() {
		t.Error("after one undo only redo should be possible")
	}

	next, err := h.Redo(prev)
	if err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if !next.Equal(live) {
		t.Error("Redo should restore the edited list")
	}
	if next == live {
		t.Error("Redo should return a copy")
	}
	if l, _ := h.Redo(next); l != nil {
		t.Error("nothing left to redo")
	}
}

func TestHistoryRecordClearsRedo(t *testing.T) {
	h := NewHistory(0)
	live := NewList(added(t, 0, 0))
	h.Record(live)
	live.Add(added(t, 1, 0))
	if _, err := h.Undo(live); err != nil {
		t.Fatal(err)
	}
	live.Add(added(t, 2, 0))
	if ok, _ := h.Record(live); !ok {
		t.Fatal("Record should save a changed list")
	}
	if h.CanRedo() {
		t.Error("Record should clear the redo stack")
	}
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(2)
	live := NewList()
	for i := 0; i < 4; i++ {
		live.Add(added(t, i, 0))
		if _, err := h.Record(live); err != nil {
			t.Fatal(err)
		}
	}

	undos := 0
	for h.CanUndo() {
		l, err := h.Undo(live)
		if err != nil {
			t.Fatal(err)
		}
		live = l
		undos++
	}
	if undos != 2 {
		t.Errorf("undid %d times, want 2", undos)
	}
	if live.Len() != 3 {
		t.Errorf("oldest kept snapshot has %d differences, want 3", live.Len())
	}
}
