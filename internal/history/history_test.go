package history_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/history"
)

// snap builds a snapshot with one square per x position.
func snap(xs ...float64) canvas.Snapshot {
	out := make(canvas.Snapshot, 0, len(xs))
	for i, x := range xs {
		s := canvas.NewShape(canvas.ShapeSquare)
		s.ID = string(rune('a' + i))
		s.X = x
		out = append(out, s)
	}

	return out
}

func TestHistory_New(t *testing.T) {
	t.Parallel()

	h := history.New(nil, 0)

	if h.Len() != 1 || h.Index() != 0 {
		t.Errorf("expected single entry at index 0, got len=%d index=%d", h.Len(), h.Index())
	}

	if h.CanUndo() || h.CanRedo() {
		t.Error("expected nothing to undo or redo")
	}
}

func TestHistory_Commit_Appends(t *testing.T) {
	t.Parallel()

	h := history.New(nil, 0)

	require.True(t, h.Commit(snap(1)))
	require.True(t, h.Commit(snap(1, 2)))

	if h.Len() != 3 || h.Index() != 2 {
		t.Errorf("expected len=3 index=2, got len=%d index=%d", h.Len(), h.Index())
	}

	if !h.Current().Equal(snap(1, 2)) {
		t.Error("expected current entry to be the last commit")
	}
}

func TestHistory_Commit_NoopWhenEqual(t *testing.T) {
	t.Parallel()

	h := history.New(snap(5), 0)

	if h.Commit(snap(5)) {
		t.Error("expected equal snapshot to be ignored")
	}

	if h.Len() != 1 {
		t.Errorf("expected history length 1, got %d", h.Len())
	}
}

func TestHistory_UndoRedo_RoundTrip(t *testing.T) {
	t.Parallel()

	h := history.New(nil, 0)
	for i := 1; i <= 4; i++ {
		xs := make([]float64, i)
		for j := range xs {
			xs[j] = float64(j * 10)
		}
		require.True(t, h.Commit(snap(xs...)))
	}

	before := h.Current()

	_, ok := h.Undo()
	require.True(t, ok)

	restored, ok := h.Redo()
	require.True(t, ok)

	if !restored.Equal(before) {
		t.Error("expected undo then redo to restore the prior snapshot")
	}
}

func TestHistory_Undo_ReturnsPreviousEntry(t *testing.T) {
	t.Parallel()

	h := history.New(snap(0), 0)
	require.True(t, h.Commit(snap(10)))

	prev, ok := h.Undo()
	require.True(t, ok)

	if !prev.Equal(snap(0)) {
		t.Error("expected the initial entry")
	}

	if _, ok := h.Undo(); ok {
		t.Error("expected undo at index 0 to be a no-op")
	}

	if h.Index() != 0 {
		t.Errorf("expected index 0, got %d", h.Index())
	}
}

func TestHistory_Redo_AtEndIsNoop(t *testing.T) {
	t.Parallel()

	h := history.New(snap(0), 0)
	require.True(t, h.Commit(snap(1)))

	if _, ok := h.Redo(); ok {
		t.Error("expected redo at the end to be a no-op")
	}
}

func TestHistory_BranchDiscard(t *testing.T) {
	t.Parallel()

	h := history.New(nil, 0)
	for i := 1; i <= 5; i++ {
		require.True(t, h.Commit(snap(float64(i))))
	}

	for k := 0; k < 3; k++ {
		_, ok := h.Undo()
		require.True(t, ok)
	}

	if !h.CanRedo() {
		t.Fatal("expected redo to be available after undo")
	}

	require.True(t, h.Commit(snap(99)))

	if h.CanRedo() {
		t.Error("expected redo branch to be discarded")
	}

	if h.Len() != 4 {
		t.Errorf("expected 4 entries (initial + 2 kept + new), got %d", h.Len())
	}
}

func TestHistory_CommitAfterUndoEqualToCurrentKeepsBranch(t *testing.T) {
	t.Parallel()

	h := history.New(snap(0), 0)
	require.True(t, h.Commit(snap(1)))

	_, ok := h.Undo()
	require.True(t, ok)

	if h.Commit(snap(0)) {
		t.Error("expected commit equal to current entry to be ignored")
	}

	if !h.CanRedo() {
		t.Error("expected redo branch to survive a no-op commit")
	}
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	t.Parallel()

	s := snap(1)
	h := history.New(nil, 0)
	require.True(t, h.Commit(s))

	s[0].(*canvas.Shape).X = 500

	if canvas.FrameOf(h.Current()[0]).X != 1 {
		t.Error("expected history to hold its own copy")
	}

	cur := h.Current()
	cur[0].(*canvas.Shape).X = 700

	if canvas.FrameOf(h.Current()[0]).X != 1 {
		t.Error("expected Current to return a copy")
	}
}

func TestHistory_Reset(t *testing.T) {
	t.Parallel()

	h := history.New(nil, 0)
	require.True(t, h.Commit(snap(1)))
	require.True(t, h.Commit(snap(2)))

	h.Reset(snap(7))

	if h.Len() != 1 || h.CanUndo() || h.CanRedo() {
		t.Errorf("expected a single entry after reset, got len=%d", h.Len())
	}

	if !h.Current().Equal(snap(7)) {
		t.Error("expected reset snapshot to be current")
	}
}

func TestHistory_MaxEntries_DropsOldest(t *testing.T) {
	t.Parallel()

	h := history.New(snap(0), 3)
	for i := 1; i <= 5; i++ {
		require.True(t, h.Commit(snap(float64(i))))
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}

	if h.Index() != 2 {
		t.Errorf("expected index 2, got %d", h.Index())
	}

	undone := 0
	for h.CanUndo() {
		_, ok := h.Undo()
		require.True(t, ok)
		undone++
	}

	if undone != 2 {
		t.Errorf("expected 2 undo steps, got %d", undone)
	}

	if !h.Current().Equal(snap(3)) {
		t.Error("expected oldest surviving entry to be x=3")
	}
}
