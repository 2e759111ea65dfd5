// Package history keeps a linear stack of document snapshots for undo and redo.
package history

import (
	"sync"

	"github.com/serroba/design-studio/internal/canvas"
)

// History is a version stack over full element snapshots.
// entries[index] is always the state that is live in the document.
// It is safe for concurrent use.
type History struct {
	mu         sync.RWMutex
	entries    []canvas.Snapshot
	index      int
	maxEntries int // 0 keeps every entry
}

// New creates a history whose only entry is initial.
// maxEntries bounds the stack; 0 means unbounded.
func New(initial canvas.Snapshot, maxEntries int) *History {
	if maxEntries < 0 {
		maxEntries = 0
	}

	return &History{
		entries:    []canvas.Snapshot{initial.Clone()},
		maxEntries: maxEntries,
	}
}

// Commit records snapshot as the newest entry.
// A snapshot equal to the current entry is ignored and Commit returns false.
// Otherwise every entry after the current one is discarded first.
func (h *History) Commit(snapshot canvas.Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.entries[h.index].Equal(snapshot) {
		return false
	}

	// Drop the redo branch. Clearing the tail lets the snapshots be collected.
	for i := h.index + 1; i < len(h.entries); i++ {
		h.entries[i] = nil
	}
	h.entries = append(h.entries[:h.index+1], snapshot.Clone())
	h.index = len(h.entries) - 1

	h.prune()

	return true
}

// prune drops the oldest entries once the stack exceeds its bound.
func (h *History) prune() {
	if h.maxEntries == 0 || len(h.entries) <= h.maxEntries {
		return
	}

	drop := len(h.entries) - h.maxEntries
	kept := make([]canvas.Snapshot, h.maxEntries)
	copy(kept, h.entries[drop:])
	h.entries = kept
	h.index -= drop
}

// Undo steps back one entry and returns it.
// It reports false when there is nothing to undo.
func (h *History) Undo() (canvas.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == 0 {
		return nil, false
	}

	h.index--

	return h.entries[h.index].Clone(), true
}

// Redo steps forward one entry and returns it.
// It reports false when there is nothing to redo.
func (h *History) Redo() (canvas.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index >= len(h.entries)-1 {
		return nil, false
	}

	h.index++

	return h.entries[h.index].Clone(), true
}

// Reset discards every entry and starts over from snapshot.
func (h *History) Reset(snapshot canvas.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = []canvas.Snapshot{snapshot.Clone()}
	h.index = 0
}

// Current returns a copy of the live entry.
func (h *History) Current() canvas.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.entries[h.index].Clone()
}

// CanUndo reports whether Undo would move.
func (h *History) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.index > 0
}

// CanRedo reports whether Redo would move.
func (h *History) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.index < len(h.entries)-1
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Index returns the position of the live entry.
func (h *History) Index() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.index
}

// MaxEntries returns the configured bound, 0 when unbounded.
func (h *History) MaxEntries() int {
	return h.maxEntries
}
