// Package editor owns the live editing state of a design: the document,
// its history, the selection, and the wiring to persistence and broadcast.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/history"
	"github.com/serroba/design-studio/internal/layering"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/serroba/design-studio/internal/ws"
)

// Common errors.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrSessionBusy   = errors.New("design is already open for editing")
	ErrNoGateway     = errors.New("session has no persistence gateway")
)

// SessionConfig holds configuration for creating a session.
type SessionConfig struct {
	DesignID string
	Gateway  *storage.Gateway
	Hub      *ws.Hub
	Autosave *storage.AutosavePolicy
	// MaxHistory bounds the undo stack; 0 keeps every entry.
	MaxHistory int
	Logger     *slog.Logger
	Now        func() time.Time
}

// Session is the authoritative editing state of one design. Exactly one
// client edits it at a time; any number may watch.
type Session struct {
	designID string

	mu       sync.RWMutex
	doc      *canvas.Document
	history  *history.History
	selected string
	closed   bool
	outbox   []func() // broadcasts queued under mu, sent by flush

	// sendMu orders flushes so watchers see broadcasts in commit order.
	sendMu sync.Mutex

	editorClient string // client holding the write slot
	editorUser   string // last user who edited, used for autosave and close

	revision      int // bumped on every persisted-state change
	savedRevision int

	gateway  *storage.Gateway
	hub      *ws.Hub
	autosave *storage.AutosavePolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewSession creates an empty session.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	doc := canvas.NewDocument()

	return &Session{
		designID: cfg.DesignID,
		doc:      doc,
		history:  history.New(doc.Snapshot(), cfg.MaxHistory),
		gateway:  cfg.Gateway,
		hub:      cfg.Hub,
		autosave: cfg.Autosave,
		logger:   logger.With("design_id", cfg.DesignID),
		now:      now,
	}
}

// DesignID returns the design this session edits.
func (s *Session) DesignID() string {
	return s.designID
}

// SetIDGenerator replaces the element id source. Tests use it.
func (s *Session) SetIDGenerator(gen func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.SetIDGenerator(gen)
}

// Load replaces the session content with the latest saved record and resets
// history to it. A failed load leaves an empty document and returns the
// error for reporting.
func (s *Session) Load(ctx context.Context, userID string) error {
	var (
		rec = canvas.EmptyRecord()
		err error
	)

	if s.gateway != nil {
		rec, err = s.gateway.LoadLatest(ctx, s.designID, userID)
	}

	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.doc.Load(rec)
	s.history.Reset(s.doc.Snapshot())
	s.selected = ""
	s.savedRevision = s.revision

	if s.autosave != nil {
		s.autosave.Reset(s.designID)
	}

	s.broadcastState()

	return err
}

// Replace swaps in the content of rec as a single undoable step.
func (s *Session) Replace(rec canvas.Record) {
	s.mu.Lock()
	defer s.unlock()

	s.doc.Load(rec)
	s.selected = ""
	s.revision++
	s.commit()
}

// Attach gives clientID the write slot. A second editor is refused with
// ErrSessionBusy until the first one detaches.
func (s *Session) Attach(clientID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.editorClient != "" && s.editorClient != clientID {
		return ErrSessionBusy
	}

	s.editorClient = clientID
	s.editorUser = userID

	return nil
}

// Detach releases the write slot held by clientID.
func (s *Session) Detach(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editorClient == clientID {
		s.editorClient = ""
	}
}

// Editor returns the client holding the write slot, or "".
func (s *Session) Editor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.editorClient
}

// AddElement inserts el and commits. It returns the new id, or "" for nil.
func (s *Session) AddElement(el canvas.Element) string {
	s.mu.Lock()
	defer s.unlock()

	id := s.doc.Add(el)
	if id == "" {
		return ""
	}

	s.revision++
	s.commit()

	return id
}

// UpdateElement merges patch into an element. Live updates (commit false)
// are pushed to watchers as single elements; a commit records the current
// document in history. Unknown ids are ignored.
func (s *Session) UpdateElement(id string, patch canvas.Patch, commit bool) {
	s.mu.Lock()
	defer s.unlock()

	if !s.doc.Update(id, patch) {
		return
	}

	if !patch.IsEmpty() {
		s.revision++
	}

	if !commit {
		s.broadcastElement(id)

		return
	}

	s.commit()
}

// DeleteElement removes an element, clears the selection if it pointed at
// it, and commits.
func (s *Session) DeleteElement(id string) bool {
	s.mu.Lock()
	defer s.unlock()

	if !s.doc.Delete(id) {
		return false
	}

	if s.selected == id {
		s.selected = ""
	}

	s.revision++
	s.commit()

	return true
}

// DuplicateElement copies an element on top of the stack and commits.
// The caller decides whether to select the copy.
func (s *Session) DuplicateElement(id string) (string, bool) {
	s.mu.Lock()
	defer s.unlock()

	newID, ok := s.doc.Duplicate(id)
	if !ok {
		return "", false
	}

	s.revision++
	s.commit()

	return newID, true
}

// BringForward raises an element above the current top and commits.
func (s *Session) BringForward(id string) bool {
	return s.restack(id, layering.Forward)
}

// SendBackward lowers an element by one, never below 1, and commits.
func (s *Session) SendBackward(id string) bool {
	return s.restack(id, func(current, _ int) int { return layering.Backward(current) })
}

func (s *Session) restack(id string, next func(current, top int) int) bool {
	s.mu.Lock()
	defer s.unlock()

	f, ok := s.doc.Frame(id)
	if !ok {
		return false
	}

	z := next(f.ZIndex, s.doc.TopZ())
	if z != f.ZIndex {
		s.doc.Update(id, canvas.Patch{ZIndex: &z})
		s.revision++
	}

	s.commit()

	return true
}

// Undo steps back one history entry and clears the selection.
func (s *Session) Undo() bool {
	return s.travel(s.history.Undo)
}

// Redo steps forward one history entry and clears the selection.
func (s *Session) Redo() bool {
	return s.travel(s.history.Redo)
}

func (s *Session) travel(step func() (canvas.Snapshot, bool)) bool {
	s.mu.Lock()
	defer s.unlock()

	snap, ok := step()
	if !ok {
		return false
	}

	s.doc.Restore(snap)
	s.selected = ""
	s.revision++
	s.broadcastState()

	return true
}

// Select changes the selection. "" clears it; unknown ids are ignored.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.unlock()

	if id != "" {
		if _, ok := s.doc.Frame(id); !ok {
			return
		}
	}

	if s.selected == id {
		return
	}

	s.selected = id
	s.broadcastState()
}

// Selected returns the selected element id, or "".
func (s *Session) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

// Frame returns the geometry of an element.
func (s *Session) Frame(id string) (canvas.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Frame(id)
}

// Element returns a copy of an element.
func (s *Session) Element(id string) (canvas.Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Element(id)
}

// SetBackground changes the canvas colour. It is saved with the record but
// is not part of undo history.
func (s *Session) SetBackground(color string) {
	s.mu.Lock()
	defer s.unlock()

	s.doc.SetBackground(color)
	s.revision++
	s.broadcastState()
}

// PaintOrder returns copies of the elements in painting order.
func (s *Session) PaintOrder() []canvas.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.PaintOrder()
}

// Record returns the persistable form of the current document.
func (s *Session) Record() canvas.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Record(s.now().UTC())
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.history.CanRedo()
}

// HistoryLen returns the number of history entries.
func (s *Session) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.history.Len()
}

// Dirty reports whether there are changes that no save has covered yet.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision != s.savedRevision
}

// State returns the payload pushed to clients.
func (s *Session) State() ws.StatePayload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state()
}

func (s *Session) state() ws.StatePayload {
	return ws.StatePayload{
		DesignID:   s.designID,
		Record:     s.doc.Record(time.Time{}),
		SelectedID: s.selected,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
	}
}

// Save writes the current document through the gateway as userID.
func (s *Session) Save(ctx context.Context, userID string) (string, error) {
	if s.gateway == nil {
		return "", ErrNoGateway
	}

	rec, rev := s.snapshotForSave()

	id, err := s.gateway.Save(ctx, s.designID, userID, rec)
	if err != nil {
		return "", err
	}

	s.markSaved(rev)

	return id, nil
}

// SaveAsync saves on a background goroutine and calls done, which may be
// nil, with the outcome. Local state is never touched by a failure.
func (s *Session) SaveAsync(ctx context.Context, userID string, done func(storage.SaveResult)) {
	if s.gateway == nil {
		if done != nil {
			done(storage.SaveResult{DesignID: s.designID, Err: ErrNoGateway})
		}

		return
	}

	rec, rev := s.snapshotForSave()

	s.gateway.SaveAsync(ctx, s.designID, userID, rec, func(res storage.SaveResult) {
		if res.Err == nil {
			s.markSaved(rev)
		}

		if done != nil {
			done(res)
		}
	})
}

func (s *Session) snapshotForSave() (canvas.Record, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Record(s.now().UTC()), s.revision
}

func (s *Session) markSaved(rev int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rev > s.savedRevision {
		s.savedRevision = rev
	}

	if s.autosave != nil && rev == s.revision {
		s.autosave.Reset(s.designID)
	}
}

// Close marks the session closed and saves outstanding changes on behalf of
// the last editor.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	dirty := s.revision != s.savedRevision
	user := s.editorUser
	s.mu.Unlock()

	if !dirty || user == "" || s.gateway == nil {
		return nil
	}

	_, err := s.Save(ctx, user)

	return err
}

func (s *Session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}

// Closed reports whether the session was closed or discarded.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

// commit records the live document in history. Caller holds s.mu.
func (s *Session) commit() {
	if s.history.Commit(s.doc.Snapshot()) {
		s.maybeAutosave()
	}

	s.broadcastState()
}

// maybeAutosave starts a background save once enough commits piled up.
// Caller holds s.mu.
func (s *Session) maybeAutosave() {
	if s.autosave == nil || s.gateway == nil || s.editorUser == "" {
		return
	}

	if !s.autosave.RecordCommit(s.designID) {
		return
	}

	s.autosave.Reset(s.designID)

	rec := s.doc.Record(s.now().UTC())
	rev := s.revision

	s.gateway.SaveAsync(context.Background(), s.designID, s.editorUser, rec, func(res storage.SaveResult) {
		if res.Err != nil {
			return
		}

		s.markSaved(rev)
		s.logger.Info("autosaved", "version_id", res.VersionID)
	})
}

// broadcastState queues the state for every watcher. Caller holds s.mu.
func (s *Session) broadcastState() {
	if s.hub == nil {
		return
	}

	state := s.state()

	s.outbox = append(s.outbox, func() { s.hub.BroadcastState(state, "") })
}

// broadcastElement queues one live element for watchers other than the
// editor. Caller holds s.mu.
func (s *Session) broadcastElement(id string) {
	if s.hub == nil {
		return
	}

	el, ok := s.doc.Element(id)
	if !ok {
		return
	}

	exclude := s.editorClient

	s.outbox = append(s.outbox, func() { s.hub.BroadcastElement(s.designID, el, exclude) })
}

// unlock releases s.mu and then sends whatever the critical section queued.
// Network writes never happen while s.mu is held.
func (s *Session) unlock() {
	s.mu.Unlock()
	s.flush()
}

func (s *Session) flush() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	pending := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, send := range pending {
		send()
	}
}
