// Package input describes the raw events an editing client produces and the
// Source abstraction the editor reads them from.
package input

import (
	"context"
	"errors"

	"github.com/serroba/design-studio/internal/canvas"
)

// ErrSourceClosed is returned by a Source that has no more events.
var ErrSourceClosed = errors.New("input source closed")

// Handle names a resize corner.
type Handle string

const (
	HandleNone        Handle = ""
	HandleTopLeft     Handle = "top-left"
	HandleTopRight    Handle = "top-right"
	HandleBottomLeft  Handle = "bottom-left"
	HandleBottomRight Handle = "bottom-right"
)

// Valid reports whether h is one of the four corners.
func (h Handle) Valid() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	default:
		return false
	}
}

// Left reports whether the handle sits on the left edge.
func (h Handle) Left() bool { return h == HandleTopLeft || h == HandleBottomLeft }

// Top reports whether the handle sits on the top edge.
func (h Handle) Top() bool { return h == HandleTopLeft || h == HandleTopRight }

// Event is one of PointerEvent, KeyEvent, ViewportEvent or ActionEvent.
type Event interface {
	isEvent()
}

// PointerPhase is the stage of a pointer interaction.
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in client (screen) coordinates.
type PointerEvent struct {
	Phase   PointerPhase
	ClientX float64
	ClientY float64
	// Target is the element under the pointer, empty for bare canvas.
	Target string
	// Handle is set when the pointer went down on a resize corner.
	Handle Handle
}

// Keys the editor reacts to, named as browsers report them.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyDelete     = "Delete"
	KeyBackspace  = "Backspace"
	KeyEscape     = "Escape"
)

// Modifiers holds the modifier keys held during a key event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool
	Alt   bool
}

// Command reports whether the platform command modifier is held.
func (m Modifiers) Command() bool { return m.Ctrl || m.Meta }

// KeyEvent is a key press or release.
type KeyEvent struct {
	Down bool
	Key  string
	Modifiers
	// TextFocus is true while a text field owns the keyboard.
	TextFocus bool
}

// IsArrow reports whether the key is one of the four arrows.
func (k KeyEvent) IsArrow() bool {
	switch k.Key {
	case KeyArrowUp, KeyArrowDown, KeyArrowLeft, KeyArrowRight:
		return true
	default:
		return false
	}
}

// ViewportEvent reports a change in the on-screen placement of the canvas.
type ViewportEvent struct {
	OriginX float64
	OriginY float64
	Zoom    float64
}

// ActionName identifies a discrete toolbar action.
type ActionName string

const (
	ActionAdd           ActionName = "add"
	ActionUpdate        ActionName = "update"
	ActionDelete        ActionName = "delete"
	ActionDuplicate     ActionName = "duplicate"
	ActionBringForward  ActionName = "bring_forward"
	ActionSendBackward  ActionName = "send_backward"
	ActionUndo          ActionName = "undo"
	ActionRedo          ActionName = "redo"
	ActionSelect        ActionName = "select"
	ActionBackground    ActionName = "background"
	ActionClearSelected ActionName = "clear_selection"
	ActionSave          ActionName = "save"
	ActionSync          ActionName = "sync"
)

// ActionEvent is a toolbar command. Which fields matter depends on Name.
type ActionEvent struct {
	Name      ActionName
	ElementID string
	Element   canvas.Element
	Patch     canvas.Patch
	Color     string
}

func (PointerEvent) isEvent()  {}
func (KeyEvent) isEvent()      {}
func (ViewportEvent) isEvent() {}
func (ActionEvent) isEvent()   {}

// Source yields events one at a time. Next blocks until an event arrives,
// the source ends (ErrSourceClosed) or ctx is done.
type Source interface {
	Next(ctx context.Context) (Event, error)
}
