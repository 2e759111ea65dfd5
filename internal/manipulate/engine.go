package manipulate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/input"
)

// Nudge distances in document units.
const (
	NudgeStep      = 1.0
	NudgeStepLarge = 10.0
)

// Target is the editing state the engine acts on.
type Target interface {
	// Frame returns the current geometry of an element.
	Frame(id string) (canvas.Frame, bool)
	// Selected returns the selected element id, or "" when nothing is selected.
	Selected() string
	// Select changes the selection; "" clears it.
	Select(id string)
	// UpdateElement merges patch into an element. With commit false the
	// change is live only; with commit true it also lands in history.
	UpdateElement(id string, patch canvas.Patch, commit bool)
}

type mode int

const (
	modeIdle mode = iota
	modeTranslate
	modeResize
)

// gesture is the state of one pointer-down to pointer-up interaction.
type gesture struct {
	mode    mode
	id      string
	handle  input.Handle
	offsetX float64
	offsetY float64
}

// Engine interprets input for one editing session. It is driven from a
// single event loop and is not safe for concurrent use.
type Engine struct {
	target   Target
	viewport Viewport
	gesture  gesture
	nudging  string
	logger   *slog.Logger
}

// Config holds configuration for creating an engine.
type Config struct {
	Target   Target
	Viewport Viewport
	Logger   *slog.Logger
}

// NewEngine creates a manipulation engine.
func NewEngine(cfg Config) *Engine {
	vp := cfg.Viewport
	if vp.Zoom <= 0 {
		vp.Zoom = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		target:   cfg.Target,
		viewport: vp,
		logger:   logger,
	}
}

// Viewport returns the current client-to-document mapping.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Dragging reports whether a pointer gesture is in progress.
func (e *Engine) Dragging() bool {
	return e.gesture.mode != modeIdle
}

// Handle processes one event. It reports false for events the engine does
// not consume: action events, and key events it leaves to the caller.
func (e *Engine) Handle(ev input.Event) bool {
	switch ev := ev.(type) {
	case input.PointerEvent:
		e.HandlePointer(ev)

		return true
	case input.KeyEvent:
		return e.HandleKey(ev)
	case input.ViewportEvent:
		e.viewport = e.viewport.Apply(ev)

		return true
	default:
		return false
	}
}

// Run reads events from src until it closes or ctx ends.
// Events the engine does not consume are dropped.
func (e *Engine) Run(ctx context.Context, src input.Source) error {
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, input.ErrSourceClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		e.Handle(ev)
	}
}

// HandlePointer processes a pointer sample.
func (e *Engine) HandlePointer(ev input.PointerEvent) {
	switch ev.Phase {
	case input.PointerDown:
		e.pointerDown(ev)
	case input.PointerMove:
		e.pointerMove(ev)
	case input.PointerUp:
		e.pointerUp()
	}
}

func (e *Engine) pointerDown(ev input.PointerEvent) {
	// A down without the matching up still closes the earlier gesture.
	e.pointerUp()
	e.flushNudge()

	if ev.Target == "" {
		e.target.Select("")

		return
	}

	f, ok := e.target.Frame(ev.Target)
	if !ok {
		return
	}

	e.target.Select(ev.Target)

	if ev.Handle.Valid() {
		e.gesture = gesture{mode: modeResize, id: ev.Target, handle: ev.Handle}

		return
	}

	px, py := e.viewport.ToDocument(ev.ClientX, ev.ClientY)
	e.gesture = gesture{
		mode:    modeTranslate,
		id:      ev.Target,
		offsetX: px - f.X,
		offsetY: py - f.Y,
	}
}

func (e *Engine) pointerMove(ev input.PointerEvent) {
	g := e.gesture
	if g.mode == modeIdle {
		return
	}

	px, py := e.viewport.ToDocument(ev.ClientX, ev.ClientY)

	switch g.mode {
	case modeTranslate:
		e.target.UpdateElement(g.id, canvas.Move(px-g.offsetX, py-g.offsetY), false)
	case modeResize:
		f, ok := e.target.Frame(g.id)
		if !ok {
			return
		}
		e.target.UpdateElement(g.id, boundsPatch(Resize(f, g.handle, px, py)), false)
	}
}

// pointerUp ends the gesture with a single commit. It runs for every
// release, whatever lies under the pointer.
func (e *Engine) pointerUp() {
	g := e.gesture
	if g.mode == modeIdle {
		return
	}

	e.gesture = gesture{}
	e.target.UpdateElement(g.id, canvas.Patch{}, true)
	e.logger.Debug("gesture committed", "element_id", g.id, "resize", g.mode == modeResize)
}

// HandleKey processes a key event and reports whether it was consumed.
// Arrow presses move the selection without committing; releasing the arrow
// commits the whole run of presses as one step.
func (e *Engine) HandleKey(ev input.KeyEvent) bool {
	if !ev.IsArrow() {
		return false
	}

	if !ev.Down {
		if e.nudging == "" {
			return false
		}
		e.flushNudge()

		return true
	}

	if ev.TextFocus {
		return false
	}

	id := e.target.Selected()
	if id == "" {
		return false
	}

	f, ok := e.target.Frame(id)
	if !ok {
		return false
	}

	if e.nudging != "" && e.nudging != id {
		e.flushNudge()
	}

	step := NudgeStep
	if ev.Shift {
		step = NudgeStepLarge
	}

	dx, dy := 0.0, 0.0
	switch ev.Key {
	case input.KeyArrowUp:
		dy = -step
	case input.KeyArrowDown:
		dy = step
	case input.KeyArrowLeft:
		dx = -step
	case input.KeyArrowRight:
		dx = step
	}

	e.target.UpdateElement(id, canvas.Move(f.X+dx, f.Y+dy), false)
	e.nudging = id

	return true
}

// flushNudge commits a pending run of arrow-key moves.
func (e *Engine) flushNudge() {
	if e.nudging == "" {
		return
	}

	id := e.nudging
	e.nudging = ""
	e.target.UpdateElement(id, canvas.Patch{}, true)
}

// Finish commits any gesture or nudge still in flight. Callers use it when
// the input source goes away.
func (e *Engine) Finish() {
	e.pointerUp()
	e.flushNudge()
}
