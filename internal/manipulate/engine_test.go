package manipulate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/history"
	"github.com/serroba/design-studio/internal/input"
	"github.com/serroba/design-studio/internal/manipulate"
)

// fakeTarget is a minimal editing state backed by a real document and history.
type fakeTarget struct {
	doc      *canvas.Document
	hist     *history.History
	selected string
	live     int
}

func newFakeTarget() *fakeTarget {
	doc := canvas.NewDocument()

	return &fakeTarget{doc: doc, hist: history.New(doc.Snapshot(), 0)}
}

func (f *fakeTarget) add(el canvas.Element) string {
	id := f.doc.Add(el)
	f.hist.Commit(f.doc.Snapshot())

	return id
}

func (f *fakeTarget) Frame(id string) (canvas.Frame, bool) { return f.doc.Frame(id) }
func (f *fakeTarget) Selected() string                     { return f.selected }
func (f *fakeTarget) Select(id string)                     { f.selected = id }

func (f *fakeTarget) UpdateElement(id string, patch canvas.Patch, commit bool) {
	if !f.doc.Update(id, patch) {
		return
	}

	if commit {
		f.hist.Commit(f.doc.Snapshot())

		return
	}

	f.live++
}

func textAt(x, y, w, h float64) *canvas.Text {
	t := canvas.NewText("hello")
	t.X, t.Y, t.Width, t.Height = x, y, w, h

	return t
}

func newEngine(target manipulate.Target, vp manipulate.Viewport) *manipulate.Engine {
	return manipulate.NewEngine(manipulate.Config{Target: target, Viewport: vp})
}

func TestEngine_DragScenario(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(100, 100, 200, 50))
	before := target.hist.Len()

	eng := newEngine(target, manipulate.DefaultViewport())

	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 110, ClientY: 120, Target: id})
	for i := 1; i <= 10; i++ {
		eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 110 + 3*float64(i), ClientY: 120 - float64(i)})
	}
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp, ClientX: 140, ClientY: 110})

	f, ok := target.doc.Frame(id)
	require.True(t, ok)

	if f.X != 130 || f.Y != 90 {
		t.Errorf("expected (130,90), got (%v,%v)", f.X, f.Y)
	}

	if got := target.hist.Len() - before; got != 1 {
		t.Errorf("expected exactly one history entry for the drag, got %d", got)
	}

	if target.live != 10 {
		t.Errorf("expected 10 live updates, got %d", target.live)
	}

	if target.selected != id {
		t.Errorf("expected element selected, got %q", target.selected)
	}
}

func TestEngine_DragKeepsGrabPointUnderZoom(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(100, 100, 200, 50))

	vp := manipulate.Viewport{OriginX: 40, OriginY: 20, Zoom: 2}
	eng := newEngine(target, vp)

	// Client (250,230) is document (105,105): 5 units inside the element.
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 250, ClientY: 230, Target: id})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 250, ClientY: 230})

	f, _ := target.doc.Frame(id)
	if f.X != 100 || f.Y != 100 {
		t.Errorf("expected no jump on first move, got (%v,%v)", f.X, f.Y)
	}

	// 60 client pixels at zoom 2 is 30 document units.
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 310, ClientY: 170})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp})

	f, _ = target.doc.Frame(id)
	if f.X != 130 || f.Y != 70 {
		t.Errorf("expected (130,70), got (%v,%v)", f.X, f.Y)
	}
}

func TestEngine_ResizeScenarioClampsAtMinimum(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	sq := canvas.NewShape(canvas.ShapeSquare)
	sq.Width, sq.Height = 50, 50
	id := target.add(sq)

	eng := newEngine(target, manipulate.DefaultViewport())

	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 50, ClientY: 50, Target: id, Handle: input.HandleBottomRight})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 5, ClientY: 5})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp})

	f, _ := target.doc.Frame(id)
	if f.X != 0 || f.Y != 0 || f.Width != 20 || f.Height != 20 {
		t.Errorf("expected (0,0,20,20), got %+v", f)
	}
}

func TestEngine_ResizeTopLeftUnderZoom(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(100, 100, 100, 100))

	eng := newEngine(target, manipulate.Viewport{Zoom: 0.5})

	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, Target: id, Handle: input.HandleTopLeft})
	// Document (60,80).
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 30, ClientY: 40})
	// Far past the opposite corner.
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 1000, ClientY: 1000})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp})

	f, _ := target.doc.Frame(id)
	if f.Right() != 200 || f.Bottom() != 200 {
		t.Errorf("expected bottom-right corner at (200,200), got (%v,%v)", f.Right(), f.Bottom())
	}

	if f.Width != 20 || f.Height != 20 {
		t.Errorf("expected minimum size, got %vx%v", f.Width, f.Height)
	}
}

func TestEngine_ClickWithoutMovementAddsNoHistory(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(0, 0, 100, 40))
	before := target.hist.Len()

	eng := newEngine(target, manipulate.DefaultViewport())
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 10, ClientY: 10, Target: id})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 10, ClientY: 10})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp, ClientX: 10, ClientY: 10})

	if target.hist.Len() != before {
		t.Errorf("expected history unchanged, went from %d to %d", before, target.hist.Len())
	}
}

func TestEngine_ReleaseAnywhereEndsGesture(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(0, 0, 100, 40))

	eng := newEngine(target, manipulate.DefaultViewport())
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 5, ClientY: 5, Target: id})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: -500, ClientY: -500})
	// Release far outside the canvas, over no element.
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerUp, ClientX: -900, ClientY: 4000})

	if eng.Dragging() {
		t.Fatal("expected gesture to end on release")
	}

	f, _ := target.doc.Frame(id)
	before := target.hist.Len()

	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 300, ClientY: 300})

	after, _ := target.doc.Frame(id)
	if after != f || target.hist.Len() != before {
		t.Error("expected moves after release to be ignored")
	}
}

func TestEngine_PointerDownOnCanvasClearsSelection(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(0, 0, 100, 40))
	target.selected = id

	eng := newEngine(target, manipulate.DefaultViewport())
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, ClientX: 500, ClientY: 500})

	if target.selected != "" {
		t.Errorf("expected selection cleared, got %q", target.selected)
	}

	if eng.Dragging() {
		t.Error("expected no gesture on bare canvas")
	}
}

func TestEngine_PointerDownOnUnknownElementIsIgnored(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(0, 0, 100, 40))
	target.selected = id

	eng := newEngine(target, manipulate.DefaultViewport())
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, Target: "ghost"})

	if target.selected != id || eng.Dragging() {
		t.Error("expected unknown target to leave state alone")
	}
}

func TestEngine_NudgeCoalescesIntoOneCommit(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(10, 10, 100, 40))
	target.selected = id
	before := target.hist.Len()

	eng := newEngine(target, manipulate.DefaultViewport())

	for i := 0; i < 5; i++ {
		require.True(t, eng.HandleKey(input.KeyEvent{Down: true, Key: input.KeyArrowRight}))
	}
	require.True(t, eng.HandleKey(input.KeyEvent{Down: true, Key: input.KeyArrowDown, Modifiers: input.Modifiers{Shift: true}}))
	require.True(t, eng.HandleKey(input.KeyEvent{Key: input.KeyArrowDown}))

	f, _ := target.doc.Frame(id)
	if f.X != 15 || f.Y != 20 {
		t.Errorf("expected (15,20), got (%v,%v)", f.X, f.Y)
	}

	if got := target.hist.Len() - before; got != 1 {
		t.Errorf("expected one commit for the nudge run, got %d", got)
	}
}

func TestEngine_NudgeSuppressedWhileTyping(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(10, 10, 100, 40))
	target.selected = id

	eng := newEngine(target, manipulate.DefaultViewport())

	if eng.HandleKey(input.KeyEvent{Down: true, Key: input.KeyArrowLeft, TextFocus: true}) {
		t.Error("expected key to be left to the text field")
	}

	f, _ := target.doc.Frame(id)
	if f.X != 10 {
		t.Errorf("expected no movement, got x=%v", f.X)
	}
}

func TestEngine_NudgeWithoutSelection(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	target.add(textAt(10, 10, 100, 40))

	eng := newEngine(target, manipulate.DefaultViewport())

	if eng.HandleKey(input.KeyEvent{Down: true, Key: input.KeyArrowUp}) {
		t.Error("expected nothing to nudge")
	}

	if eng.HandleKey(input.KeyEvent{Down: true, Key: "a"}) {
		t.Error("expected non-arrow keys to be ignored")
	}
}

func TestEngine_RunDrainsSource(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(100, 100, 200, 50))
	before := target.hist.Len()

	eng := newEngine(target, manipulate.DefaultViewport())

	src := input.NewScript(
		input.ViewportEvent{OriginX: 0, OriginY: 0, Zoom: 1},
		input.PointerEvent{Phase: input.PointerDown, ClientX: 100, ClientY: 100, Target: id},
		input.PointerEvent{Phase: input.PointerMove, ClientX: 130, ClientY: 90},
		input.ActionEvent{Name: input.ActionUndo},
		input.PointerEvent{Phase: input.PointerUp},
	)

	require.NoError(t, eng.Run(context.Background(), src))

	f, _ := target.doc.Frame(id)
	if f.X != 130 || f.Y != 90 {
		t.Errorf("expected (130,90), got (%v,%v)", f.X, f.Y)
	}

	if target.hist.Len()-before != 1 {
		t.Errorf("expected one commit, got %d", target.hist.Len()-before)
	}
}

func TestEngine_FinishCommitsPendingGesture(t *testing.T) {
	t.Parallel()

	target := newFakeTarget()
	id := target.add(textAt(0, 0, 100, 40))
	before := target.hist.Len()

	eng := newEngine(target, manipulate.DefaultViewport())
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerDown, Target: id})
	eng.HandlePointer(input.PointerEvent{Phase: input.PointerMove, ClientX: 50, ClientY: 50})
	eng.Finish()

	if eng.Dragging() {
		t.Error("expected gesture closed")
	}

	if target.hist.Len()-before != 1 {
		t.Errorf("expected one commit, got %d", target.hist.Len()-before)
	}
}
