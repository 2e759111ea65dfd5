// Package manipulate turns raw pointer and keyboard input into element
// updates: dragging, corner resizing and arrow-key nudges.
//
// All geometry is computed in document space. Client coordinates are
// converted through the Viewport first, so results do not depend on zoom.
package manipulate

import (
	"math"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/input"
)

// Zoom limits accepted by the viewport.
const (
	MinZoom = 0.1
	MaxZoom = 3.0
)

// Viewport maps client coordinates to document coordinates.
type Viewport struct {
	OriginX float64
	OriginY float64
	Zoom    float64
}

// DefaultViewport is an unzoomed canvas at the client origin.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ToDocument converts a client position into document space.
func (v Viewport) ToDocument(clientX, clientY float64) (float64, float64) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	return (clientX - v.OriginX) / zoom, (clientY - v.OriginY) / zoom
}

// ToClient converts a document position into client space.
func (v Viewport) ToClient(x, y float64) (float64, float64) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	return x*zoom + v.OriginX, y*zoom + v.OriginY
}

// Apply returns v updated from ev. Zoom is clamped to [MinZoom, MaxZoom];
// a non-positive or non-finite zoom keeps the previous value.
func (v Viewport) Apply(ev input.ViewportEvent) Viewport {
	out := Viewport{OriginX: ev.OriginX, OriginY: ev.OriginY, Zoom: v.Zoom}

	z := ev.Zoom
	if z > 0 && !math.IsInf(z, 0) && !math.IsNaN(z) {
		out.Zoom = math.Min(MaxZoom, math.Max(MinZoom, z))
	}

	return out
}

// Resize returns f resized by dragging handle to the document position
// (px, py). Neither dimension drops below canvas.MinSize; when clamping a
// left or top handle, the position is shifted so the opposite edge stays put.
func Resize(f canvas.Frame, handle input.Handle, px, py float64) canvas.Frame {
	right := f.X + f.Width
	bottom := f.Y + f.Height
	out := f

	switch handle {
	case input.HandleBottomRight:
		out.Width = px - f.X
		out.Height = py - f.Y
	case input.HandleBottomLeft:
		out.Width = right - px
		out.Height = py - f.Y
		out.X = px
	case input.HandleTopRight:
		out.Width = px - f.X
		out.Height = bottom - py
		out.Y = py
	case input.HandleTopLeft:
		out.Width = right - px
		out.Height = bottom - py
		out.X = px
		out.Y = py
	default:
		return f
	}

	if out.Width < canvas.MinSize {
		out.Width = canvas.MinSize
		if handle.Left() {
			out.X = right - canvas.MinSize
		}
	}

	if out.Height < canvas.MinSize {
		out.Height = canvas.MinSize
		if handle.Top() {
			out.Y = bottom - canvas.MinSize
		}
	}

	return out
}

// boundsPatch returns the patch that moves an element's frame to f.
func boundsPatch(f canvas.Frame) canvas.Patch {
	return canvas.Bounds(f.X, f.Y, f.Width, f.Height)
}
