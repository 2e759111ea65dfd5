package canvas

// MinSize is the smallest width or height an element may have, in document units.
const MinSize = 20.0

// DuplicateOffset is how far a duplicate is shifted from its source on both axes.
const DuplicateOffset = 20.0

// Kind identifies an element variant.
type Kind string

const (
	KindText  Kind = "text"
	KindShape Kind = "shape"
	KindImage Kind = "image"
)

// ShapeKind is the outline drawn by a Shape element.
type ShapeKind string

const (
	ShapeSquare   ShapeKind = "square"
	ShapeCircle   ShapeKind = "circle"
	ShapeRounded  ShapeKind = "rounded"
	ShapeTriangle ShapeKind = "triangle"
)

// Valid reports whether k is one of the known shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeSquare, ShapeCircle, ShapeRounded, ShapeTriangle:
		return true
	default:
		return false
	}
}

// Frame holds the fields every element carries.
type Frame struct {
	ID      string
	X       float64
	Y       float64
	Width   float64
	Height  float64
	ZIndex  int
	Opacity float64
}

// Right returns the x coordinate of the right edge.
func (f Frame) Right() float64 { return f.X + f.Width }

// Bottom returns the y coordinate of the bottom edge.
func (f Frame) Bottom() float64 { return f.Y + f.Height }

// Element is one of *Text, *Shape or *Image. The set is closed: code that
// must handle every kind goes through Visit.
type Element interface {
	Kind() Kind
	Z() int
	frame() *Frame
	clone() Element
	equal(other Element) bool
}

// Text is a block of styled text.
type Text struct {
	Frame
	Content        string
	FontSize       float64
	FontWeight     string
	FontStyle      string
	TextDecoration string
	TextAlign      string
	FontFamily     string
	Color          string
}

// Shape is a filled geometric primitive.
type Shape struct {
	Frame
	ShapeKind ShapeKind
	Color     string
}

// Image places an external picture referenced by Source.
type Image struct {
	Frame
	Source string
}

// NewText returns a text element with the editor defaults applied.
func NewText(content string) *Text {
	return &Text{
		Frame:      Frame{Width: 200, Height: 50, ZIndex: 1, Opacity: 1},
		Content:    content,
		FontSize:   16,
		FontWeight: "normal",
		FontStyle:  "normal",
		TextAlign:  "left",
		FontFamily: "sans-serif",
		Color:      "#000000",
	}
}

// NewShape returns a shape element with the editor defaults applied.
func NewShape(kind ShapeKind) *Shape {
	return &Shape{
		Frame:     Frame{Width: 100, Height: 100, ZIndex: 1, Opacity: 1},
		ShapeKind: kind,
		Color:     "#3b82f6",
	}
}

// NewImage returns an image element with the editor defaults applied.
func NewImage(source string) *Image {
	return &Image{
		Frame:  Frame{Width: 200, Height: 200, ZIndex: 1, Opacity: 1},
		Source: source,
	}
}

func (t *Text) Kind() Kind      { return KindText }
func (t *Text) Z() int          { return t.ZIndex }
func (t *Text) frame() *Frame   { return &t.Frame }
func (t *Text) clone() Element  { c := *t; return &c }
func (s *Shape) Kind() Kind     { return KindShape }
func (s *Shape) Z() int         { return s.ZIndex }
func (s *Shape) frame() *Frame  { return &s.Frame }
func (s *Shape) clone() Element { c := *s; return &c }
func (i *Image) Kind() Kind     { return KindImage }
func (i *Image) Z() int         { return i.ZIndex }
func (i *Image) frame() *Frame  { return &i.Frame }
func (i *Image) clone() Element { c := *i; return &c }

func (t *Text) equal(other Element) bool {
	o, ok := other.(*Text)
	return ok && *t == *o
}

func (s *Shape) equal(other Element) bool {
	o, ok := other.(*Shape)
	return ok && *s == *o
}

func (i *Image) equal(other Element) bool {
	o, ok := other.(*Image)
	return ok && *i == *o
}

// FrameOf returns a copy of the element's common fields.
func FrameOf(el Element) Frame {
	return *el.frame()
}

// Clone returns a deep copy of el.
func Clone(el Element) Element {
	return el.clone()
}

// Visitor handles each element variant. Adding a variant adds a method here,
// so every implementation fails to compile until it handles the new kind.
type Visitor interface {
	VisitText(t *Text)
	VisitShape(s *Shape)
	VisitImage(i *Image)
}

// Visit dispatches el to the matching Visitor method.
func Visit(el Element, v Visitor) {
	switch e := el.(type) {
	case *Text:
		v.VisitText(e)
	case *Shape:
		v.VisitShape(e)
	case *Image:
		v.VisitImage(e)
	}
}
