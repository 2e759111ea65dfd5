package canvas

// Patch is a partial set of element properties. Nil fields are left alone.
// Frame fields apply to every kind; the remaining fields only touch the
// variants that carry them.
type Patch struct {
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	ZIndex  *int     `json:"zIndex,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`

	Content        *string  `json:"content,omitempty"`
	FontSize       *float64 `json:"fontSize,omitempty"`
	FontWeight     *string  `json:"fontWeight,omitempty"`
	FontStyle      *string  `json:"fontStyle,omitempty"`
	TextDecoration *string  `json:"textDecoration,omitempty"`
	TextAlign      *string  `json:"textAlign,omitempty"`
	FontFamily     *string  `json:"fontFamily,omitempty"`

	// Color applies to Text and Shape.
	Color *string `json:"color,omitempty"`

	ShapeKind *ShapeKind `json:"shapeKind,omitempty"`
	Source    *string    `json:"src,omitempty"`
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}

// Move returns a patch that sets the position.
func Move(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// Bounds returns a patch that sets position and size.
func Bounds(x, y, width, height float64) Patch {
	return Patch{X: &x, Y: &y, Width: &width, Height: &height}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func (p Patch) applyFrame(f *Frame) {
	if p.X != nil {
		f.X = *p.X
	}
	if p.Y != nil {
		f.Y = *p.Y
	}
	if p.Width != nil {
		f.Width = *p.Width
	}
	if p.Height != nil {
		f.Height = *p.Height
	}
	if p.ZIndex != nil {
		f.ZIndex = *p.ZIndex
	}
	if p.Opacity != nil {
		f.Opacity = *p.Opacity
	}
	normalize(f)
}

// patcher merges the variant specific part of a patch.
type patcher struct{ p Patch }

func (m patcher) VisitText(t *Text) {
	p := m.p
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		t.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		t.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		t.FontStyle = *p.FontStyle
	}
	if p.TextDecoration != nil {
		t.TextDecoration = *p.TextDecoration
	}
	if p.TextAlign != nil {
		t.TextAlign = *p.TextAlign
	}
	if p.FontFamily != nil {
		t.FontFamily = *p.FontFamily
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
}

func (m patcher) VisitShape(s *Shape) {
	if m.p.ShapeKind != nil && m.p.ShapeKind.Valid() {
		s.ShapeKind = *m.p.ShapeKind
	}
	if m.p.Color != nil {
		s.Color = *m.p.Color
	}
}

func (m patcher) VisitImage(i *Image) {
	if m.p.Source != nil {
		i.Source = *m.p.Source
	}
}

// Apply merges p into el in place.
func (p Patch) Apply(el Element) {
	p.applyFrame(el.frame())
	Visit(el, patcher{p: p})
}

// normalize keeps frame values inside their legal ranges.
func normalize(f *Frame) {
	if f.Width < MinSize {
		f.Width = MinSize
	}
	if f.Height < MinSize {
		f.Height = MinSize
	}
	if f.ZIndex < 1 {
		f.ZIndex = 1
	}
	if f.Opacity < 0 {
		f.Opacity = 0
	}
	if f.Opacity > 1 {
		f.Opacity = 1
	}
}
