package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownKind is returned when decoding an element with an unrecognised type tag.
var ErrUnknownKind = errors.New("unknown element type")

// Record is the persisted form of a document.
type Record struct {
	Elements        []Element
	BackgroundColor string
	CreatedAt       time.Time
}

// EmptyRecord returns a record for a document with no elements.
func EmptyRecord() Record {
	return Record{BackgroundColor: DefaultBackground}
}

// IsEmpty reports whether the record has no elements.
func (r Record) IsEmpty() bool {
	return len(r.Elements) == 0
}

// wireElement is the JSON shape of every element kind. The type field
// selects which of the variant fields are meaningful.
type wireElement struct {
	Type    Kind     `json:"type"`
	ID      string   `json:"id"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	ZIndex  int      `json:"zIndex"`
	Opacity *float64 `json:"opacity,omitempty"`

	Content        string  `json:"content,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty"`
	FontWeight     string  `json:"fontWeight,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty"`
	TextAlign      string  `json:"textAlign,omitempty"`
	FontFamily     string  `json:"fontFamily,omitempty"`
	Color          string  `json:"color,omitempty"`

	ShapeKind ShapeKind `json:"shapeKind,omitempty"`
	Source    string    `json:"src,omitempty"`
}

type wireRecord struct {
	Elements        []wireElement `json:"elements"`
	BackgroundColor string        `json:"backgroundColor"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// encoder fills a wireElement from a concrete variant.
type encoder struct{ w *wireElement }

func (e encoder) VisitText(t *Text) {
	e.w.Type = KindText
	e.w.Content = t.Content
	e.w.FontSize = t.FontSize
	e.w.FontWeight = t.FontWeight
	e.w.FontStyle = t.FontStyle
	e.w.TextDecoration = t.TextDecoration
	e.w.TextAlign = t.TextAlign
	e.w.FontFamily = t.FontFamily
	e.w.Color = t.Color
}

func (e encoder) VisitShape(s *Shape) {
	e.w.Type = KindShape
	e.w.ShapeKind = s.ShapeKind
	e.w.Color = s.Color
}

func (e encoder) VisitImage(i *Image) {
	e.w.Type = KindImage
	e.w.Source = i.Source
}

func toWire(el Element) wireElement {
	f := el.frame()
	opacity := f.Opacity
	w := wireElement{
		ID:      f.ID,
		X:       f.X,
		Y:       f.Y,
		Width:   f.Width,
		Height:  f.Height,
		ZIndex:  f.ZIndex,
		Opacity: &opacity,
	}
	Visit(el, encoder{w: &w})

	return w
}

func fromWire(w wireElement) (Element, error) {
	frame := Frame{
		ID:      w.ID,
		X:       w.X,
		Y:       w.Y,
		Width:   w.Width,
		Height:  w.Height,
		ZIndex:  w.ZIndex,
		Opacity: 1,
	}
	if w.Opacity != nil {
		frame.Opacity = *w.Opacity
	}
	normalize(&frame)

	switch w.Type {
	case KindText:
		return &Text{
			Frame:          frame,
			Content:        w.Content,
			FontSize:       w.FontSize,
			FontWeight:     w.FontWeight,
			FontStyle:      w.FontStyle,
			TextDecoration: w.TextDecoration,
			TextAlign:      w.TextAlign,
			FontFamily:     w.FontFamily,
			Color:          w.Color,
		}, nil
	case KindShape:
		kind := w.ShapeKind
		if !kind.Valid() {
			kind = ShapeSquare
		}

		return &Shape{Frame: frame, ShapeKind: kind, Color: w.Color}, nil
	case KindImage:
		return &Image{Frame: frame, Source: w.Source}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
}

// MarshalElement encodes a single element with its type tag.
func MarshalElement(el Element) ([]byte, error) {
	return json.Marshal(toWire(el))
}

// UnmarshalElement decodes a single tagged element.
func UnmarshalElement(data []byte) (Element, error) {
	var w wireElement
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	return fromWire(w)
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	out := wireRecord{
		Elements:        make([]wireElement, 0, len(r.Elements)),
		BackgroundColor: r.BackgroundColor,
		CreatedAt:       r.CreatedAt,
	}
	for _, el := range r.Elements {
		out.Elements = append(out.Elements, toWire(el))
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in wireRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	elements := make([]Element, 0, len(in.Elements))
	for _, w := range in.Elements {
		el, err := fromWire(w)
		if err != nil {
			return err
		}
		elements = append(elements, el)
	}

	r.Elements = elements
	r.BackgroundColor = in.BackgroundColor
	if r.BackgroundColor == "" {
		r.BackgroundColor = DefaultBackground
	}
	r.CreatedAt = in.CreatedAt

	return nil
}
