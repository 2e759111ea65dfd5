// Package canvas holds the design document model: positioned, sized and
// layered elements plus canvas-level properties.
//
// Every operation that names an element id treats an unknown id as a no-op
// and reports it with a false result instead of an error.
package canvas

import (
	"time"

	"github.com/google/uuid"

	"github.com/serroba/design-studio/internal/layering"
)

// DefaultBackground is the background colour of a new document.
const DefaultBackground = "#ffffff"

// Snapshot is an immutable copy of a document's element sequence.
type Snapshot []Element

// Equal reports whether two snapshots hold the same elements, in the same
// order, with the same values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}

	for i := range s {
		if !s[i].equal(other[i]) {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, el := range s {
		out[i] = el.clone()
	}

	return out
}

// Document is the live, mutable state of a design.
// It is not safe for concurrent use; the owning session serializes access.
type Document struct {
	elements   []Element
	background string
	newID      func() string
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		background: DefaultBackground,
		newID:      func() string { return uuid.New().String() },
	}
}

// FromRecord creates a document holding a copy of rec's content.
func FromRecord(rec Record) *Document {
	doc := NewDocument()
	doc.Load(rec)

	return doc
}

// Load replaces the content with a copy of rec. Elements without an id, or
// repeating an id used earlier in rec, get a fresh id so every element
// stays addressable.
func (d *Document) Load(rec Record) {
	taken := make(map[string]bool, len(rec.Elements))
	for _, el := range rec.Elements {
		if el != nil {
			taken[el.frame().ID] = true
		}
	}

	seen := make(map[string]bool, len(rec.Elements))
	elements := make([]Element, 0, len(rec.Elements))

	for _, el := range rec.Elements {
		if el == nil {
			continue
		}

		el = el.clone()
		f := el.frame()

		if f.ID == "" || seen[f.ID] {
			f.ID = d.freshID(taken)
		}

		seen[f.ID] = true
		elements = append(elements, el)
	}

	d.elements = elements
	d.SetBackground(rec.BackgroundColor)
}

// freshID returns a generated id not in taken and marks it taken.
func (d *Document) freshID(taken map[string]bool) string {
	id := d.newID()
	for taken[id] {
		id = d.newID()
	}

	taken[id] = true

	return id
}

// SetIDGenerator replaces the id source. Tests use it for stable ids.
func (d *Document) SetIDGenerator(gen func() string) {
	d.newID = gen
}

// Len returns the number of elements.
func (d *Document) Len() int {
	return len(d.elements)
}

// Background returns the canvas background colour.
func (d *Document) Background() string {
	return d.background
}

// SetBackground changes the canvas background colour.
func (d *Document) SetBackground(color string) {
	if color == "" {
		color = DefaultBackground
	}
	d.background = color
}

// Add inserts el with a fresh id and returns that id.
// el is copied; later changes to it do not reach the document.
// A nil element is ignored and yields an empty id.
func (d *Document) Add(el Element) string {
	if el == nil {
		return ""
	}

	el = el.clone()
	f := el.frame()
	f.ID = d.newID()
	normalize(f)

	d.elements = append(d.elements, el)

	return f.ID
}

// Update merges patch into the element with the given id.
func (d *Document) Update(id string, patch Patch) bool {
	el := d.find(id)
	if el == nil {
		return false
	}

	patch.Apply(el)

	return true
}

// Delete removes the element with the given id.
func (d *Document) Delete(id string) bool {
	idx := d.indexOf(id)
	if idx < 0 {
		return false
	}

	d.elements = append(d.elements[:idx], d.elements[idx+1:]...)

	return true
}

// Duplicate copies the element with the given id. The copy is offset by
// DuplicateOffset on both axes and placed above every existing element.
func (d *Document) Duplicate(id string) (string, bool) {
	src := d.find(id)
	if src == nil {
		return "", false
	}

	dup := src.clone()
	f := dup.frame()
	f.ID = d.newID()
	f.X += DuplicateOffset
	f.Y += DuplicateOffset
	f.ZIndex = layering.OnTop(d.elements)

	d.elements = append(d.elements, dup)

	return f.ID, true
}

// Element returns a copy of the element with the given id.
func (d *Document) Element(id string) (Element, bool) {
	el := d.find(id)
	if el == nil {
		return nil, false
	}

	return el.clone(), true
}

// Frame returns the common fields of the element with the given id.
// It does not allocate, so it is safe to call on every pointer move.
func (d *Document) Frame(id string) (Frame, bool) {
	el := d.find(id)
	if el == nil {
		return Frame{}, false
	}

	return *el.frame(), true
}

// TopZ returns the highest z value in the document, or 0 when empty.
func (d *Document) TopZ() int {
	return layering.Top(d.elements)
}

// Snapshot returns a deep copy of the element sequence in insertion order.
func (d *Document) Snapshot() Snapshot {
	return Snapshot(d.elements).Clone()
}

// Restore replaces the element sequence with a copy of s.
func (d *Document) Restore(s Snapshot) {
	d.elements = s.Clone()
}

// PaintOrder returns copies of the elements sorted for painting:
// ascending z, ties in insertion order.
func (d *Document) PaintOrder() []Element {
	out := []Element(d.Snapshot())
	layering.Sort(out)

	return out
}

// Record returns the persistable form of the document.
func (d *Document) Record(createdAt time.Time) Record {
	return Record{
		Elements:        d.Snapshot(),
		BackgroundColor: d.background,
		CreatedAt:       createdAt,
	}
}

func (d *Document) find(id string) Element {
	if idx := d.indexOf(id); idx >= 0 {
		return d.elements[idx]
	}

	return nil
}

func (d *Document) indexOf(id string) int {
	if id == "" {
		return -1
	}

	for i, el := range d.elements {
		if el.frame().ID == id {
			return i
		}
	}

	return -1
}
