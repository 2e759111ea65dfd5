// Package render projects a design record onto a raster image.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/fogleman/gg"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/layering"
)

// Config holds configuration for creating a projector.
type Config struct {
	// Width and Height fix the output size with the document origin at the
	// top-left pixel. When either is zero the output is fitted to the
	// elements plus Padding on every side.
	Width   int
	Height  int
	Padding float64
	// Images loads image element sources. Defaults to LoadDataURL.
	Images ImageLoader
	Logger *slog.Logger
}

// Projector renders records. It is safe for concurrent use.
type Projector struct {
	width   int
	height  int
	padding float64
	images  ImageLoader
	fonts   fontSet
	logger  *slog.Logger
}

// NewProjector parses the bundled fonts and returns a projector.
func NewProjector(cfg Config) (*Projector, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}

	images := cfg.Images
	if images == nil {
		images = LoadDataURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Projector{
		width:   cfg.Width,
		height:  cfg.Height,
		padding: math.Max(0, cfg.Padding),
		images:  images,
		fonts:   fonts,
		logger:  logger,
	}, nil
}

// Render paints rec in paint order: ascending z, ties by insertion order.
// Selection is never drawn.
func (p *Projector) Render(rec canvas.Record) image.Image {
	return p.draw(rec).Image()
}

// WritePNG renders rec and encodes it as PNG.
func (p *Projector) WritePNG(w io.Writer, rec canvas.Record) error {
	if err := p.draw(rec).EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	return nil
}

func (p *Projector) draw(rec canvas.Record) *gg.Context {
	elements := append([]canvas.Element(nil), rec.Elements...)
	layering.Sort(elements)

	width, height, offX, offY := p.layout(elements)

	dc := gg.NewContext(width, height)
	dc.SetColor(ParseColor(rec.BackgroundColor, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	dc.Clear()

	faces := newFaceCache(p.fonts)
	defer faces.close()

	pt := &painter{dc: dc, faces: faces, images: p.images, logger: p.logger, offX: offX, offY: offY}
	for _, el := range elements {
		canvas.Visit(el, pt)
	}

	return dc
}

// layout returns the output size and the offset added to document
// coordinates.
func (p *Projector) layout(elements []canvas.Element) (width, height int, offX, offY float64) {
	if p.width > 0 && p.height > 0 {
		return p.width, p.height, 0, 0
	}

	if len(elements) == 0 {
		side := max(1, int(math.Ceil(2*p.padding)))

		return side, side, p.padding, p.padding
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, el := range elements {
		f := canvas.FrameOf(el)
		minX = math.Min(minX, f.X)
		minY = math.Min(minY, f.Y)
		maxX = math.Max(maxX, f.Right())
		maxY = math.Max(maxY, f.Bottom())
	}

	width = max(1, int(math.Ceil(maxX-minX+2*p.padding)))
	height = max(1, int(math.Ceil(maxY-minY+2*p.padding)))

	return width, height, p.padding - minX, p.padding - minY
}
