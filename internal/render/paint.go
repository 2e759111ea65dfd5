package render

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/serroba/design-studio/internal/canvas"
)

const lineSpacing = 1.2

var (
	black       = color.NRGBA{A: 255}
	placeholder = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 255}
	placeMark   = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 255}
)

// painter draws one element kind at a time onto dc.
type painter struct {
	dc     *gg.Context
	faces  *faceCache
	images ImageLoader
	logger *slog.Logger
	offX   float64
	offY   float64
}

func (p *painter) box(f canvas.Frame) (x, y, w, h float64) {
	return f.X + p.offX, f.Y + p.offY, f.Width, f.Height
}

func (p *painter) VisitShape(s *canvas.Shape) {
	x, y, w, h := p.box(s.Frame)
	dc := p.dc

	switch s.ShapeKind {
	case canvas.ShapeCircle:
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	case canvas.ShapeRounded:
		dc.DrawRoundedRectangle(x, y, w, h, math.Min(w, h)*0.15)
	case canvas.ShapeTriangle:
		dc.MoveTo(x+w/2, y)
		dc.LineTo(x+w, y+h)
		dc.LineTo(x, y+h)
		dc.ClosePath()
	default:
		dc.DrawRectangle(x, y, w, h)
	}

	dc.SetColor(ParseColor(s.Color, s.Opacity, black))
	dc.Fill()
}

func (p *painter) VisitText(t *canvas.Text) {
	x, y, w, h := p.box(t.Frame)
	dc := p.dc

	size := t.FontSize
	if size <= 0 {
		size = 16
	}

	dc.Push()
	defer dc.Pop()

	dc.DrawRectangle(x, y, w, h)
	dc.Clip()
	defer dc.ResetClip()

	dc.SetFontFace(p.faces.face(styleFor(t.FontFamily, t.FontWeight, t.FontStyle), size))
	dc.SetColor(ParseColor(t.Color, t.Opacity, black))
	dc.SetLineWidth(math.Max(1, size/15))

	lineHeight := size * lineSpacing

	var lines []string
	for _, para := range strings.Split(t.Content, "\n") {
		lines = append(lines, dc.WordWrap(para, w)...)
	}

	for i, line := range lines {
		tw, _ := dc.MeasureString(line)

		lx := x
		switch t.TextAlign {
		case "center":
			lx = x + (w-tw)/2
		case "right":
			lx = x + w - tw
		}

		baseline := y + float64(i)*lineHeight + size
		dc.DrawString(line, lx, baseline)

		switch t.TextDecoration {
		case "underline":
			dc.DrawLine(lx, baseline+size*0.12, lx+tw, baseline+size*0.12)
			dc.Stroke()
		case "line-through":
			dc.DrawLine(lx, baseline-size*0.3, lx+tw, baseline-size*0.3)
			dc.Stroke()
		}
	}
}

func (p *painter) VisitImage(im *canvas.Image) {
	x, y, w, h := p.box(im.Frame)

	src, err := p.images(im.Source)
	if err != nil {
		p.logger.Debug("image source unavailable, drawing placeholder", "element_id", im.ID, "error", err)
		p.placeholder(x, y, w, h, im.Opacity)

		return
	}

	dst, ok := p.dc.Image().(*image.RGBA)
	if !ok {
		return
	}

	rect := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	alpha := uint8(clamp01(im.Opacity)*255 + 0.5)

	xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Over, &xdraw.Options{
		SrcMask: image.NewUniform(color.Alpha{A: alpha}),
	})
}

// placeholder marks an image that could not be loaded.
func (p *painter) placeholder(x, y, w, h, opacity float64) {
	dc := p.dc

	dc.DrawRectangle(x, y, w, h)
	dc.SetColor(ParseColor("", opacity, placeholder))
	dc.Fill()

	dc.SetLineWidth(2)
	dc.SetColor(ParseColor("", opacity, placeMark))
	dc.DrawLine(x, y, x+w, y+h)
	dc.DrawLine(x+w, y, x, y+h)
	dc.Stroke()
}
