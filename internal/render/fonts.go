package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontStyle selects one of the bundled Go fonts.
type fontStyle struct {
	mono   bool
	bold   bool
	italic bool
}

// fontSet holds the parsed bundled fonts. Parsed fonts are safe to share;
// faces are not, so faces are created per render.
type fontSet map[fontStyle]*truetype.Font

func loadFonts() (fontSet, error) {
	sources := map[fontStyle][]byte{
		{}:                         goregular.TTF,
		{bold: true}:               gobold.TTF,
		{italic: true}:             goitalic.TTF,
		{bold: true, italic: true}: gobolditalic.TTF,
		{mono: true}:               gomono.TTF,
		{mono: true, bold: true}:   gomonobold.TTF,
	}

	set := make(fontSet, len(sources))

	for style, ttf := range sources {
		f, err := truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %+v: %w", style, err)
		}

		set[style] = f
	}

	return set, nil
}

// styleFor maps CSS-like text properties onto a bundled font.
func styleFor(family, weight, style string) fontStyle {
	fs := fontStyle{
		mono:   strings.Contains(strings.ToLower(family), "mono"),
		bold:   isBold(weight),
		italic: style == "italic" || style == "oblique",
	}

	if fs.mono {
		fs.italic = false
	}

	return fs
}

func isBold(weight string) bool {
	switch weight {
	case "bold", "bolder":
		return true
	}

	n, err := strconv.Atoi(weight)

	return err == nil && n >= 600
}

type faceKey struct {
	style fontStyle
	size  float64
}

// faceCache builds faces lazily for one render.
type faceCache struct {
	fonts fontSet
	faces map[faceKey]font.Face
}

func newFaceCache(fonts fontSet) *faceCache {
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(style fontStyle, size float64) font.Face {
	if size <= 0 {
		size = 16
	}

	key := faceKey{style: style, size: size}
	if f, ok := c.faces[key]; ok {
		return f
	}

	f := truetype.NewFace(c.fonts[style], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	c.faces[key] = f

	return f
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}
