package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/url"
	"strings"

	_ "golang.org/x/image/webp" // register decoder
)

// ErrUnsupportedSource is returned for image sources the loader cannot read.
var ErrUnsupportedSource = errors.New("unsupported image source")

// ImageLoader turns an image element's source into pixels.
type ImageLoader func(src string) (image.Image, error)

// LoadDataURL decodes "data:" URLs holding PNG, JPEG, GIF or WebP data.
// Other sources yield ErrUnsupportedSource.
func LoadDataURL(src string) (image.Image, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: %.32q", ErrUnsupportedSource, src)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URL", ErrUnsupportedSource)
	}

	var data []byte

	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		data = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}
