// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify estimates the information content of extracted images so
// that decorative ones never reach the annotation model and charts get the
// structured prompt.
package classify

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// sampleGrid is the number of sample points per axis in a pixel scan.
const sampleGrid = 64

// nearWhite is the 8-bit channel floor for a background pixel.
const nearWhite = 235

// Classifier applies the size and pixel heuristics in cfg.
type Classifier struct {
	cfg types.ClassifierConfig
}

// New returns a Classifier using cfg.
func New(cfg types.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Stats summarizes a sampled pixel scan.
type Stats struct {
	Samples         int
	BackgroundRatio float64
	Palette         int
}

// Classify returns the content class of img. Size rules decide decorative
// images without decoding; the pixel scan separates data-rich from simple
// and catches uniform fills. Images whose header exceeds MaxScanPixels are
// never decoded. Anything undecidable is simple.
func (c *Classifier) Classify(img types.ImageData) types.ContentClass {
	hdr, _, hdrErr := image.DecodeConfig(bytes.NewReader(img.Data))
	w, h := img.Width, img.Height
	if (w <= 0 || h <= 0) && hdrErr == nil {
		w, h = hdr.Width, hdr.Height
	}

	if c.isDecorative(len(img.Data), w, h) {
		return types.ClassDecorative
	}
	if hdrErr != nil || w*h < c.cfg.DataRichMinArea {
		return types.ClassSimple
	}

	st, err := Scan(img.Data, c.cfg.MaxScanPixels)
	if err != nil || st.Samples == 0 {
		return types.ClassSimple
	}
	if st.Palette < c.cfg.MinPalette {
		return types.ClassDecorative
	}
	if st.BackgroundRatio >= c.cfg.BackgroundRatio && st.Palette <= c.cfg.MaxPalette {
		return types.ClassDataRich
	}
	return types.ClassSimple
}

// ClassifyBySize applies only the byte and dimension rules: the result is
// decorative or simple and img.Data is never decoded.
func (c *Classifier) ClassifyBySize(img types.ImageData) types.ContentClass {
	if c.isDecorative(len(img.Data), img.Width, img.Height) {
		return types.ClassDecorative
	}
	return types.ClassSimple
}

func (c *Classifier) isDecorative(size, w, h int) bool {
	if size > 0 && size < c.cfg.MinBytes {
		return true
	}
	if w <= 0 || h <= 0 {
		return false
	}
	if w*h < c.cfg.MinPixelArea {
		return true
	}
	long, short := w, h
	if short > long {
		long, short = short, long
	}
	return c.cfg.MaxAspectRatio > 0 && float64(long)/float64(short) > c.cfg.MaxAspectRatio
}

// ErrTooLarge reports an image whose header exceeds the scan pixel cap.
var ErrTooLarge = errors.New("image too large to scan")

// Scan decodes data and samples a sampleGrid x sampleGrid lattice of pixels,
// reporting the share of near-white samples and the size of the palette
// quantized to 3 bits per channel. Images whose header declares more than
// maxPixels pixels are rejected before decoding; zero disables the check.
func Scan(data []byte, maxPixels int) (Stats, error) {
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Stats{}, err
	}
	if maxPixels > 0 && hdr.Width*hdr.Height > maxPixels {
		return Stats{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, hdr.Width, hdr.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Stats{}, err
	}

	b := img.Bounds()
	stepX := max(b.Dx()/sampleGrid, 1)
	stepY := max(b.Dy()/sampleGrid, 1)

	palette := make(map[uint32]struct{})
	var st Stats
	background := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := r>>8, g>>8, bl>>8
			if r8 >= nearWhite && g8 >= nearWhite && b8 >= nearWhite {
				background++
			}
			palette[(r8>>5)<<6|(g8>>5)<<3|b8>>5] = struct{}{}
			st.Samples++
		}
	}
	if st.Samples > 0 {
		st.BackgroundRatio = float64(background) / float64(st.Samples)
	}
	st.Palette = len(palette)
	return st, nil
}
