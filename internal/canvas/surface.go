// Package canvas provides a fixed-size raster drawing surface with the small
// set of primitives the grid composer needs: vertical linear gradients,
// measured and filled text, scaled image blits and PNG encoding.
//
// Every primitive honours the surface-wide composite mode. SourceOver paints
// on top of existing pixels; DestinationOver paints beneath them, so an image
// blitted after a caption still ends up behind it.
package canvas

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/fonts"
)

// DataURIPrefix precedes the base64 payload returned by Encode.
const DataURIPrefix = "data:image/png;base64,"

// CompositeMode selects how a primitive blends with existing pixels.
type CompositeMode int

const (
	// SourceOver draws over everything already present.
	SourceOver CompositeMode = iota
	// DestinationOver draws underneath everything already present.
	DestinationOver
)

func (m CompositeMode) String() string {
	switch m {
	case SourceOver:
		return "source-over"
	case DestinationOver:
		return "destination-over"
	default:
		return "unknown"
	}
}

// FaceSource resolves font specs to faces.
type FaceSource interface {
	Face(spec fonts.Spec) (font.Face, error)
}

// Surface owns an RGBA buffer. Its methods are safe for concurrent use, but
// the composite mode is shared state: set it immediately before each
// primitive when several goroutines draw.
type Surface struct {
	mu    sync.Mutex
	img   *image.RGBA
	mode  CompositeMode
	src   FaceSource
	faces map[fonts.Spec]font.Face
}

// New allocates a transparent surface of width x height pixels.
func New(width, height int, src FaceSource) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "surface dimensions must be positive, got %dx%d", width, height)
	}
	return &Surface{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		src:   src,
		faces: make(map[fonts.Spec]font.Face),
	}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Image returns the underlying buffer. It must not be read while another
// goroutine is drawing.
func (s *Surface) Image() image.Image { return s.img }

// SetCompositeMode sets the mode used by subsequent primitives.
func (s *Surface) SetCompositeMode(mode CompositeMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// CompositeMode returns the current composite mode.
func (s *Surface) CompositeMode() CompositeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// paint runs fn against a draw target restricted to r. Under SourceOver fn
// draws straight onto the buffer. Under DestinationOver fn draws onto a
// scratch layer, the existing pixels are composited over that layer and the
// result replaces r.
func (s *Surface) paint(r image.Rectangle, fn func(dst draw.Image)) {
	r = r.Intersect(s.img.Rect)
	if r.Empty() {
		return
	}
	if s.mode == SourceOver {
		fn(s.img)
		return
	}
	layer := image.NewRGBA(r)
	fn(layer)
	draw.Draw(layer, r, s.img, r.Min, draw.Over)
	draw.Draw(s.img, r, layer, r.Min, draw.Src)
}

// DrawImage blits img scaled to w x h with its top-left corner at (x, y).
func (s *Surface) DrawImage(img image.Image, x, y, w, h int) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	var scaled image.Image = img
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		scaled = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	r := image.Rect(x, y, x+w, y+h)
	sp := scaled.Bounds().Min

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paint(r, func(dst draw.Image) {
		draw.Draw(dst, r, scaled, sp, draw.Over)
	})
}

// EncodePNG writes the buffer to w as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := imaging.Encode(w, s.img, imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "encode png")
	}
	return nil
}

// Encode returns the buffer as a PNG data URI.
func (s *Surface) Encode() (string, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func uniform(c color.Color) *image.Uniform {
	return image.NewUniform(c)
}
