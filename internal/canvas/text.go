package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/fonts"
)

// face returns a cached face for spec. Callers hold s.mu.
func (s *Surface) face(spec fonts.Spec) (font.Face, error) {
	if f, ok := s.faces[spec]; ok {
		return f, nil
	}
	if s.src == nil {
		return nil, errors.New(errors.ErrCodeInternal, "surface has no font source")
	}
	f, err := s.src.Face(spec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "resolve font %s", spec.Family)
	}
	s.faces[spec] = f
	return f, nil
}

// MeasureText returns the advance width of text in pixels.
func (s *Surface) MeasureText(text string, spec fonts.Spec) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.face(spec)
	if err != nil {
		return 0, err
	}
	return fromFixed(font.MeasureString(f, text)), nil
}

// FillText draws text with its baseline origin at (x, y).
func (s *Surface) FillText(text string, x, y float64, spec fonts.Spec, c color.Color) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.face(spec)
	if err != nil {
		return err
	}

	dot := fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
	bounds, _ := font.BoundString(f, text)
	r := image.Rect(
		(dot.X + bounds.Min.X).Floor(),
		(dot.Y + bounds.Min.Y).Floor(),
		(dot.X + bounds.Max.X).Ceil(),
		(dot.Y + bounds.Max.Y).Ceil(),
	)
	s.paint(r, func(dst draw.Image) {
		d := font.Drawer{Dst: dst, Src: uniform(c), Face: f, Dot: dot}
		d.DrawString(text)
	})
	return nil
}
