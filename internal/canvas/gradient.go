package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/youruser/covergrid/internal/errors"
)

// ColorStop is one stop of a linear gradient. Offset is in [0, 1].
type ColorStop struct {
	Offset float64
	Color  color.NRGBA
}

// FillLinearGradient fills the rectangle at (x, y) of size w x h with a
// gradient running from its top edge to its bottom edge.
func (s *Surface) FillLinearGradient(x, y, w, h int, stops []ColorStop) error {
	if err := validateStops(stops); err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	r := image.Rect(x, y, x+w, y+h)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paint(r, func(dst draw.Image) {
		for py := r.Min.Y; py < r.Max.Y; py++ {
			// Sample at the pixel centre.
			c := colorAt(stops, (float64(py-y)+0.5)/float64(h))
			if c.A == 0 {
				continue
			}
			row := image.Rect(r.Min.X, py, r.Max.X, py+1)
			draw.Draw(dst, row, uniform(c), image.Point{}, draw.Over)
		}
	})
	return nil
}

func validateStops(stops []ColorStop) error {
	if len(stops) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gradient needs at least one stop")
	}
	prev := 0.0
	for i, st := range stops {
		if st.Offset < 0 || st.Offset > 1 || math.IsNaN(st.Offset) {
			return errors.New(errors.ErrCodeInvalidInput, "gradient stop %d offset %v outside [0,1]", i, st.Offset)
		}
		if st.Offset < prev {
			return errors.New(errors.ErrCodeInvalidInput, "gradient stop %d offset %v decreases", i, st.Offset)
		}
		prev = st.Offset
	}
	return nil
}

// colorAt returns the gradient color at t. Stops must already be validated.
func colorAt(stops []ColorStop, t float64) color.NRGBA {
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		f := (t - a.Offset) / span
		return color.NRGBA{
			R: lerp(a.Color.R, b.Color.R, f),
			G: lerp(a.Color.G, b.Color.G, f),
			B: lerp(a.Color.B, b.Color.B, f),
			A: lerp(a.Color.A, b.Color.A, f),
		}
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
