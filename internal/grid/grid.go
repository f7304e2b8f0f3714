// Package grid lays cover items out in a square grid and drives a canvas
// surface to compose them.
//
// Drawing happens in two passes. The captions pass paints a gradient and
// auto-fitted title and description per cell with source-over. The images
// pass then blits every cover with destination-over, which slides it beneath
// the captions already on the surface. Because image blits are pixel-disjoint
// their order does not matter, so decodes run concurrently.
package grid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/covergrid/internal/canvas"
	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/fonts"
	"github.com/youruser/covergrid/internal/items"
)

// Layout constants.
const (
	CoverSize           = 250
	TitleFontSize       = 16
	DescriptionFontSize = 14
	MinFontSize         = 2

	textInset      = 5
	descriptionGap = 20

	// DefaultConcurrency bounds concurrent image decodes.
	DefaultConcurrency = 4
)

var (
	titleColor       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	descriptionColor = color.NRGBA{R: 240, G: 240, B: 240, A: 255}

	// captionGradient darkens the top of a cell behind the captions.
	captionGradient = []canvas.ColorStop{
		{Offset: 0, Color: color.NRGBA{A: 128}},
		{Offset: 0.1, Color: color.NRGBA{A: 102}},
		{Offset: 0.28, Color: color.NRGBA{A: 0}},
	}

	titleFont       = fonts.Spec{Family: fonts.FamilyBold, Weight: fonts.WeightBold}
	descriptionFont = fonts.Spec{Family: fonts.FamilyRegular, Weight: fonts.WeightBold}
)

// Decoder resolves an image reference to a raster.
type Decoder interface {
	Decode(ctx context.Context, ref string) (image.Image, error)
}

// Surface is the set of drawing primitives the composer issues.
// *canvas.Surface implements it.
type Surface interface {
	SetCompositeMode(mode canvas.CompositeMode)
	FillLinearGradient(x, y, w, h int, stops []canvas.ColorStop) error
	MeasureText(text string, spec fonts.Spec) (float64, error)
	FillText(text string, x, y float64, spec fonts.Spec, c color.Color) error
	DrawImage(img image.Image, x, y, w, h int)
}

var _ Surface = (*canvas.Surface)(nil)

// Cell is one grid position.
type Cell struct {
	Index int
	Row   int
	Col   int
	X     int
	Y     int
	Size  int
}

// Composer composes a fixed list of items.
type Composer struct {
	items   []items.Item
	side    int
	decoder Decoder
	faces   canvas.FaceSource

	captions      bool
	requireSquare bool
	skipFailed    bool
	concurrency   int
	logger        *log.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithCaptions toggles the gradient and text pass. Captions are on by default.
func WithCaptions(on bool) Option {
	return func(c *Composer) { c.captions = on }
}

// WithRequireSquare rejects item counts that are not perfect squares instead
// of dropping the trailing items.
func WithRequireSquare(on bool) Option {
	return func(c *Composer) { c.requireSquare = on }
}

// WithSkipFailedImages leaves a cell transparent, with a warning, when its
// image cannot be decoded. By default a decode failure fails the render.
func WithSkipFailedImages(on bool) Option {
	return func(c *Composer) { c.skipFailed = on }
}

// WithConcurrency bounds concurrent decodes. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(c *Composer) { c.concurrency = max(n, 1) }
}

// WithLogger sets the logger. nil keeps the default discard logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates list and returns a Composer over its first side² items,
// where side is the integer square root of len(list).
func New(list []items.Item, decoder Decoder, faces canvas.FaceSource, opts ...Option) (*Composer, error) {
	c := &Composer{
		decoder:     decoder,
		faces:       faces,
		captions:    true,
		concurrency: DefaultConcurrency,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(list) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no items to compose")
	}
	if decoder == nil {
		return nil, errors.New(errors.ErrCodeInternal, "composer needs an image decoder")
	}

	side := isqrt(len(list))
	if n := side * side; n != len(list) {
		if c.requireSquare {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"item count %d is not a perfect square (nearest %d or %d)", len(list), n, (side+1)*(side+1))
		}
		c.logger.Warn("item count is not a perfect square, dropping trailing items",
			"items", len(list), "side", side, "dropped", len(list)-n)
	}

	c.side = side
	c.items = append([]items.Item(nil), list[:side*side]...)
	return c, nil
}

// isqrt returns floor(sqrt(n)) for n >= 0.
func isqrt(n int) int {
	x := 0
	for (x+1)*(x+1) <= n {
		x++
	}
	return x
}

// Side returns the number of cells per row and per column.
func (c *Composer) Side() int { return c.side }

// Size returns the surface edge length in pixels.
func (c *Composer) Size() int { return c.side * CoverSize }

// Items returns the items that will be drawn, in cell order.
func (c *Composer) Items() []items.Item {
	return append([]items.Item(nil), c.items...)
}

// Cells returns every cell in row-major order.
func (c *Composer) Cells() []Cell {
	cells := make([]Cell, 0, c.side*c.side)
	for row := 0; row < c.side; row++ {
		for col := 0; col < c.side; col++ {
			cells = append(cells, Cell{
				Index: row*c.side + col,
				Row:   row,
				Col:   col,
				X:     col * CoverSize,
				Y:     row * CoverSize,
				Size:  CoverSize,
			})
		}
	}
	return cells
}

// Draw issues the captions pass, then the images pass, against s. The two
// passes never interleave.
func (c *Composer) Draw(ctx context.Context, s Surface) error {
	if c.captions {
		if err := c.drawCaptions(s); err != nil {
			return err
		}
	}
	return c.drawImages(ctx, s)
}

// Render composes the grid on a new surface and returns it as a PNG data URI.
func (c *Composer) Render(ctx context.Context) (string, error) {
	s, err := c.compose(ctx)
	if err != nil {
		return "", err
	}
	return s.Encode()
}

// RenderPNG composes the grid on a new surface and writes it to w as PNG.
func (c *Composer) RenderPNG(ctx context.Context, w io.Writer) error {
	s, err := c.compose(ctx)
	if err != nil {
		return err
	}
	return s.EncodePNG(w)
}

func (c *Composer) compose(ctx context.Context) (*canvas.Surface, error) {
	start := time.Now()
	s, err := canvas.New(c.Size(), c.Size(), c.faces)
	if err != nil {
		return nil, err
	}
	if err := c.Draw(ctx, s); err != nil {
		return nil, err
	}
	c.logger.Debug("composed grid", "side", c.side, "size", c.Size(), "captions", c.captions, "elapsed", time.Since(start))
	return s, nil
}

func (c *Composer) drawCaptions(s Surface) error {
	for _, cell := range c.Cells() {
		it := c.items[cell.Index]

		s.SetCompositeMode(canvas.SourceOver)
		if err := s.FillLinearGradient(cell.X, cell.Y, CoverSize, CoverSize, captionGradient); err != nil {
			return err
		}
		if it.Title != "" {
			if _, err := addTitle(s, it.Title, cell); err != nil {
				return err
			}
		}
		if it.Description != "" {
			if _, err := addDescription(s, it.Description, cell); err != nil {
				return err
			}
		}
	}
	return nil
}

func addTitle(s Surface, text string, cell Cell) (int, error) {
	return addScalableText(s, text,
		float64(cell.X+textInset),
		float64(cell.Y+textInset+TitleFontSize),
		CoverSize-2*textInset,
		titleFont, TitleFontSize, titleColor)
}

func addDescription(s Surface, text string, cell Cell) (int, error) {
	return addScalableText(s, text,
		float64(cell.X+textInset),
		float64(cell.Y+textInset+descriptionGap+DescriptionFontSize),
		CoverSize-2*textInset,
		descriptionFont, DescriptionFontSize, descriptionColor)
}

// addScalableText draws text at the largest size from startSize down to
// MinFontSize that fits maxWidth, shrinking one pixel at a time. Text still
// too wide at MinFontSize is drawn overflowing. It returns the size used.
func addScalableText(s Surface, text string, x, y, maxWidth float64, spec fonts.Spec, startSize int, col color.Color) (int, error) {
	size := startSize
	spec.Size = float64(size)
	width, err := s.MeasureText(text, spec)
	if err != nil {
		return 0, err
	}
	for width > maxWidth && size > MinFontSize {
		size--
		spec.Size = float64(size)
		if width, err = s.MeasureText(text, spec); err != nil {
			return 0, err
		}
	}
	return size, s.FillText(text, x, y, spec, col)
}

func (c *Composer) drawImages(ctx context.Context, s Surface) error {
	cells := c.Cells()
	decoded := make([]image.Image, len(cells))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, cell := range cells {
		cell := cell
		g.Go(func() error {
			ref := c.items[cell.Index].Image
			img, err := c.decoder.Decode(gctx, ref)
			if err == nil {
				decoded[cell.Index] = img
				return nil
			}
			if errors.IsContext(err) {
				return err
			}
			if c.skipFailed {
				c.logger.Warn("image unavailable, leaving cell blank", "cell", cell.Index, "ref", ref, "err", err)
				return nil
			}
			if errors.GetCode(err) == "" {
				return errors.Wrap(errors.ErrCodeDecode, err, "cell %d", cell.Index)
			}
			return fmt.Errorf("cell %d: %w", cell.Index, err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, cell := range cells {
		img := decoded[cell.Index]
		if img == nil {
			continue
		}
		s.SetCompositeMode(canvas.DestinationOver)
		s.DrawImage(img, cell.X, cell.Y, CoverSize, CoverSize)
	}
	return nil
}
