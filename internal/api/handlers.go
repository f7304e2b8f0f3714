package api

import (
	"bytes"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/youruser/covergrid/internal/canvas"
	"github.com/youruser/covergrid/internal/config"
	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/grid"
	"github.com/youruser/covergrid/internal/items"
)

// Handler serves grid renders.
type Handler struct {
	Decoder grid.Decoder
	Fonts   canvas.FaceSource
	Config  *config.Config
	Logger  *log.Logger
}

func (h *Handler) logger() *log.Logger {
	if h.Logger == nil {
		return log.New(io.Discard)
	}
	return h.Logger
}

type gridRequest struct {
	Items           []items.Item `json:"items"`
	DisplayCaptions *bool        `json:"display_captions"`
}

type gridResponse struct {
	Image string `json:"image"`
	Side  int    `json:"side"`
	Size  int    `json:"size"`
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// gridHandler returns the composed grid as a PNG data URI.
func (h *Handler) gridHandler(c *gin.Context) {
	comp, ok := h.composer(c)
	if !ok {
		return
	}
	uri, err := comp.Render(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gridResponse{Image: uri, Side: comp.Side(), Size: comp.Size()})
}

// gridPNGHandler returns the composed grid as raw PNG bytes.
func (h *Handler) gridPNGHandler(c *gin.Context) {
	comp, ok := h.composer(c)
	if !ok {
		return
	}
	buf := new(bytes.Buffer)
	if err := comp.RenderPNG(c.Request.Context(), buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) settings() *config.Config {
	if h.Config != nil {
		return h.Config
	}
	return &config.Config{
		DisplayCaptions:   true,
		DecodeConcurrency: grid.DefaultConcurrency,
		MaxItems:          config.DefaultMaxItems,
		MaxImageBytes:     config.DefaultMaxImageBytes,
		MaxRequestBytes:   config.DefaultMaxRequestBytes,
	}
}

// composer binds the request body and builds a composer for it. On failure
// it writes the error response and returns false.
func (h *Handler) composer(c *gin.Context) (*grid.Composer, bool) {
	cfg := h.settings()
	if cfg.MaxRequestBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxRequestBytes)
	}

	var req gridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.fail(c, errors.Wrap(errors.ErrCodeTooLarge, err, "request body over %d bytes", tooLarge.Limit))
		} else {
			h.fail(c, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body"))
		}
		return nil, false
	}
	if cfg.MaxItems > 0 && len(req.Items) > cfg.MaxItems {
		h.fail(c, errors.New(errors.ErrCodeInvalidInput, "%d items exceed the limit of %d", len(req.Items), cfg.MaxItems))
		return nil, false
	}

	captions := cfg.DisplayCaptions
	if req.DisplayCaptions != nil {
		captions = *req.DisplayCaptions
	}

	comp, err := grid.New(req.Items, h.Decoder, h.Fonts,
		grid.WithCaptions(captions),
		grid.WithRequireSquare(cfg.RequireSquare),
		grid.WithSkipFailedImages(cfg.SkipFailedImages),
		grid.WithConcurrency(cfg.DecodeConcurrency),
		grid.WithLogger(requestLog(c, h.logger())),
	)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return comp, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	logger := requestLog(c, h.logger())
	switch {
	case errors.IsContext(err):
		logger.Info("render abandoned", "err", err)
	case status >= http.StatusInternalServerError:
		logger.Error("render failed", "err", err)
	default:
		logger.Warn("render rejected", "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": errors.UserMessage(err),
		"code":  errors.GetCode(err),
	})
}
