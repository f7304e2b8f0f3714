package imagepkg

import (
	"image"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/youruser/covergrid/internal/errors"
)

// GenerateQRImage returns a size x size QR code encoding text.
func GenerateQRImage(text string, size int) (image.Image, error) {
	if text == "" {
		return nil, errors.New(errors.ErrCodeDecode, "qr reference has no content")
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "encode qr %q", text)
	}
	return q.Image(size), nil
}
