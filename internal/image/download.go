package imagepkg

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/util"
)

// DownloadImage downloads an image of at most limit bytes from url and
// decodes it. A limit of zero or less means no cap.
func DownloadImage(ctx context.Context, client *http.Client, url string, limit int64) (image.Image, error) {
	body, err := util.GetBytes(ctx, client, url, limit)
	if err != nil {
		var se *util.SizeError
		if stderrors.As(err, &se) {
			return nil, errors.Wrap(errors.ErrCodeDecode,
				errors.Wrap(errors.ErrCodeTooLarge, err, "cover over %d bytes", se.Limit), "download %s", url)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "download %s", url)
	}
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", url)
	}
	return img, nil
}
