package imagepkg

import (
	"bytes"
	"encoding/base64"
	"image"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/youruser/covergrid/internal/errors"
)

// DecodeDataURI decodes an RFC 2397 data URI holding an image. Both base64
// and percent-encoded payloads are accepted; the media type is ignored since
// the format is sniffed from the bytes.
func DecodeDataURI(ref string) (image.Image, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, errors.New(errors.ErrCodeDecode, "not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeDecode, "data uri has no payload")
	}

	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "data uri payload")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode data uri")
	}
	return img, nil
}
