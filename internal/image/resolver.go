// Package imagepkg resolves cover image references to decoded rasters.
//
// A reference is one of:
//
//	data:image/png;base64,...   inline bytes
//	https://host/cover.jpg      fetched over HTTP
//	qr:some text                a generated QR code placeholder
//	covers/a.png                a local file under Resolver.BaseDir
package imagepkg

import (
	"context"
	stderrors "errors"
	"image"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/youruser/covergrid/internal/errors"
)

// DefaultQRSize is the edge length of generated QR placeholders. The
// surface rescales them to the cell size anyway.
const DefaultQRSize = 256

// DefaultMaxBytes caps a fetched or opened cover when Resolver.MaxBytes is
// unset.
const DefaultMaxBytes = 20 << 20

// Resolver decodes image references. The zero value is usable.
type Resolver struct {
	// Client fetches remote references. nil uses a client with
	// util.DefaultTimeout.
	Client *http.Client
	// BaseDir confines file references: relative references resolve under
	// it, and absolute references or ones that climb out of it with ".."
	// are rejected.
	BaseDir string
	// WorkDir anchors relative file references when BaseDir is empty,
	// without confining them. Empty means the process working directory.
	WorkDir string
	// MaxBytes overrides DefaultMaxBytes when positive.
	MaxBytes int64
	// QRSize overrides DefaultQRSize when positive.
	QRSize int
	// DisableFiles rejects local file references, for callers serving
	// untrusted input.
	DisableFiles bool
}

// Decode resolves ref to an image.
func (r *Resolver) Decode(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case ref == "":
		return nil, errors.New(errors.ErrCodeDecode, "empty image reference")
	case strings.HasPrefix(ref, "data:"):
		return DecodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return DownloadImage(ctx, r.Client, ref, r.maxBytes())
	case strings.HasPrefix(ref, "qr:"):
		size := r.QRSize
		if size <= 0 {
			size = DefaultQRSize
		}
		return GenerateQRImage(strings.TrimPrefix(ref, "qr:"), size)
	case r.DisableFiles:
		return nil, errors.New(errors.ErrCodeInvalidInput, "file references are disabled: %q", ref)
	default:
		return r.open(ref)
	}
}

func (r *Resolver) maxBytes() int64 {
	if r.MaxBytes > 0 {
		return r.MaxBytes
	}
	return DefaultMaxBytes
}

// path maps a file reference to the path to open.
func (r *Resolver) path(ref string) (string, error) {
	if r.BaseDir == "" {
		if r.WorkDir != "" && !filepath.IsAbs(ref) {
			return filepath.Join(r.WorkDir, ref), nil
		}
		return ref, nil
	}
	if filepath.IsAbs(ref) || filepath.VolumeName(ref) != "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "absolute file reference %q outside image directory", ref)
	}
	path := filepath.Join(r.BaseDir, ref)
	rel, err := filepath.Rel(r.BaseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeInvalidInput, "file reference %q escapes image directory", ref)
	}
	return path, nil
}

func (r *Resolver) open(ref string) (image.Image, error) {
	path, err := r.path(ref)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", ref)
		}
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "open %s", ref)
	}
	if limit := r.maxBytes(); info.Size() > limit {
		return nil, errors.Wrap(errors.ErrCodeDecode,
			errors.New(errors.ErrCodeTooLarge, "cover over %d bytes", limit), "open %s", ref)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", ref)
		}
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", ref)
	}
	return img, nil
}
