// Package fonts registers the condensed font faces used for captions.
//
// Registration is a one-time process-wide step performed by the entry point
// before any surface is created. Missing font files fall back to the Go fonts
// embedded in golang.org/x/image, so rendering never depends on the
// filesystem being populated.
package fonts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Logical family names the captions refer to.
const (
	FamilyBold    = "RobotoCondensed-Bold"
	FamilyLight   = "RobotoCondensed-Light"
	FamilyRegular = "RobotoCondensed"
)

// Weight selects a fallback family when a requested family is unknown.
type Weight int

const (
	WeightRegular Weight = iota
	WeightLight
	WeightBold
)

// Spec describes a face: logical family, weight and pixel size.
type Spec struct {
	Family string
	Weight Weight
	Size   float64
}

// files maps each family to the file name expected in the font directory
// and the embedded face used when that file cannot be loaded.
var files = []struct {
	family   string
	file     string
	fallback []byte
}{
	{FamilyBold, "RobotoCondensed-Bold.ttf", gobold.TTF},
	{FamilyLight, "RobotoCondensed-Light.ttf", goregular.TTF},
	{FamilyRegular, "RobotoCondensed-Regular.ttf", goregular.TTF},
}

// Set holds parsed fonts keyed by family. A Set is safe for concurrent use;
// every Face call returns a new face since opentype faces are not.
type Set struct {
	mu    sync.RWMutex
	fonts map[string]*opentype.Font
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{fonts: make(map[string]*opentype.Font)}
}

// Add parses ttf and registers it under family, replacing any previous font.
func (s *Set) Add(family string, ttf []byte) error {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	s.mu.Lock()
	s.fonts[family] = f
	s.mu.Unlock()
	return nil
}

// Has reports whether family is registered.
func (s *Set) Has(family string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.fonts[family]
	return ok
}

// Face returns a face for spec. An unknown family resolves to the family
// registered for spec.Weight.
func (s *Set) Face(spec Spec) (font.Face, error) {
	if spec.Size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", spec.Size)
	}

	s.mu.RLock()
	f, ok := s.fonts[spec.Family]
	if !ok {
		f, ok = s.fonts[fallbackFamily(spec.Weight)]
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("font family %q not registered", spec.Family)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s at %vpx: %w", spec.Family, spec.Size, err)
	}
	return face, nil
}

func fallbackFamily(w Weight) string {
	switch w {
	case WeightBold:
		return FamilyBold
	case WeightLight:
		return FamilyLight
	default:
		return FamilyRegular
	}
}

// Load builds a Set from the font files in dir, falling back to the embedded
// Go fonts for any file that is missing or unparsable.
func Load(dir string, logger *log.Logger) *Set {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := NewSet()
	for _, f := range files {
		if dir != "" {
			path := filepath.Join(dir, f.file)
			data, err := os.ReadFile(path)
			if err == nil {
				err = s.Add(f.family, data)
			}
			if err == nil {
				logger.Debug("registered font", "family", f.family, "path", path)
				continue
			}
			logger.Warn("font unavailable, using embedded fallback", "family", f.family, "err", err)
		}
		// The embedded fonts are known-good.
		if err := s.Add(f.family, f.fallback); err != nil {
			panic(err)
		}
	}
	return s
}

var (
	registered   *Set
	registerOnce sync.Once
	embeddedSet  *Set
	embeddedOnce sync.Once
)

// Register loads the process-wide font set from dir. Only the first call
// does any work; later calls return the same Set regardless of dir.
func Register(dir string, logger *log.Logger) *Set {
	registerOnce.Do(func() {
		registered = Load(dir, logger)
	})
	return registered
}

// Default returns a Set made only of the embedded fonts. It never touches
// the filesystem.
func Default() *Set {
	embeddedOnce.Do(func() {
		embeddedSet = Load("", nil)
	})
	return embeddedSet
}
