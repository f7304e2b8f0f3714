// Package config loads runtime settings from an optional YAML file,
// COVERGRID_* environment variables and defaults, in increasing order of
// precedence: defaults < file < environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyPort              = "port"
	KeyFontDir           = "font_dir"
	KeyHTTPTimeout       = "http_timeout"
	KeyDecodeConcurrency = "decode_concurrency"
	KeyRequireSquare     = "require_square"
	KeySkipFailedImages  = "skip_failed_images"
	KeyDisplayCaptions   = "display_captions"
	KeyLogLevel          = "log_level"
	KeyImageBaseDir      = "image_base_dir"
	KeyMaxItems          = "max_items"
	KeyMaxImageBytes     = "max_image_bytes"
	KeyMaxRequestBytes   = "max_request_bytes"

	envPrefix = "COVERGRID"
)

// Resource bounds. 400 items is a 20x20 grid, a 5000px square surface.
const (
	DefaultMaxItems        = 400
	DefaultMaxImageBytes   = 20 << 20
	DefaultMaxRequestBytes = 32 << 20
)

// Config holds resolved settings.
type Config struct {
	Port              string
	FontDir           string
	HTTPTimeout       time.Duration
	DecodeConcurrency int
	RequireSquare     bool
	SkipFailedImages  bool
	DisplayCaptions   bool
	LogLevel          string
	ImageBaseDir      string
	MaxItems          int
	MaxImageBytes     int64
	MaxRequestBytes   int64
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyFontDir, "assets/fonts")
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyDecodeConcurrency, 4)
	v.SetDefault(KeyRequireSquare, false)
	v.SetDefault(KeySkipFailedImages, false)
	v.SetDefault(KeyDisplayCaptions, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyImageBaseDir, "")
	v.SetDefault(KeyMaxItems, DefaultMaxItems)
	v.SetDefault(KeyMaxImageBytes, DefaultMaxImageBytes)
	v.SetDefault(KeyMaxRequestBytes, DefaultMaxRequestBytes)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, if non-empty, into v and returns the resolved Config.
// A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Port:              v.GetString(KeyPort),
		FontDir:           v.GetString(KeyFontDir),
		HTTPTimeout:       v.GetDuration(KeyHTTPTimeout),
		DecodeConcurrency: v.GetInt(KeyDecodeConcurrency),
		RequireSquare:     v.GetBool(KeyRequireSquare),
		SkipFailedImages:  v.GetBool(KeySkipFailedImages),
		DisplayCaptions:   v.GetBool(KeyDisplayCaptions),
		LogLevel:          v.GetString(KeyLogLevel),
		ImageBaseDir:      v.GetString(KeyImageBaseDir),
		MaxItems:          v.GetInt(KeyMaxItems),
		MaxImageBytes:     v.GetInt64(KeyMaxImageBytes),
		MaxRequestBytes:   v.GetInt64(KeyMaxRequestBytes),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DecodeConcurrency < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyDecodeConcurrency, c.DecodeConcurrency)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyHTTPTimeout, c.HTTPTimeout)
	}
	if c.MaxItems < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyMaxItems, c.MaxItems)
	}
	if c.MaxImageBytes < 1 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxImageBytes, c.MaxImageBytes)
	}
	if c.MaxRequestBytes < 1 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxRequestBytes, c.MaxRequestBytes)
	}
	if c.Port == "" {
		return fmt.Errorf("%s must not be empty", KeyPort)
	}
	return nil
}
