// Package cli holds the wiring shared by the server and render binaries:
// logger construction, config loading and service assembly.
package cli

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/youruser/covergrid/internal/config"
	"github.com/youruser/covergrid/internal/fonts"
	imagepkg "github.com/youruser/covergrid/internal/image"
)

// CLI holds shared state for a command tree.
type CLI struct {
	Logger *log.Logger
	Viper  *viper.Viper

	configFile string
	verbose    bool
}

// New creates a CLI whose logger writes to w.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
		}),
		Viper: config.NewViper(),
	}
}

// AddPersistentFlags installs --config and --verbose on cmd.
func (c *CLI) AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
}

// LoadConfig resolves configuration and applies the log level.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Viper, c.configFile)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		c.Logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)
	return cfg, nil
}

// RegisterFonts performs the process-wide font registration.
func (c *CLI) RegisterFonts(cfg *config.Config) *fonts.Set {
	return fonts.Register(cfg.FontDir, c.Logger)
}

// NewResolver builds the image decode service. Local file references are
// only honoured when allowFiles is set or an image base directory is
// configured, and a configured directory confines them.
func NewResolver(cfg *config.Config, allowFiles bool) *imagepkg.Resolver {
	return &imagepkg.Resolver{
		Client:       &http.Client{Timeout: cfg.HTTPTimeout},
		BaseDir:      cfg.ImageBaseDir,
		MaxBytes:     cfg.MaxImageBytes,
		DisableFiles: !allowFiles && cfg.ImageBaseDir == "",
	}
}
