package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/youruser/covergrid/internal/cli"
	"github.com/youruser/covergrid/internal/config"
	"github.com/youruser/covergrid/internal/errors"
	"github.com/youruser/covergrid/internal/grid"
	"github.com/youruser/covergrid/internal/items"
	"github.com/youruser/covergrid/internal/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(cli.New(os.Stderr), os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type renderOptions struct {
	output     string
	noCaptions bool
	dataURI    bool
	strict     bool
}

func newRootCommand(c *cli.CLI, stdout io.Writer) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render ITEMS_FILE",
		Short: "Compose a grid of covers from a JSON or CSV items file",
		Long: `Render reads an ordered list of items (image reference, title and optional
description) and composes them into a square PNG grid of 250px cells.

Image references may be local paths (relative to the items file, or confined
to image_base_dir when it is set), http(s) URLs, data URIs or qr:<text>
placeholders.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), c, args[0], opts, stdout)
		},
	}
	c.AddPersistentFlags(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "grid.png", "output PNG path")
	cmd.Flags().BoolVar(&opts.noCaptions, "no-captions", false, "skip gradient and text")
	cmd.Flags().BoolVar(&opts.dataURI, "data-uri", false, "print a data URI to stdout instead of writing a file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "reject item counts that are not perfect squares")
	return cmd
}

func runRender(ctx context.Context, c *cli.CLI, itemsFile string, opts renderOptions, stdout io.Writer) error {
	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	list, err := items.LoadItemsFromFile(itemsFile)
	if err != nil {
		return err
	}
	if len(list) > cfg.MaxItems {
		return errors.New(errors.ErrCodeInvalidInput, "%d items exceed %s %d", len(list), config.KeyMaxItems, cfg.MaxItems)
	}

	resolver := cli.NewResolver(cfg, true)
	resolver.WorkDir = filepath.Dir(itemsFile)

	logger := c.Logger.With("render_id", uuid.NewString())
	comp, err := grid.New(list, resolver, c.RegisterFonts(cfg),
		grid.WithCaptions(cfg.DisplayCaptions && !opts.noCaptions),
		grid.WithRequireSquare(cfg.RequireSquare || opts.strict),
		grid.WithSkipFailedImages(cfg.SkipFailedImages),
		grid.WithConcurrency(cfg.DecodeConcurrency),
		grid.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if opts.dataURI {
		uri, err := comp.Render(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, uri)
		return err
	}

	var buf bytes.Buffer
	if err := comp.RenderPNG(ctx, &buf); err != nil {
		return err
	}
	if err := util.EnsureParentDir(opts.output); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("wrote grid", "path", opts.output, "side", comp.Side(), "size", comp.Size())
	return nil
}
