package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/youruser/covergrid/internal/api"
	"github.com/youruser/covergrid/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(cli.New(os.Stderr)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(c *cli.CLI) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve cover grid renders over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.LoadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			gin.SetMode(gin.ReleaseMode)
			h := &api.Handler{
				Decoder: cli.NewResolver(cfg, false),
				Fonts:   c.RegisterFonts(cfg),
				Config:  cfg,
				Logger:  c.Logger,
			}
			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           api.NewRouter(h),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), c, srv)
		},
	}
	c.AddPersistentFlags(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, c *cli.CLI, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
