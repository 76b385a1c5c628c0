package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Generates the site and serves it over HTTP",
	Long: `The serve command fetches every recipe, generates the listing and
detail pages, then serves them. Detail pages are regenerated in the
background once they are older than the revalidate interval, and slugs
published after startup are generated on first request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Start(ctx)
		}()

		select {
		case err := <-errCh:
			if cerr := app.Close(); err == nil {
				err = cerr
			}
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := app.Shutdown(shutdownCtx)
		<-errCh
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
}
