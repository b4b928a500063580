package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long:  `Starts the HTTP server exposing POST /chat, GET /shipments and the operational endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("close shipment store failed")
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Msg("starting cargo-dispatch server")
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		log.Info().Msg("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpCfg.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Dur("timeout", a.httpCfg.ShutdownTimeout).Msg("graceful shutdown did not complete")
			if err := a.server.Close(); err != nil {
				log.Error().Err(err).Msg("force close failed")
			}
		}
		log.Info().Msg("server stopped")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
