package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/qadetector/internal/app"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Start the widget endpoints, the dashboard API and the job websocket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, v, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddr = listen
			}
			app.WatchLogLevel(v, logger)

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("starting application", logging.Err(err))
				return err
			}
			defer a.Close()

			s, err := server.NewServer(a)
			if err != nil {
				return err
			}
			srv := s.HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", logging.Field{Key: "addr", Value: srv.Addr})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				logger.Error("server stopped", logging.Err(err))
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, overrides server.listen_addr")
	return cmd
}
