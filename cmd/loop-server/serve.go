package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/loop-pattern/pkg/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var seedPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP page server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if seedPath != "" {
				s, err := config.LoadSeed(seedPath)
				if err != nil {
					return err
				}
				n, err := a.seed(ctx, s)
				if err != nil {
					return err
				}
				a.logger.Info().Str("file", seedPath).Int("items", n).Msg("Seed loaded")
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           routes(a),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().
					Str("addr", cfg.HTTP.Addr).
					Str("store", cfg.Store.Backend).
					Strs("streams", a.sched.StreamNames()).
					Msg("Starting loop server")
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

			a.logger.Info().Msg("Shutting down loop server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML seed file loaded into the store at startup")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}
