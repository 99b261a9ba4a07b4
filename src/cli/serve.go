package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/username/mgscheck/src/handlers"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/security"
)

func newServeCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run report API.",
		Long: `serve exposes the report API on SERVE_PORT:

  GET  /api/reports/latest
  GET  /api/reports/{id}
  POST /api/runs

Report and run routes require a bearer token issued by "mgscheck token". With --interval
a run is started periodically in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			auth, err := security.NewAuthService(cfg.JWTSecret, cfg.AccessTokenExpiry)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := newStack(ctx, cfg)
			runner := s.runner(cfg, 0)
			limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
			srv := &http.Server{
				Addr:        ":" + cfg.ServePort,
				Handler:     handlers.NewRouter(handlers.NewReportHandler(s.reports, runner), auth, limiter),
				ReadTimeout: 15 * time.Second,
				// POST /api/runs answers once the run is done
				WriteTimeout: 10 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			if interval > 0 {
				go func() {
					ticker := time.NewTicker(interval)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if _, err := runner.Run(ctx); err != nil {
								logger.L.Error("Scheduled run failed to start", "error", err)
							}
						}
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				logger.L.Info("Report API listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.L.Info("Shutting down report API")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "start a run every interval (0 disables)")
	return cmd
}
