package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/monitoring"
	"github.com/sells-group/inventory-planner/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload and reporting API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := reportOptions(cfg)
		if err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		metrics := monitoring.NewMetrics()
		client := newClassifier(cfg, metrics)

		if cfg.Monitoring.Enabled && st != nil {
			breaker := func() string { return client.Breaker().State().String() }
			checker := monitoring.NewChecker(
				monitoring.NewCollector(st, breaker),
				monitoring.NewAlerter(cfg.Monitoring),
				metrics,
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		handler := buildMux(&api{
			builder:    report.NewBuilder(opts),
			registry:   opts.Registry,
			rules:      intakeRules(cfg),
			classifier: client,
			store:      st,
			metrics:    metrics,
			origins:    cfg.Server.AllowedOrigins,
		})

		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port), shutdownTimeout(cfg.Server.ShutdownTimeoutSecs))
	},
}

// resolvePort prefers the flag over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

func shutdownTimeout(secs int) time.Duration {
	if secs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// startServer serves handler until ctx is cancelled, then drains in-flight
// requests for up to grace.
func startServer(ctx context.Context, handler http.Handler, port int, grace time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- eris.Wrap(err, "server listen")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
