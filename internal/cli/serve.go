package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/lotetrace/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the record contract over HTTP",
		Long: `Serve the record contract over HTTP until interrupted.

Routes live under /api/v1/records and /api/v1/invoke. GET /health reports
liveness and GET /metrics exposes Prometheus metrics unless
metrics.enabled is false.

Examples:
  lotetrace serve --backend sqlite --db ./lotes.db --addr :8080
  LOTETRACE_BACKEND=redis LOTETRACE_REDIS_ADDR=localhost:6379 lotetrace serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return serve(ctx, s)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "HTTP listen address")

	return cmd
}

func serve(parent context.Context, s *session) error {
	var gatherer prometheus.Gatherer
	if s.cfg.Metrics.Enabled {
		gatherer = s.registry
	}
	e := httpapi.New(s.contract, httpapi.Options{
		Logger:   s.logger,
		Gatherer: gatherer,
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("serving", "backend", s.cfg.Backend, "addr", s.cfg.HTTP.Addr)
	if err := httpapi.Serve(ctx, e, s.cfg.HTTP.Addr, s.logger); err != nil {
		return WrapExitError(ExitFailure, "http server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
