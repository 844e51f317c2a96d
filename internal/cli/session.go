package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/lotetrace/internal/config"
	"github.com/roach88/lotetrace/internal/contract"
	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/logger"
	"github.com/roach88/lotetrace/internal/metrics"
	"github.com/roach88/lotetrace/internal/pgledger"
	"github.com/roach88/lotetrace/internal/redisledger"
	"github.com/roach88/lotetrace/internal/store"
	"github.com/roach88/lotetrace/internal/trace"
)

// session is an opened backend plus the contract built on it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	contract *contract.Contract
	closers  []func() error
}

// openSession loads configuration, opens the configured ledger and builds
// the contract. Failures are command errors. Callers must Close it.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(o.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)

	s := &session{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
	}

	l := o.Ledger
	if l == nil {
		l, err = s.openLedger(cmd.Context())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open "+cfg.Backend+" backend", err)
		}
	}

	m := metrics.New(s.registry)
	storeOpts := []trace.Option{
		trace.WithLogger(log),
		trace.WithRelationObserver(m),
	}
	if o.Clock != nil {
		storeOpts = append(storeOpts, trace.WithClock(o.Clock))
	}
	s.contract = contract.New(
		trace.NewStore(l, storeOpts...),
		contract.WithMetrics(m),
		contract.WithLogger(log),
	)
	return s, nil
}

func (s *session) openLedger(ctx context.Context) (ledger.Ledger, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := s.cfg

	switch cfg.Backend {
	case "memory":
		s.logger.Warn("memory backend keeps nothing after the command exits")
		return ledger.NewMemory(), nil

	case "sqlite":
		s.logger.Debug("opening database", "path", cfg.SQLite.Path)
		st, err := store.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, st.Close)
		return st, nil

	case "redis":
		l, client, err := redisledger.Dial(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, redisledger.Config{Prefix: cfg.Redis.Prefix, Logger: s.logger})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		return l, nil

	case "postgres":
		pool, err := pgledger.NewPool(ctx, pgledger.PoolConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		l, err := pgledger.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		return l, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Close releases the backend.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("error closing backend", "error", err)
		return err
	}
	return nil
}

// withSession opens a session, runs fn and closes the session. Errors from
// fn are reported through the formatter.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session, f *OutputFormatter) error) error {
	f := o.formatter(cmd)
	s, err := o.openSession(cmd)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, s, f); err != nil {
		return f.Fail(err)
	}
	return nil
}
