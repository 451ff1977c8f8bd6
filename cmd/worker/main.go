package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"frankiemoji/backend/internal/config"
	"frankiemoji/backend/internal/db"
	"frankiemoji/backend/internal/integrations"
	"frankiemoji/backend/internal/logging"
	"frankiemoji/backend/internal/orders"
	"frankiemoji/backend/internal/repository"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Frankiemoji notification worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sweep for unsent notifications on an interval until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDispatcher(cmd.Context(), func(ctx context.Context, cfg *config.Config, d sweeper, logger *slog.Logger) error {
				logger.Info("worker_started", "interval", cfg.Worker.Interval, "batch_size", cfg.Worker.BatchSize)
				runLoop(ctx, d, cfg.Worker.Interval, cfg.Worker.BatchSize, logger)
				logger.Info("worker_stopped")
				return nil
			})
		},
	}
}

func sweepCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one confirmation and delivery sweep and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDispatcher(cmd.Context(), func(ctx context.Context, cfg *config.Config, d sweeper, logger *slog.Logger) error {
				if limit <= 0 {
					limit = cfg.Worker.BatchSize
				}
				return sweepOnce(ctx, d, limit, logger)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum orders per pass (defaults to SWEEP_BATCH_SIZE)")
	return cmd
}

// withDispatcher loads config, connects to the database and hands fn a
// dispatcher for the configured channels.
func withDispatcher(parent context.Context, fn func(context.Context, *config.Config, sweeper, *slog.Logger) error) error {
	cfg, err := config.LoadWorker()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("log error: %w", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "worker")
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer pool.Close()
	repo := repository.New(pool)

	var mailer orders.Mailer
	if m := integrations.NewResendMailer(cfg.Resend); m != nil {
		mailer = m
	}
	var sms orders.SMSSender
	if s := integrations.NewTwilioSMS(cfg.Twilio); s != nil {
		sms = s
	}
	if mailer == nil && sms == nil {
		logger.Warn("worker_idle", "reason", "no email or sms credentials configured")
	}

	return fn(ctx, cfg, orders.NewDispatcher(repo, mailer, sms, logger), logger)
}
