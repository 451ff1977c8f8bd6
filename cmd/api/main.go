package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frankiemoji/backend/internal/config"
	"frankiemoji/backend/internal/db"
	"frankiemoji/backend/internal/http/handlers"
	"frankiemoji/backend/internal/integrations"
	"frankiemoji/backend/internal/logging"
	"frankiemoji/backend/internal/orders"
	"frankiemoji/backend/internal/rate"
	"frankiemoji/backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "api")
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api_exit", "error", err)
		_ = cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	repo := repository.New(pool)
	stripeClient := integrations.NewStripeClient(cfg.Stripe, &http.Client{Timeout: 10 * time.Second})

	var mailer orders.Mailer
	if m := integrations.NewResendMailer(cfg.Resend); m != nil {
		mailer = m
	} else {
		logger.Warn("email_disabled", "reason", "RESEND_API_KEY not set")
	}

	svc := handlers.Services{
		Checkout: orders.NewInitiator(repo, stripeClient, logger),
		Payments: orders.NewReconciler(repo, stripeClient, logger),
		Orders:   orders.NewAdminQueries(repo),
		Waitlist: orders.NewWaitlist(repo, mailer, logger),
		Health:   repo,
	}
	svc.Notifications = newDispatcher(cfg, repo, mailer, logger)

	if cfg.S3.Bucket != "" {
		s3Client, err := integrations.NewS3(cfg.S3)
		if err != nil {
			return err
		}
		svc.Uploads = s3Client
	}

	limiter, closeLimiter, err := newLimiter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	h := handlers.New(svc, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(h, cfg.Admin, limiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown", "service", "api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newDispatcher builds the sweep used by the admin trigger. Channels without
// credentials are left out.
func newDispatcher(cfg *config.Config, repo *repository.Repository, mailer orders.Mailer, logger *slog.Logger) *orders.Dispatcher {
	var sms orders.SMSSender
	if s := integrations.NewTwilioSMS(cfg.Twilio); s != nil {
		sms = s
	} else {
		logger.Warn("sms_disabled", "reason", "twilio credentials not set")
	}
	return orders.NewDispatcher(repo, mailer, sms, logger)
}

// newLimiter prefers a shared Redis window when REDIS_URL is set and falls
// back to per-process token buckets.
func newLimiter(cfg *config.Config, logger *slog.Logger) (rate.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return rate.NewKeyedLimiter(cfg.RateLimit.PerMinute), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	logger.Info("rate_limit", "backend", "redis", "per_minute", cfg.RateLimit.PerMinute)
	limiter := rate.NewRedisWindowLimiter(client, "frankiemoji:rl:", cfg.RateLimit.PerMinute, time.Minute)
	return limiter, func() { _ = client.Close() }, nil
}
