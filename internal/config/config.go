package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	RedisURL    string
	FrontendURL string
	Stripe      StripeConfig
	Resend      ResendConfig
	Twilio      TwilioConfig
	S3          S3Config
	Admin       AdminConfig
	Worker      WorkerConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string
	SuccessURL    string
	CancelURL     string
	// PriceIDs maps pack tier to a pre-created Stripe price. Tiers without one are
	// charged with inline price data from the pricing table.
	PriceIDs map[string]string
	// PromotionCodes maps a normalized promo code to a Stripe promotion code id.
	PromotionCodes map[string]string
}

type ResendConfig struct {
	APIKey string
	From   string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
}

type AdminConfig struct {
	OrdersKey     string
	OrdersKeyHash string
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

type RateLimitConfig struct {
	PerMinute int
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

var (
	packTiers  = []string{"starter", "standard", "premium"}
	promoCodes = []string{"holiday15", "frankie10", "donni10", "aaron10", "crew100"}
)

// Load reads the API configuration. Stripe credentials are mandatory here.
func Load() (*Config, error) {
	cfg := load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	return cfg, nil
}

// LoadWorker reads the configuration for the notification worker, which never
// talks to the payment provider.
func LoadWorker() (*Config, error) {
	cfg := load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func load() *Config {
	frontend := strings.TrimRight(getenv("FRONTEND_BASE_URL", "https://www.frankiemoji.com"), "/")
	return &Config{
		Env:         getenv("APP_ENV", "dev"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		FrontendURL: frontend,
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			APIBaseURL:     os.Getenv("STRIPE_API_BASE_URL"),
			SuccessURL:     getenv("STRIPE_SUCCESS_URL", frontend+"/upload.html?paid=1&success=1&orderId={order_id}"),
			CancelURL:      getenv("STRIPE_CANCEL_URL", frontend+"/upload.html?canceled=1"),
			PriceIDs:       parseKeyedEnv("STRIPE_PRICE_", packTiers),
			PromotionCodes: parseKeyedEnv("STRIPE_PROMO_", promoCodes),
		},
		Resend: ResendConfig{
			APIKey: os.Getenv("RESEND_API_KEY"),
			From:   getenv("RESEND_FROM_EMAIL", "orders@frankiemoji.com"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_FROM_NUMBER"),
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getenv("S3_REGION", "us-east-1"),
			UseSSL:         getenvBool("S3_USE_SSL", true),
		},
		Admin: AdminConfig{
			OrdersKey:     os.Getenv("ADMIN_ORDERS_KEY"),
			OrdersKeyHash: os.Getenv("ADMIN_ORDERS_KEY_HASH"),
		},
		Worker: WorkerConfig{
			Interval:  getenvDuration("SWEEP_INTERVAL", time.Minute),
			BatchSize: getenvInt("SWEEP_BATCH_SIZE", 50),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getenvInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parseKeyedEnv collects PREFIX<NAME> variables for the given names, keyed by
// the lowercase name. Unset names are left out.
func parseKeyedEnv(prefix string, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v := strings.TrimSpace(os.Getenv(prefix + strings.ToUpper(name)))
		if v == "" {
			continue
		}
		out[strings.ToLower(name)] = v
	}
	return out
}
