package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (owners of restaurants)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Stripe billing
	StripeSecretKey          string
	StripeWebhookSecret      string
	StripePriceAmount        int64
	StripeCurrency           string
	StripeProductName        string
	StripeProductDescription string

	// Subscription mirror is trusted for this long before a read-repair
	SubscriptionTrustWindow time.Duration

	// Public menu
	AppBaseURL         string
	PublicMenuBaseURL  string
	PublicDemoFallback bool

	// Menu snapshot cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Domain events
	KafkaBrokers []string
	KafkaTopic   string

	// Logging and error tracking
	LogRetentionDays int
	SentryDSN        string
	AppEnv           string

	// Server
	Port        string
	CORSOrigins string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "menu_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		StripeSecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceAmount:        int64(parseInt(getEnv("STRIPE_PRICE_AMOUNT", "1900"), 1900)),
		StripeCurrency:           getEnv("STRIPE_CURRENCY", "eur"),
		StripeProductName:        getEnv("STRIPE_PRODUCT_NAME", "Digital Menu Monthly Subscription"),
		StripeProductDescription: getEnv("STRIPE_PRODUCT_DESCRIPTION", "Digital menu with QR code, custom logo and restaurant details"),

		SubscriptionTrustWindow: parseDuration(getEnv("SUBSCRIPTION_TRUST_WINDOW", "1h"), time.Hour),

		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:5173"),
		PublicMenuBaseURL:  getEnv("PUBLIC_MENU_BASE_URL", "http://localhost:5173/menu"),
		PublicDemoFallback: parseBool(getEnv("PUBLIC_DEMO_FALLBACK", "false")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		KafkaBrokers: parseCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "menu-events"),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "production"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// BillingEnabled reports whether Stripe credentials are configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
