package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the process. Values come
// from the environment with development defaults so main stays lean.
type Config struct {
	Env         string
	Addr        string
	DatabaseURL string
	RedisURL    string

	// KafkaBrokers is optional; when empty, audit events stop at the store.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string

	VerificationBaseURL       string
	VerificationAPIKey        string
	VerificationWebhookSecret string

	PayoutRailBaseURL string
	PayoutRailAPIKey  string

	RiskWebhookSecret  string
	RiskAlertThreshold int

	// BlobDir is where uploaded document bytes live until forwarded to the
	// verification provider.
	BlobDir string

	// SessionExpiry bounds how long an untouched onboarding session stays open.
	SessionExpiry time.Duration
}

// IsDev reports whether the process runs in a local development environment.
// Webhook signature checks are only skippable in dev.
func (c Config) IsDev() bool { return c.Env == "development" }

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Env:           getenv("APP_ENV", "development"),
		Addr:          getenv("FINCORE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AuditTopic:    getenv("AUDIT_TOPIC", "fincore.audit.events"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),

		VerificationBaseURL:       getenv("VERIFICATION_BASE_URL", "https://verification.example.com"),
		VerificationAPIKey:        os.Getenv("VERIFICATION_API_KEY"),
		VerificationWebhookSecret: os.Getenv("VERIFICATION_WEBHOOK_SECRET"),

		PayoutRailBaseURL: getenv("PAYOUT_RAIL_BASE_URL", "https://rail.example.com"),
		PayoutRailAPIKey:  os.Getenv("PAYOUT_RAIL_API_KEY"),

		RiskWebhookSecret:  os.Getenv("RISK_WEBHOOK_SECRET"),
		RiskAlertThreshold: getenvInt("RISK_ALERT_THRESHOLD", 70),

		BlobDir: getenv("BLOB_DIR", "data/blobs"),

		SessionExpiry: getenvDuration("SESSION_EXPIRY", 48*time.Hour),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(v); err == nil {
			return out
		}
	}
	return def
}
