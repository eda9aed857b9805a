package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string

	// AdminKey guards the audit reader and vendor mutation endpoints.
	// A static shared secret for now; rotate via deployment config.
	AdminKey string

	// DatabaseURL enables the Postgres stores. Empty means in-memory.
	DatabaseURL string

	// RedisURL enables the Redis-backed consent dedupe window. Empty means
	// the in-process fallback.
	RedisURL string

	// KafkaBrokers enables mirroring audit events to Kafka. Empty disables it.
	KafkaBrokers string
	AuditTopic   string

	// PrivacyLogging turns on best-effort recording of privacy-relevant
	// request headers into the audit log.
	PrivacyLogging bool

	// ReceiptSigningKey signs consent receipts (HS256).
	ReceiptSigningKey string

	// ConsentDedupeWindow coalesces identical consent submissions arriving
	// within this window into a single record.
	ConsentDedupeWindow time.Duration

	// CatalogRefreshInterval drives the periodic vendor table reload.
	CatalogRefreshInterval time.Duration
}

var (
	defaultDedupeWindow    = 10 * time.Second
	defaultCatalogRefresh  = 5 * time.Minute
	defaultAuditEventTopic = "ucm.audit.events"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("UCM_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("UCM_ENV")
	if env == "" {
		env = "development"
	}

	adminKey := os.Getenv("ADMIN_API_KEY")
	if adminKey == "" {
		// Development default - must be overridden in production.
		adminKey = "dev-admin-key"
	}

	receiptKey := os.Getenv("UCM_RECEIPT_SIGNING_KEY")
	if receiptKey == "" {
		receiptKey = "dev-receipt-key-change-in-production"
	}

	topic := os.Getenv("UCM_AUDIT_TOPIC")
	if topic == "" {
		topic = defaultAuditEventTopic
	}

	dedupe := defaultDedupeWindow
	if v := os.Getenv("UCM_CONSENT_DEDUPE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dedupe = d
		}
	}

	refresh := defaultCatalogRefresh
	if v := os.Getenv("UCM_CATALOG_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			refresh = d
		}
	}

	return Server{
		Addr:                   addr,
		Environment:            env,
		AdminKey:               adminKey,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		KafkaBrokers:           os.Getenv("KAFKA_BROKERS"),
		AuditTopic:             topic,
		PrivacyLogging:         boolEnv("PRIVACY_LOGGING"),
		ReceiptSigningKey:      receiptKey,
		ConsentDedupeWindow:    dedupe,
		CatalogRefreshInterval: refresh,
	}
}

func boolEnv(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
