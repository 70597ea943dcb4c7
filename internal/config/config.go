package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string // Empty disables bearer tokens; API keys still work
	CORSOrigins string
	TablePrefix string
	// Product identity, sent as User-Agent on outbound webhooks
	ProductName string
	Version     string
	// SystemUserID is the fixed id of the system actor that owns global configuration
	SystemUserID string
	// SystemMaxUploadSizeMB applies when OBJECT_MAX_UPLOAD_SIZE_MB is unset or unreadable
	SystemMaxUploadSizeMB int
	PropertyCacheTTL      time.Duration
	// Webhook scheduling
	WebhookBaseDelay     time.Duration
	WebhookStagger       time.Duration
	WebhookGrace         time.Duration
	WebhookTimeout       time.Duration
	WebhookMaxQueue      int
	WebhookMaxConcurrent int
	// Logging
	LogDir      string
	LogMaxFiles int
	// Optional bootstrap admin; both must be set
	AdminUsername string
	AdminAPIKey   string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           env,
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWKSURL:               getEnv("JWKS_URL", ""),
		CORSOrigins:           getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:           getTablePrefix(env),
		ProductName:           getEnv("PRODUCT_NAME", "RoundReview"),
		Version:               getEnv("VERSION", "v0.1.0"),
		SystemUserID:          getEnv("SYSTEM_USER_ID", "00000000-0000-0000-0000-000000000001"),
		SystemMaxUploadSizeMB: getEnvInt("SYSTEM_MAX_UPLOAD_SIZE_MB", MaxUploadSizeMB),
		PropertyCacheTTL:      getEnvDuration("PROPERTY_CACHE_TTL", 30*time.Second),
		WebhookBaseDelay:      getEnvDuration("WEBHOOK_BASE_DELAY", time.Second),
		WebhookStagger:        getEnvDuration("WEBHOOK_STAGGER", 2*time.Second),
		WebhookGrace:          getEnvDuration("WEBHOOK_GRACE", 300*time.Second),
		WebhookTimeout:        getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		WebhookMaxQueue:       getEnvInt("WEBHOOK_MAX_QUEUE", 1024),
		WebhookMaxConcurrent:  getEnvInt("WEBHOOK_MAX_CONCURRENT", 4),
		LogDir:                getEnv("LOG_DIR", ""),
		LogMaxFiles:           getEnvInt("LOG_MAX_FILES", 10),
		AdminUsername:         getEnv("ADMIN_USERNAME", ""),
		AdminAPIKey:           getEnv("ADMIN_API_KEY", ""),
	}
}

// UserAgent returns the header value identifying this system on outbound calls
func (c *Config) UserAgent() string {
	return c.ProductName + "/" + c.Version
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
