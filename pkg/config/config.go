package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	// OwnerEmails may sign in and use the admin endpoints. Empty allows any Google account.
	OwnerEmails []string

	LogLevel  string
	LogFormat string

	PageSize              int
	NotificationThreshold int
	DispatchBuffer        int

	NotifyWebhookURL    string
	NotifyWebhookToken  string
	NotifyWebhookHeader string

	SensitivePatternsFile string
	RateLimitPerMinute    int
	MetricsEnabled        bool
	// TrustProxyHeaders takes the client IP from CF-Connecting-IP / X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080/admin"),
		OwnerEmails:        getEnvList("OWNER_EMAILS", nil),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		PageSize:              getEnvInt("PAGE_SIZE", 20),
		NotificationThreshold: getEnvInt("NOTIFICATION_THRESHOLD", 50),
		DispatchBuffer:        getEnvInt("DISPATCH_BUFFER", 64),

		NotifyWebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyWebhookToken:  getEnv("NOTIFY_WEBHOOK_TOKEN", ""),
		NotifyWebhookHeader: getEnv("NOTIFY_WEBHOOK_HEADER", "Authorization"),

		SensitivePatternsFile: getEnv("SENSITIVE_PATTERNS_FILE", ""),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		TrustProxyHeaders:     getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsOwner reports whether email is allowed to use the admin surface.
func (c *Config) IsOwner(email string) bool {
	if len(c.OwnerEmails) == 0 {
		return email != ""
	}
	for _, allowed := range c.OwnerEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
