package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// SessionTTL is the idle expiry for per-call dialogue sessions.
	SessionTTL time.Duration

	// TwilioAuthToken signs webhook requests; empty skips signature checks,
	// which is only acceptable in local development.
	TwilioAuthToken string

	GoogleClientID     string
	GoogleClientSecret string
	DefaultCalendarID  string
	// CalendarTimeout bounds every Google Calendar call; a stalled call is
	// reported to the caller as the calendar being offline.
	CalendarTimeout time.Duration

	DefaultClinicID string
	// ClinicRegistryJSON optionally overrides the built-in clinic registry.
	ClinicRegistryJSON string

	// AdminJWTSecret signs the HMAC JWTs accepted on /debug routes; empty
	// disables them.
	AdminJWTSecret string

	CORSAllowedOrigins []string

	// Webhook rate limiting, per caller IP.
	WebhookRatePerSec float64
	WebhookRateBurst  int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),

		TwilioAuthToken: getEnv("TWILIO_AUTH_TOKEN", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		DefaultCalendarID:  getEnv("DEFAULT_CALENDAR_ID", "primary"),
		CalendarTimeout:    getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),

		DefaultClinicID:    getEnv("DEFAULT_CLINIC_ID", "demo"),
		ClinicRegistryJSON: getEnv("CLINIC_REGISTRY_JSON", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),

		WebhookRatePerSec: getEnvAsFloat("WEBHOOK_RATE_PER_SEC", 5),
		WebhookRateBurst:  getEnvAsInt("WEBHOOK_RATE_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
