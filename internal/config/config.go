package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	NATSURL                 string
	NATSSubject             string
	NATSStatusSubjectPrefix string
	NATSConnectTimeoutMS    int
	NATSReconnectWaitMS     int
	NATSMaxReconnects       int

	StoragePath   string
	PublicBaseURL string

	UpstageBaseURL         string
	UpstageAPIKey          string
	UpstageOCRModel        string
	SolarModel             string
	SolarStructuredOutput  bool
	ProviderTimeoutSeconds int
	VocabularyPath         string

	RetryMaxAttempts        int
	RetryInitialBackoffMS   int
	RetryMaxBackoffMS       int
	RetryMultiplier         float64
	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeoutMS    int
	BreakerHalfOpenMaxCalls int

	WatchPollIntervalMS   int
	WatchMaxWaitSeconds   int
	IngestTimeoutSeconds  int
	InsightsTimezone      string
	DemoUserID            string
	DemoUserEmail         string
	DemoUserName          string
	AuthPasswordHash      string
	AuthJWTSecret         string
	AuthTokenTTLHours     int
	CORSAllowedOrigins    []string
	CORSAllowCredentials  bool
	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIBackpressureMax    int
	APIBackpressureWaitMS int

	WorkerMetricsPort string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:                 mustEnv("NATS_URL", ""),
		NATSSubject:             mustEnv("NATS_SUBJECT", "documents.ingest"),
		NATSStatusSubjectPrefix: mustEnv("NATS_STATUS_SUBJECT_PREFIX", "documents.status"),
		NATSConnectTimeoutMS:    mustEnvInt("NATS_CONNECT_TIMEOUT_MS", 2000),
		NATSReconnectWaitMS:     mustEnvInt("NATS_RECONNECT_WAIT_MS", 2000),
		NATSMaxReconnects:       mustEnvInt("NATS_MAX_RECONNECTS", 60),

		StoragePath:   mustEnv("STORAGE_PATH", "./data/storage"),
		PublicBaseURL: mustEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		UpstageBaseURL:         mustEnv("UPSTAGE_BASE_URL", "https://api.upstage.ai/v1"),
		UpstageAPIKey:          mustEnv("UPSTAGE_API_KEY", ""),
		UpstageOCRModel:        mustEnv("UPSTAGE_OCR_MODEL", "document-parse"),
		SolarModel:             mustEnv("SOLAR_MODEL", "solar-pro"),
		SolarStructuredOutput:  mustEnvBool("SOLAR_STRUCTURED_OUTPUT", false),
		ProviderTimeoutSeconds: mustEnvInt("PROVIDER_TIMEOUT_SECONDS", 60),
		VocabularyPath:         mustEnv("VOCABULARY_PATH", ""),

		RetryMaxAttempts:        mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoffMS:   mustEnvInt("RETRY_INITIAL_BACKOFF_MS", 200),
		RetryMaxBackoffMS:       mustEnvInt("RETRY_MAX_BACKOFF_MS", 2000),
		RetryMultiplier:         mustEnvFloat("RETRY_MULTIPLIER", 2),
		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutMS:    mustEnvInt("BREAKER_OPEN_TIMEOUT_MS", 30000),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		WatchPollIntervalMS:   mustEnvInt("WATCH_POLL_INTERVAL_MS", 2000),
		WatchMaxWaitSeconds:   mustEnvInt("WATCH_MAX_WAIT_SECONDS", 120),
		IngestTimeoutSeconds:  mustEnvInt("INGEST_TIMEOUT_SECONDS", 300),
		InsightsTimezone:      mustEnv("INSIGHTS_TIMEZONE", "UTC"),
		DemoUserID:            mustEnv("DEMO_USER_ID", "00000000-0000-0000-0000-000000000000"),
		DemoUserEmail:         mustEnv("DEMO_USER_EMAIL", "demo@example.com"),
		DemoUserName:          mustEnv("DEMO_USER_NAME", "Demo User"),
		AuthPasswordHash:      mustEnv("AUTH_PASSWORD_HASH", ""),
		AuthJWTSecret:         mustEnv("AUTH_JWT_SECRET", ""),
		AuthTokenTTLHours:     mustEnvInt("AUTH_TOKEN_TTL_HOURS", 168),
		CORSAllowedOrigins:    mustEnvList("CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials:  mustEnvBool("CORS_ALLOW_CREDENTIALS", false),
		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIBackpressureMax:    mustEnvInt("API_BACKPRESSURE_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// AuthEnabled reports whether requests must carry a bearer token. Without a
// configured password every request acts as the demo user.
func (c Config) AuthEnabled() bool {
	return c.AuthPasswordHash != ""
}

// AsyncIngestEnabled reports whether uploads can be handed to the worker.
func (c Config) AsyncIngestEnabled() bool {
	return c.NATSURL != ""
}

// Validate reports missing settings that make the service unusable.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PostgresDSN) == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	if strings.TrimSpace(c.UpstageAPIKey) == "" {
		errs = append(errs, errors.New("UPSTAGE_API_KEY is required"))
	}
	if c.AuthEnabled() && strings.TrimSpace(c.AuthJWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required when AUTH_PASSWORD_HASH is set"))
	}
	if c.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1, got %d", c.RetryMaxAttempts))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
