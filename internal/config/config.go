package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string

	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	ReplyMaxTokens int
	LLMTemperature float64
	LLMTimeout     time.Duration

	TokenUnitPrice float64
	HistoryMaxLen  int

	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	EvidenceBucket        string
	EvidencePublicBaseURL string
	MediaFetchTimeout     time.Duration

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	LeadLockTTL      time.Duration
	IndustryCacheTTL time.Duration

	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ReplyMaxTokens: getEnvAsInt("REPLY_MAX_TOKENS", 300),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),

		TokenUnitPrice: getEnvAsFloat("TOKEN_UNIT_PRICE", 0.002),
		HistoryMaxLen:  getEnvAsInt("HISTORY_MAX_CHARS", 5000),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EvidenceBucket:        getEnv("EVIDENCE_BUCKET", "evidence"),
		EvidencePublicBaseURL: getEnv("EVIDENCE_PUBLIC_BASE_URL", ""),
		MediaFetchTimeout:     getEnvAsDuration("MEDIA_FETCH_TIMEOUT", 10*time.Second),

		RedisAddr:        getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		LeadLockTTL:      getEnvAsDuration("LEAD_LOCK_TTL", 30*time.Second),
		IndustryCacheTTL: getEnvAsDuration("INDUSTRY_CACHE_TTL", 5*time.Minute),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
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
