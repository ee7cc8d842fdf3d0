package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel = "llama3-70b-8192"
	DefaultGeminiModel = "gemini-1.5-flash"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Upstream LLM
	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string

	// Exchange log (postgres:// or sqlite://), optional
	DatabaseURL string

	// Redis, optional; backs the rate limiter when set
	RedisURL string

	// Inbound limits
	RateLimitPerMin int

	// JWT, optional
	JWTSecret string

	// Frontend
	FrontendURL string
	StaticDir   string

	// Observability
	LogDir           string
	LogLevel         string
	TelemetryEnabled bool
}

// Load reads the relay configuration. The API key is deliberately not
// required here: a missing key is reported per request, not at startup.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))

	defaultModel := DefaultOpenAIModel
	if provider == ProviderGemini {
		defaultModel = DefaultGeminiModel
	}

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		Env:              getEnvOrDefault("ENV", "development"),
		LLMProvider:      provider,
		LLMAPIKey:        firstEnv("LLM_API_KEY", "GROQ_API_KEY"),
		LLMBaseURL:       getEnvOrDefault("LLM_BASE_URL", DefaultBaseURL),
		LLMModel:         getEnvOrDefault("LLM_MODEL", defaultModel),
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:         getEnvOrDefault("REDIS_URL", ""),
		RateLimitPerMin:  getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 0),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", ""),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "*"),
		StaticDir:        getEnvOrDefault("STATIC_DIR", ""),
		LogDir:           getEnvOrDefault("LOG_DIR", "logs"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		TelemetryEnabled: getEnvAsBoolOrDefault("TELEMETRY_ENABLED", false),
	}

	return cfg
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (want %s or %s)", c.LLMProvider, ProviderOpenAI, ProviderGemini)
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

func (c *Config) CredentialConfigured() bool {
	return c.LLMAPIKey != ""
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
