package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the server reads from the environment.
type Config struct {
	ServerPort string
	Env        string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	Mongo      MongoConfig
	OpenRouter OpenRouterConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig

	RedisURL    string
	CORSOrigins []string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Window time.Duration
	Max    int
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

// Development reports whether error detail may be surfaced to clients.
func (c *Config) Development() bool {
	return !strings.EqualFold(c.Env, "production")
}

func LoadConfig() (*Config, error) {
	env := envOrDefault("ENV", "development")

	logging := LoggingConfig{
		Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
		Development:  !strings.EqualFold(env, "production"),
		EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
		ServiceName:  envOrDefault("SERVICE_NAME", "chatdesk"),
	}

	cfg := &Config{
		ServerPort: envOrDefault("PORT", "4000"),
		Env:        env,
		JWTSecret:  envOrDefault("JWT_SECRET", "secret"),
		JWTExpiry:  parseDuration(envOrDefault("JWT_EXPIRY", "168h"), 168*time.Hour),
		BcryptCost: parseInt(envOrDefault("BCRYPT_COST", "10"), 10),
		Mongo: MongoConfig{
			URI:            strings.TrimSpace(os.Getenv("MONGO_URI")),
			Database:       envOrDefault("MONGO_DATABASE", "chatdesk"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: strings.TrimRight(envOrDefault("OPENROUTER_API", "https://openrouter.ai/api/v1"), "/"),
			APIKey:  strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			Model:   envOrDefault("OPENROUTER_MODEL", "gpt-4o-mini"),
			Timeout: parseDuration(envOrDefault("OPENROUTER_TIMEOUT", "30s"), 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Window: parseDuration(envOrDefault("RATE_LIMIT_WINDOW", "1m"), time.Minute),
			Max:    parseInt(envOrDefault("RATE_LIMIT_MAX", "100"), 100),
		},
		Logging:     logging,
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		CORSOrigins: splitCSV(envOrDefault("CORS_ORIGINS", "http://localhost:5173")),
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(value string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return i
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
