package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	MongoURI        string
	MongoDatabase   string
	RedisURI        string        // Empty disables the session cache
	SessionCacheTTL time.Duration // How long a resolved session stays in Redis
	JWTSecret       string
	TokenTTL        time.Duration // 0 means issued tokens never expire
	Port            string
	AllowedOrigins  []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	AllowedHost     string   // ALLOWED_HOST: bare hostname enforced in production; empty disables
	Environment     string   // ENV: production, development, etc.
	LogLevel        slog.Level
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	mongoURI := getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/leadcrm"))

	return &Config{
		MongoURI:        mongoURI,
		MongoDatabase:   getEnv("MONGODB_DATABASE", databaseFromURI(mongoURI, "leadcrm")),
		RedisURI:        strings.TrimSpace(os.Getenv("REDIS_URI")),
		SessionCacheTTL: getDuration("SESSION_CACHE_TTL", 5*time.Minute),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		TokenTTL:        getDuration("TOKEN_TTL", 0),
		Port:            getEnv("PORT", "3000"),
		AllowedOrigins:  allowedOrigins,
		AllowedHost:     strings.TrimSpace(os.Getenv("ALLOWED_HOST")),
		Environment:     env,
		LogLevel:        parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// databaseFromURI extracts the path segment of a mongodb:// URI, e.g.
// mongodb://host:27017/leadcrm?retryWrites=true -> leadcrm.
func databaseFromURI(uri, fallback string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return fallback
	}
	name := strings.Split(rest[idx+1:], "?")[0]
	if name == "" {
		return fallback
	}
	return name
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// SessionCacheEnabled reports whether a Redis URI was configured.
func (c *Config) SessionCacheEnabled() bool {
	return c.RedisURI != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}
