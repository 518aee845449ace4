package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    int
	DBURL   string
	Storage string

	JWTSecret           string
	JWTAccessTTLMinutes int

	AdminEmail    string
	AdminUsername string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit         int
	AuthRateWindowSeconds int

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTelEndpoint string

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	WorkerConcurrency   int
	WorkerPollMillis    int
	WorkerLockTTLSecond int
	WorkerHealthPort    int
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

func Load() Config {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	return Config{
		Env:     getEnv("APP_ENV", "dev"),
		Port:    getEnvInt("PORT", 8080),
		DBURL:   getEnv("DATABASE_URL", buildDBURL()),
		Storage: getEnv("STORAGE", StoragePostgres),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60*24),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindowSeconds: getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "1025"),
		SMTPFrom: getEnv("SMTP_FROM", "noreply@reviewhub.local"),

		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollMillis:    getEnvInt("WORKER_POLL_MS", 250),
		WorkerLockTTLSecond: getEnvInt("WORKER_LOCK_TTL_SECONDS", 60),
		WorkerHealthPort:    getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateWindowSeconds) * time.Second
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "reviewhub")
	pass := getEnv("DB_PASSWORD", "reviewhub")
	name := getEnv("DB_NAME", "reviewhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
