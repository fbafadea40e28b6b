package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	LogFormat   string

	DatabaseURL   string
	MigrationsDir string

	JWTSecret []byte

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	GatewayTimeout    time.Duration

	RedisAddr     string
	RedisPassword string
	CartCacheTTL  time.Duration

	KafkaBrokers       []string
	OrderEventsTopic   string
	OutboxPollInterval time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	AllowedOrigins []string
	SecureCookies  bool
}

// Load reads .env when present and falls back to the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("config_env_file_missing", "error", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "pulsepr"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		LogFormat:   EnvDefault("LOG_FORMAT", "json"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   EnvDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		GatewayTimeout:    EnvDurationDefault("GATEWAY_TIMEOUT", 10*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CartCacheTTL:  EnvDurationDefault("CART_CACHE_TTL", 15*time.Minute),

		KafkaBrokers:       CSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:   EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),
		OutboxPollInterval: EnvDurationDefault("OUTBOX_POLL_INTERVAL", 2*time.Second),

		RateLimitRPS:   EnvIntDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst: EnvIntDefault("RATE_LIMIT_BURST", 10),

		AllowedOrigins: CSVDefault(os.Getenv("ALLOWED_ORIGINS"), []string{"http://localhost:5173", "http://localhost:3000"}),
		SecureCookies:  EnvDefault("SECURE_COOKIES", "false") == "true",
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func CSVDefault(v string, def []string) []string {
	if out := CSV(v); len(out) > 0 {
		return out
	}
	return def
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
