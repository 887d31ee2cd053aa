package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// PostgreSQL
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// JWT
	JWTSecret            string
	JWTAccessExpiration  time.Duration
	JWTRefreshExpiration time.Duration

	// Device cloud
	CloudBaseURL      string
	CloudTimeoutSecs  int64
	ClientTTLSecs     int64
	SyncFanOut        int64
	DeviceCacheTTLSec int64

	// Energy aggregation
	EnergyIntervalSecs int64
	EnergyRatePerKWh   float64

	// Rate Limit
	RateLimitLoginMax    int64
	RateLimitLoginWindow int64
	RateLimitFailOpen    bool

	// CORS
	CORSAllowedOrigins string
	CORSAllowedMethods string
	CORSAllowedHeaders string

	// Ops notifications
	TelegramBotToken string
	TelegramChatID   string

	// Server shutdown
	ShutdownTimeoutSecs int64
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),

		PostgresHost:     getEnv("POSTGRES_HOST", "postgres"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "smarthome"),
		PostgresUser:     getEnv("POSTGRES_USER", "admin"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "admin"),

		RedisHost:     getEnv("REDIS_HOST", "redis"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTSecret:            getEnv("JWT_SECRET", "change-this-in-production-please"),
		JWTAccessExpiration:  time.Hour,
		JWTRefreshExpiration: 30 * 24 * time.Hour,

		CloudBaseURL:      getEnv("CLOUD_BASE_URL", "https://openapi.tuyaeu.com"),
		CloudTimeoutSecs:  getEnvInt64("CLOUD_TIMEOUT_SECS", 15),
		ClientTTLSecs:     getEnvInt64("CLOUD_CLIENT_TTL_SECS", 3600),
		SyncFanOut:        getEnvInt64("SYNC_FAN_OUT", 5),
		DeviceCacheTTLSec: getEnvInt64("DEVICE_CACHE_TTL_SECS", 300),

		EnergyIntervalSecs: getEnvInt64("ENERGY_INTERVAL_SECS", 3600),
		EnergyRatePerKWh:   getEnvFloat64("ENERGY_RATE_PER_KWH", 0.12),

		RateLimitLoginMax:    getEnvInt64("RATE_LIMIT_LOGIN_MAX", 10),
		RateLimitLoginWindow: getEnvInt64("RATE_LIMIT_LOGIN_WINDOW_SECS", 60),
		RateLimitFailOpen:    getEnvBool("RATE_LIMIT_FAIL_OPEN", true),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		CORSAllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
		CORSAllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Authorization,Content-Type"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		ShutdownTimeoutSecs: getEnvInt64("SHUTDOWN_TIMEOUT_SECS", 30),
	}
}

func (c *Config) PostgresURL() string {
	return "postgres://" + c.PostgresUser + ":" + c.PostgresPassword + "@" + c.PostgresHost + ":" + c.PostgresPort + "/" + c.PostgresDB
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) CloudTimeout() time.Duration {
	return time.Duration(c.CloudTimeoutSecs) * time.Second
}

func (c *Config) ClientTTL() time.Duration {
	return time.Duration(c.ClientTTLSecs) * time.Second
}

func (c *Config) EnergyInterval() time.Duration {
	return time.Duration(c.EnergyIntervalSecs) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat64(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
