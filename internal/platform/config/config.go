package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string // "development" or "production"
	APIPort string

	JWTSecret []byte
	JWTExp    time.Duration
	CookieExp time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitMax    int
	RateLimitWindow time.Duration

	SendGridAPIKey string
	EmailSender    string
	EmailFromName  string
}

// IsDev reports whether the process runs in development mode, which controls
// error verbosity and cookie security flags.
func (c *Config) IsDev() bool { return c.Env != "production" }

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Env:     getEnv("APP_ENV", "development"),
		APIPort: getEnv("API_PORT", "8000"),

		JWTSecret: []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:    time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		CookieExp: time.Duration(getEnvAsInt("JWT_COOKIE_EXPIRES_IN_DAYS", 1)) * 24 * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "citylog_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow: time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "noreply@citylog.local"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "CityLog"),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
