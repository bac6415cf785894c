package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName  string
	Env      string
	Host     string
	Port     int
	LogLevel string

	DatabaseDriver string // "sqlite" or "postgres"
	SQLitePath     string
	DatabaseURL    string

	JWTSecret           string
	AccessTokenMinutes  int
	RefreshTokenDays    int
	EncryptKey          string
	MessageMaxLength    int
	MessagePageSize     int
	SendBufferPerSocket int

	UploadDir   string
	CORSOrigins []string
}

func Load() (*Config, error) {
	// Best-effort: a missing .env is fine, real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "Messenger API"),
		Env:      getEnv("APP_ENV", "development"),
		Host:     getEnv("HTTP_HOST", "0.0.0.0"),
		Port:     getEnvAsInt("HTTP_PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "messenger.db"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		AccessTokenMinutes:  getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15),
		RefreshTokenDays:    getEnvAsInt("REFRESH_TOKEN_EXPIRE_DAYS", 30),
		EncryptKey:          os.Getenv("ENCRYPTION_KEY"),
		MessageMaxLength:    getEnvAsInt("MESSAGE_MAX_LENGTH", 1000),
		MessagePageSize:     getEnvAsInt("MESSAGE_PAGE_SIZE", 50),
		SendBufferPerSocket: getEnvAsInt("SEND_BUFFER_PER_SOCKET", 64),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		cfg.DatabaseURL = postgresURL()
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func postgresURL() string {
	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPass := getEnv("POSTGRES_PASSWORD", "postgres")
	dbName := getEnv("POSTGRES_DB", "messenger")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
