package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	Database           DatabaseConfig
	RedisAddress       string
	GCSBucket          string
	GCSCredentialsJSON string
	PubSubProjectID    string
	PubSubTopic        string
	PubSubCredJSON     string
	SFTP               SFTPConfig
	UploadDir          string
	CORSAllowedOrigins []string
	SkipMigrations     bool
	RateLimit          RateLimitConfig
}

// RateLimitConfig throttles requests per client IP. It needs Redis.
type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int64
	Window      time.Duration
}

type SFTPConfig struct {
	Password       string
	KeyFile        string
	KnownHostsFile string
	Timeout        time.Duration
}

const (
	defaultPort      = "8080"
	defaultUploadDir = "uploads"
	DriverMySQL      = "mysql"
	DriverSQLite     = "sqlite"
)

// Load reads .env (when present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:     stringFromEnv("PORT", defaultPort),
		Env:      strings.TrimSpace(os.Getenv("GO_ENV")),
		LogLevel: stringFromEnv("LOG_LEVEL", "error"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(stringFromEnv("DB_DRIVER", DriverSQLite)),
			User:            os.Getenv("DB_USER"),
			Password:        os.Getenv("DB_PASSWORD"),
			Host:            os.Getenv("DB_HOST"),
			Port:            stringFromEnv("DB_PORT", "3306"),
			Name:            os.Getenv("DB_NAME"),
			Path:            stringFromEnv("DB_PATH", "stockcount.db"),
			MaxOpenConns:    intFromEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    intFromEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		},
		RedisAddress:       strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		GCSBucket:          strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		GCSCredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		PubSubProjectID:    pubSubProjectID(),
		PubSubTopic:        stringFromEnv("PUBSUB_TOPIC", "inventory-events"),
		PubSubCredJSON:     os.Getenv("PUBSUB_CREDENTIALS_JSON"),
		SFTP: SFTPConfig{
			Password:       os.Getenv("SFTP_PASSWORD"),
			KeyFile:        os.Getenv("SFTP_KEY_FILE"),
			KnownHostsFile: os.Getenv("SFTP_KNOWN_HOSTS"),
			Timeout:        time.Duration(intFromEnv("SFTP_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		UploadDir:          stringFromEnv("UPLOAD_DIR", defaultUploadDir),
		CORSAllowedOrigins: SplitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		SkipMigrations:     strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true"),
		RateLimit: RateLimitConfig{
			Enabled:     strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true"),
			MaxRequests: int64(intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)),
			Window:      time.Duration(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		},
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func pubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run sets this.
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
