package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "pantrypal-dev-secret-change-me"

// Config holds all configuration for the application
type Config struct {
	Env Environment `mapstructure:"-"`

	// Server configuration
	ServerHost string `mapstructure:"SERVER_HOST"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Database configuration
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	DBSSLMode     string `mapstructure:"DB_SSL_MODE"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Auth
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTTTL        time.Duration `mapstructure:"JWT_TTL"`
	ResetTokenTTL time.Duration `mapstructure:"RESET_TOKEN_TTL"`

	// Redis backs the rate limiter; empty disables it.
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`

	// Email
	SMTPHost        string `mapstructure:"SMTP_HOST"`
	SMTPPort        string `mapstructure:"SMTP_PORT"`
	SMTPUsername    string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword    string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom       string `mapstructure:"EMAIL_FROM"`
	EmailFromName   string `mapstructure:"EMAIL_FROM_NAME"`
	ContactReceiver string `mapstructure:"CONTACT_RECEIVER"`

	// Upload storage
	StorageType        string `mapstructure:"STORAGE_TYPE"`
	UploadDir          string `mapstructure:"UPLOAD_DIR"`
	S3BucketName       string `mapstructure:"S3_BUCKET_NAME"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]interface{}{
	"SERVER_HOST":           "0.0.0.0",
	"SERVER_PORT":           "5001",
	"DB_DRIVER":             "postgres",
	"DATABASE_URL":          "",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "",
	"DB_NAME":               "pantrypal",
	"DB_SSL_MODE":           "disable",
	"SQLITE_PATH":           "pantrypal.db",
	"MONGO_URI":             "mongodb://localhost:27017",
	"MONGO_DATABASE":        "pantrypal",
	"JWT_SECRET":            defaultJWTSecret,
	"JWT_TTL":               "720h",
	"RESET_TOKEN_TTL":       "15m",
	"REDIS_URL":             "",
	"RATE_LIMIT_REQUESTS":   100,
	"RATE_LIMIT_WINDOW":     "15m",
	"ALLOWED_ORIGINS":       "http://localhost:5173",
	"FRONTEND_URL":          "http://localhost:5173",
	"SMTP_HOST":             "",
	"SMTP_PORT":             "587",
	"SMTP_USERNAME":         "",
	"SMTP_PASSWORD":         "",
	"EMAIL_FROM":            "no-reply@pantrypal.local",
	"EMAIL_FROM_NAME":       "PantryPal",
	"CONTACT_RECEIVER":      "",
	"STORAGE_TYPE":          "local",
	"UPLOAD_DIR":            "uploads",
	"S3_BUCKET_NAME":        "",
	"AWS_REGION":            "us-east-1",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"LOG_LEVEL":             "info",
}

// secretFields maps Docker secret file names to the config values they override.
func (c *Config) secretFields() map[string]*string {
	return map[string]*string{
		"jwt_secret":            &c.JWTSecret,
		"db_password":           &c.DBPassword,
		"database_url":          &c.DatabaseURL,
		"mongo_uri":             &c.MongoURI,
		"redis_url":             &c.RedisURL,
		"smtp_password":         &c.SMTPPassword,
		"aws_secret_access_key": &c.AWSSecretAccessKey,
	}
}

// LoadConfig reads .env (when present), the process environment and Docker
// secrets, in increasing order of precedence, then validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	env := GetEnvironment()
	cfg, err := load(viper.New())
	if err != nil {
		return nil, err
	}
	cfg.Env = env

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	for name, field := range cfg.secretFields() {
		if value := readSecret(name); value != "" {
			*field = value
		}
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	return cfg, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN returns DATABASE_URL when set, otherwise a DSN built from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
