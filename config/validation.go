package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration against the rules of cfg.Env.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.ServerPort == "" {
		add("SERVER_PORT", "is required")
	}
	if cfg.JWTSecret == "" {
		add("JWT_SECRET", "is required")
	}
	if cfg.JWTTTL <= 0 {
		add("JWT_TTL", "must be positive")
	}
	if cfg.ResetTokenTTL <= 0 {
		add("RESET_TOKEN_TTL", "must be positive")
	}
	if cfg.RateLimitRequests < 1 || cfg.RateLimitWindow <= 0 {
		add("RATE_LIMIT_REQUESTS", "limit and window must be positive")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" && (cfg.DBHost == "" || cfg.DBName == "") {
			add("DATABASE_URL", "DATABASE_URL or DB_HOST and DB_NAME are required for postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for sqlite")
		}
	case "mongo":
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			add("MONGO_URI", "MONGO_URI and MONGO_DATABASE are required for mongo")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	switch cfg.StorageType {
	case "local":
		if cfg.UploadDir == "" {
			add("UPLOAD_DIR", "is required for local storage")
		}
	case "s3":
		if cfg.S3BucketName == "" {
			add("S3_BUCKET_NAME", "is required for s3 storage")
		}
	default:
		add("STORAGE_TYPE", fmt.Sprintf("unsupported storage type %q", cfg.StorageType))
	}

	if cfg.Env.IsProduction() {
		if cfg.JWTSecret == defaultJWTSecret || len(cfg.JWTSecret) < 32 {
			add("JWT_SECRET", "must be changed from the default and be at least 32 characters in production")
		}
		if cfg.DBDriver == "postgres" && cfg.DatabaseURL == "" && cfg.DBPassword == "" {
			add("DB_PASSWORD", "is required in production")
		}
		if cfg.DBDriver == "sqlite" {
			add("DB_DRIVER", "sqlite is not supported in production")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
