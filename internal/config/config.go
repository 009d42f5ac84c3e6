package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevSecretKey is the signing key used when SECRET_KEY is not configured.
// Validate refuses it outside development.
const DevSecretKey = "dev-secret-key-change-in-production"

type Config struct {
	Port                     string        `mapstructure:"PORT"`
	Env                      string        `mapstructure:"ENV"`
	LogLevel                 string        `mapstructure:"LOG_LEVEL"`
	LogFile                  string        `mapstructure:"LOG_FILE"`
	LogFileMaxSizeMB         int           `mapstructure:"LOG_FILE_MAX_SIZE_MB"`
	LogFileMaxBackups        int           `mapstructure:"LOG_FILE_MAX_BACKUPS"`
	LogFileMaxAgeDays        int           `mapstructure:"LOG_FILE_MAX_AGE_DAYS"`
	DatabaseURL              string        `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL                 string        `mapstructure:"REDIS_URL"`
	PatientCacheTTL          time.Duration `mapstructure:"PATIENT_CACHE_TTL"`
	SecretKey                string        `mapstructure:"SECRET_KEY"`
	AccessTokenExpireMinutes int           `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	CORSOrigins              []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS             float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst           int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit                string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout           time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	TLSEnabled               bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile              string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile               string        `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "LOG_FILE", "LOG_FILE_MAX_SIZE_MB", "LOG_FILE_MAX_BACKUPS",
	"LOG_FILE_MAX_AGE_DAYS", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"PATIENT_CACHE_TTL", "SECRET_KEY", "ACCESS_TOKEN_EXPIRE_MINUTES", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "REQUEST_TIMEOUT", "TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_FILE_MAX_BACKUPS", 5)
	v.SetDefault("LOG_FILE_MAX_AGE_DAYS", 30)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("PATIENT_CACHE_TTL", "5m")
	v.SetDefault("SECRET_KEY", DevSecretKey)
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:8080")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "2M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper hands back the raw string for env-provided lists
	if len(cfg.CORSOrigins) <= 1 {
		cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AccessTokenTTL is the lifetime of issued bearer tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Validate checks that the configuration is safe to run. Outside development
// the token signing key must be set explicitly.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.SecretKey == "" || c.SecretKey == DevSecretKey) {
		return fmt.Errorf("SECRET_KEY must be set when ENV=%q", c.Env)
	}
	if len(c.SecretKey) < 16 {
		return fmt.Errorf("SECRET_KEY must be at least 16 characters, got %d", len(c.SecretKey))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenExpireMinutes)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
