// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	AWS         AWSConfig
	Domains     DomainsConfig
	Email       EmailConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"3333"`
	Host         string        `env:"SERVER_HOST" envDefault:"localhost"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	// MaxUploadSize caps a whole multipart request, in bytes.
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"31457280"`
}

type DatabaseConfig struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"postgres"`
	DSNOverride  string        `env:"DATABASE_DSN"`
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         string        `env:"DB_PORT" envDefault:"5432"`
	User         string        `env:"DB_USER" envDefault:"postgres"`
	Password     string        `env:"DB_PASSWORD"`
	Database     string        `env:"DB_NAME" envDefault:"bookswap"`
	SSLMode      string        `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	MaxLifetime  time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	LogLevel     string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
}

type JWTConfig struct {
	SecretKey string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
}

type StorageConfig struct {
	// Backend is "local" (TARGET_FOLDER on disk) or "s3".
	Backend      string `env:"STORAGE_BACKEND" envDefault:"local"`
	TargetFolder string `env:"TARGET_FOLDER" envDefault:"./images"`
	PublicPath   string `env:"IMAGES_PUBLIC_PATH" envDefault:"/images"`
	MaxImageSize int64  `env:"MAX_IMAGE_SIZE" envDefault:"10485760"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket        string `env:"AWS_S3_BUCKET"`
	CloudFrontURL   string `env:"AWS_CLOUDFRONT_URL"`
}

type DomainsConfig struct {
	Backend  string `env:"BACKEND_DOMAIN" envDefault:"localhost:3333"`
	Frontend string `env:"FRONTEND_DOMAIN" envDefault:"localhost:3000"`
}

type EmailConfig struct {
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@bookswap.local"`
	FromName     string `env:"FROM_NAME" envDefault:"BookSwap"`
	// AdminEmail receives activation requests for new listings.
	AdminEmail string `env:"ADMIN_EMAIL"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	ViewTTL  time.Duration `env:"REDIS_VIEW_TTL" envDefault:"10m"`
}

type NATSConfig struct {
	URL string `env:"NATS_URL"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type RateLimitConfig struct {
	// Requests per second per client; 0 disables the limiter.
	GeneralRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	GeneralBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	UploadPerMin float64 `env:"UPLOAD_LIMIT_PER_MINUTE" envDefault:"10"`
	UploadBurst  int     `env:"UPLOAD_LIMIT_BURST" envDefault:"10"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" && c.IsProduction() {
			return fmt.Errorf("database password is required in production")
		}
	case "sqlite":
		if c.Database.DSNOverride == "" {
			return fmt.Errorf("DATABASE_DSN is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.TargetFolder == "" {
			return fmt.Errorf("TARGET_FOLDER is required for local storage")
		}
	case "s3":
		if c.AWS.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	if !strings.HasPrefix(c.Storage.PublicPath, "/") {
		return fmt.Errorf("IMAGES_PUBLIC_PATH must start with '/'")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// BackendURL is the absolute base URL used for activation and image links.
func (d DomainsConfig) BackendURL() string {
	return absoluteURL(d.Backend)
}

func (d DomainsConfig) FrontendURL() string {
	return absoluteURL(d.Frontend)
}

func absoluteURL(domain string) string {
	domain = strings.TrimRight(domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "http://" + domain
}
