package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig          `envPrefix:"APP_"`
	Server       ServerConfig       `envPrefix:"SERVER_"`
	Log          LogConfig          `envPrefix:"LOG_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	JWT          JWTConfig          `envPrefix:"JWT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"REFRESH_TOKEN_"`
	LoginGate    LoginGateConfig    `envPrefix:"LOGIN_GATE_"`
	RateLimit    RateLimitConfig    `envPrefix:"RATE_LIMIT_"`
	Upload       UploadConfig       `envPrefix:"UPLOAD_"`
}

type AppConfig struct {
	Name  string `env:"NAME" envDefault:"qore-backend"`
	URL   string `env:"URL" envDefault:"http://localhost:8080"`
	Debug bool   `env:"DEBUG" envDefault:"false"`
}

type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Host           string   `env:"HOST" envDefault:"localhost"`
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"qore.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig is optional: an empty host means the process runs on the
// in-memory cache driver from the start.
type RedisConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	MinLength      int  `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper   bool `env:"REQUIRE_UPPER" envDefault:"true"`
	RequireLower   bool `env:"REQUIRE_LOWER" envDefault:"true"`
	RequireNumber  bool `env:"REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial bool `env:"REQUIRE_SPECIAL" envDefault:"false"`
	BcryptCost     int  `env:"BCRYPT_COST" envDefault:"10"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY,required"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	Issuer       string        `env:"ISSUER" envDefault:"qore-backend"`
	Audience     string        `env:"AUDIENCE" envDefault:"qore-employees"`
	Algorithm    string        `env:"ALGORITHM" envDefault:"HS256"`
}

type RefreshTokenConfig struct {
	TokenLength     int           `env:"TOKEN_LENGTH" envDefault:"64"`
	Expiry          time.Duration `env:"EXPIRY" envDefault:"720h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

type LoginGateConfig struct {
	MaxAttempts     int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`
	AttemptWindow   time.Duration `env:"ATTEMPT_WINDOW" envDefault:"15m"`
}

type RateLimitConfig struct {
	Requests       int           `env:"REQUESTS" envDefault:"100"`
	Period         time.Duration `env:"PERIOD" envDefault:"15m"`
	CountMode      CountingMode  `env:"COUNT_MODE" envDefault:"all"`
	UploadRequests int           `env:"UPLOAD_REQUESTS" envDefault:"5"`
	UploadPeriod   time.Duration `env:"UPLOAD_PERIOD" envDefault:"1m"`
}

type UploadConfig struct {
	Dir             string `env:"DIR" envDefault:"uploads"`
	MaxPhotoSize    int64  `env:"MAX_PHOTO_SIZE" envDefault:"2097152"`
	MaxDocumentSize int64  `env:"MAX_DOCUMENT_SIZE" envDefault:"10485760"`
	MaxDocuments    int    `env:"MAX_DOCUMENTS" envDefault:"5"`
}

type CountingMode string

const (
	CountAll      CountingMode = "all"
	CountFailures CountingMode = "failures"
	CountSuccess  CountingMode = "success"
)

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return Validate(c)
	}

	return nil
}

func Validate(cfg *Config) error {
	if err := validateJWTConfig(&cfg.JWT); err != nil {
		return err
	}
	if err := validateRefreshTokenConfig(&cfg.RefreshToken); err != nil {
		return err
	}
	switch cfg.RateLimit.CountMode {
	case CountAll, CountFailures, CountSuccess:
	default:
		return fmt.Errorf("unsupported rate limit count mode: %s (supported: all, failures, success)", cfg.RateLimit.CountMode)
	}
	return nil
}

var weakSecretPatterns = []string{"password", "secret", "test", "example", "default", "change"}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters long")
	}

	lowered := strings.ToLower(cfg.SecretKey)
	for _, pattern := range weakSecretPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("JWT secret key contains weak patterns (%q)", pattern)
		}
	}

	if cfg.Algorithm != "HS256" {
		return fmt.Errorf("unsupported JWT algorithm: %s (supported: HS256)", cfg.Algorithm)
	}

	return nil
}

func validateRefreshTokenConfig(cfg *RefreshTokenConfig) error {
	if cfg.TokenLength < 16 {
		return fmt.Errorf("refresh token length must be at least 16 bytes")
	}
	if cfg.TokenLength > 128 {
		return fmt.Errorf("refresh token length cannot exceed 128 bytes")
	}
	return nil
}
