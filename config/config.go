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
	Server       ServerConfig       `envPrefix:"SERVER_"`
	Log          LogConfig          `envPrefix:"LOG_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Auth         AuthConfig         `envPrefix:"AUTH_"`
	AccessToken  AccessTokenConfig  `envPrefix:"ACCESS_TOKEN_"`
	RefreshToken RefreshTokenConfig `envPrefix:"REFRESH_TOKEN_"`
	RateLimit    RateLimitConfig    `envPrefix:"RATE_LIMIT_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"trove.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	SecretKey    string `env:"SECRET_KEY" envDefault:"change-me-in-production"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
}

type AccessTokenConfig struct {
	Expiry time.Duration `env:"EXPIRY" envDefault:"15m"`
}

type RefreshTokenConfig struct {
	Expiry          time.Duration `env:"EXPIRY" envDefault:"168h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Rate    int           `env:"RATE" envDefault:"10"`
	Period  time.Duration `env:"PERIOD" envDefault:"1m"`
}

func (c *AuthConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return cfg.Validate()
}

// Validate enforces the production hardening rules. Development environments
// may run with the defaults.
func (c *Config) Validate() error {
	if c.Auth.IsDevelopment() {
		return nil
	}

	weakSecrets := map[string]bool{
		"":                                    true,
		"change-me-in-production":             true,
		"dev-secret-key-change-in-production": true,
	}
	if weakSecrets[c.Auth.SecretKey] || len(c.Auth.SecretKey) < 32 {
		return fmt.Errorf("AUTH_SECRET_KEY must be a strong random value in production (min 32 chars)")
	}

	if strings.Contains(c.Database.DSN, "postgres:postgres@") {
		return fmt.Errorf("default database credentials must not be used in production")
	}

	return nil
}
