package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"MiniShop/pkg/kit"
)

const minGatewaySecretLen = 32

var ErrInvalid = errors.New("invalid config")

// Common holds the knobs every service reads.
type Common struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsToken    string        `env:"METRICS_TOKEN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Users struct {
	Common
	Port       string        `env:"PORT" envDefault:"8081"`
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"15m"`
	Hasher     string        `env:"PASSWORD_HASHER" envDefault:"bcrypt"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	SignInPerMin int `env:"SIGNIN_PER_MIN" envDefault:"5"`
	SignUpPerMin int `env:"SIGNUP_PER_MIN" envDefault:"3"`

	// Peers allowed to name the client in X-Forwarded-For, usually the gateway.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

func (c *Users) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: PORT is empty", ErrInvalid)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is empty", ErrInvalid)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: TOKEN_TTL must be positive", ErrInvalid)
	}
	if c.Hasher != "bcrypt" && c.Hasher != "plain" {
		return fmt.Errorf("%w: PASSWORD_HASHER must be bcrypt or plain, got %q", ErrInvalid, c.Hasher)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: BCRYPT_COST out of range [%d,%d]", ErrInvalid, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SignInPerMin <= 0 || c.SignUpPerMin <= 0 {
		return fmt.Errorf("%w: rate limits must be positive", ErrInvalid)
	}
	if _, err := kit.ParsePrefixes(c.TrustedProxies); err != nil {
		return fmt.Errorf("%w: TRUSTED_PROXIES: %v", ErrInvalid, err)
	}
	return nil
}

type Catalog struct {
	Common
	Port        string `env:"PORT" envDefault:"8082"`
	DatabaseURL string `env:"DATABASE_URL"`
}

func (c *Catalog) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: PORT is empty", ErrInvalid)
	}
	return nil
}

type Gateway struct {
	Common
	Port       string `env:"PORT" envDefault:"8080"`
	JWTSecret  string `env:"JWT_SECRET"`
	UsersURL   string `env:"USERS_URL" envDefault:"http://users:8081"`
	CatalogURL string `env:"CATALOG_URL" envDefault:"http://catalog:8082"`
}

func (c *Gateway) Validate() error {
	if len(c.JWTSecret) < minGatewaySecretLen {
		return fmt.Errorf("%w: JWT_SECRET is required and must be at least %d chars", ErrInvalid, minGatewaySecretLen)
	}
	if c.UsersURL == "" || c.CatalogURL == "" {
		return fmt.Errorf("%w: upstream urls are required", ErrInvalid)
	}
	return nil
}

type validatable interface {
	Validate() error
}

// Load fills cfg from an optional .env file and the process environment,
// then validates it. Real environment variables win over .env entries.
func Load(cfg validatable) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.Validate()
}
