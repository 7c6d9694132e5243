// Package config loads the service configuration from a YAML file and/or
// environment variables.
//
// Sources, highest priority first:
//  1. explicit path from the -config flag;
//  2. path in the CONFIG_PATH environment variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
//
// When a file is used, environment variables are overlaid on top of it.
// A .env file in the working directory, if present, is loaded into the
// environment first; variables already set are not overridden.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root configuration. It is built once at startup and never
// mutated afterwards.
type Config struct {
	Env      string        `yaml:"env"       env:"APP_ENV"   env-default:"development"`
	LogLevel string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	Storage  StorageConfig `yaml:"storage"`
	CORS     CORSConfig    `yaml:"cors"`
}

// HTTPConfig holds listener settings and server timeouts.
type HTTPConfig struct {
	Host            string        `yaml:"host"             env:"HTTP_HOST"             env-default:"0.0.0.0"`
	Port            string        `yaml:"port"             env:"PORT"                  env-default:"5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"HTTP_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig holds token and password hashing parameters.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"JWT_SECRET"  env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"JWT_TTL"     env-default:"168h"`
	Issuer     string        `yaml:"issuer"      env:"JWT_ISSUER"  env-default:"dating-profiles"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// StorageConfig selects the user store backend and how to reach it.
type StorageConfig struct {
	Driver        string `yaml:"driver"         env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath    string `yaml:"sqlite_path"    env:"SQLITE_PATH"    env-default:"data/users.db"`
	PostgresURL   string `yaml:"postgres_url"   env:"DATABASE_URL"`
	MongoURL      string `yaml:"mongo_url"      env:"MONGO_URL"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"dating"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads the configuration by the priority described in the package doc
// and validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config

	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		// ReadConfig overlays the environment after parsing the file.
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config %q: %w", p, err)
		}
		return nil
	}

	switch {
	case path != "":
		if err := readFile(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	case fileExists("local.yaml"):
		if err := readFile("local.yaml"); err != nil {
			return nil, err
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide -config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d outside [4, 31]", c.Auth.BcryptCost))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMongo:
		if c.Storage.MongoURL == "" {
			errs = append(errs, errors.New("MONGO_URL is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q (want sqlite, postgres or mongo)", c.Storage.Driver))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
