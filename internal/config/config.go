package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"kiosk_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the kiosk backend.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Kiosk    KioskConfig    `yaml:"kiosk"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig selects the store. Driver is "sqlite" (embedded, default) or "postgres".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// CommitRetries bounds retries of a transaction that hit a busy/locked store.
	CommitRetries uint64 `yaml:"commit_retries"`
}

type KioskConfig struct {
	VATRate      string        `yaml:"vat_rate"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	UndoLimit    int           `yaml:"undo_limit"`
	ReceiptDir   string        `yaml:"receipt_dir"`
	StoreName    string        `yaml:"store_name"`
	StoreAddress string        `yaml:"store_address"`
	StoreContact string        `yaml:"store_contact"`
	Currency     string        `yaml:"currency"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockoutDuration  time.Duration `yaml:"lockout_duration"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:               "8080",
			CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Database: DatabaseConfig{
			Driver:        "sqlite",
			Path:          "kiosk.db",
			Host:          "localhost",
			Port:          "5432",
			User:          "kiosk_user",
			Name:          "kiosk_db",
			SSLMode:       "disable",
			CommitRetries: 5,
		},
		Kiosk: KioskConfig{
			VATRate:      "0.12",
			IdleTimeout:  3 * time.Minute,
			UndoLimit:    50,
			ReceiptDir:   "receipts",
			StoreName:    "Dale Convenience",
			StoreAddress: "123 Market St., Barangay Central",
			StoreContact: "Nasugbu City | (+63) 912-345-6789",
			Currency:     "PHP",
		},
		Auth: AuthConfig{
			AccessTokenTTL:   8 * time.Hour,
			MaxLoginAttempts: 5,
			LockoutDuration:  5 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the optional YAML file at path, then applies environment overrides.
// A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = utils.Getenv("PORT", cfg.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.CORSAllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Database.Driver = utils.Getenv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = utils.Getenv("DB_PATH", cfg.Database.Path)
	cfg.Database.Host = utils.Getenv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = utils.Getenv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = utils.Getenv("DB_USER", cfg.Database.User)
	cfg.Database.Password = utils.Getenv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = utils.Getenv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = utils.Getenv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Kiosk.VATRate = utils.Getenv("KIOSK_VAT_RATE", cfg.Kiosk.VATRate)
	cfg.Kiosk.IdleTimeout = utils.GetenvDuration("KIOSK_IDLE_TIMEOUT", cfg.Kiosk.IdleTimeout)
	cfg.Kiosk.UndoLimit = utils.GetenvInt("KIOSK_UNDO_LIMIT", cfg.Kiosk.UndoLimit)
	cfg.Kiosk.ReceiptDir = utils.Getenv("RECEIPT_DIR", cfg.Kiosk.ReceiptDir)

	cfg.Auth.JWTSecret = utils.Getenv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL = utils.GetenvDuration("JWT_TTL", cfg.Auth.AccessTokenTTL)

	cfg.Log.Level = utils.Getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = utils.Getenv("LOG_FORMAT", cfg.Log.Format)
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	rate, err := c.Kiosk.VAT()
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("vat_rate must be in [0, 1), got %s", rate)
	}
	if c.Kiosk.UndoLimit <= 0 {
		return errors.New("undo_limit must be positive")
	}
	if c.Kiosk.IdleTimeout <= 0 {
		return errors.New("idle_timeout must be positive")
	}
	return nil
}

// VAT parses the configured VAT rate.
func (k KioskConfig) VAT() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(k.VATRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid vat_rate %q: %w", k.VATRate, err)
	}
	return rate, nil
}
