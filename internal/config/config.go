package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values like "15m" parse directly
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Database struct {
		Dialect string `yaml:"dialect"` // "sqlite3" or "postgres"
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret       string   `yaml:"jwt_secret"`
		AccessTokenTTL  Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL Duration `yaml:"refresh_token_ttl"`
	} `yaml:"auth"`

	// Rates are fractions, e.g. 0.029 for 2.9%. All three are required;
	// missing or non-positive rates are a startup-time fatal condition.
	Rates struct {
		BaseTransaction    float64 `yaml:"base_transaction"`
		VAT                float64 `yaml:"vat"`
		PlatformCommission float64 `yaml:"platform_commission"`
	} `yaml:"rates"`

	Orders struct {
		// MinimumLeadTime is the smallest allowed gap between placing an
		// order and its requested delivery time.
		MinimumLeadTime Duration `yaml:"minimum_lead_time"`
	} `yaml:"orders"`

	Slip struct {
		// EnforceDuplicateRef rejects a slip whose reference code already
		// appears on another order of the same calendar day. When false the
		// collision is only logged.
		EnforceDuplicateRef bool     `yaml:"enforce_duplicate_ref"`
		TimeTolerance       Duration `yaml:"time_tolerance"`
	} `yaml:"slip"`

	OCR struct {
		Provider string `yaml:"provider"` // "openai"
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
	} `yaml:"ocr"`

	LogLevel string `yaml:"log_level"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with sane development defaults.
// Commission rates have no default: they must come from the file.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Dialect = "sqlite3"
	cfg.Database.DSN = "foodcourt.db"
	cfg.Auth.AccessTokenTTL = Duration(15 * time.Minute)
	cfg.Auth.RefreshTokenTTL = Duration(7 * 24 * time.Hour)
	cfg.Orders.MinimumLeadTime = Duration(30 * time.Minute)
	cfg.Slip.EnforceDuplicateRef = true
	cfg.Slip.TimeTolerance = Duration(15 * time.Minute)
	cfg.OCR.Provider = "openai"
	cfg.OCR.Language = "tha"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090
	cfg.Metrics.Path = "/metrics"
	return cfg
}

// Validate checks the required settings. A config failing validation must
// abort startup rather than surface per-request errors later.
func (c *Config) Validate() error {
	if c.Rates.BaseTransaction <= 0 {
		return fmt.Errorf("config: rates.base_transaction must be a positive fraction")
	}
	if c.Rates.VAT <= 0 {
		return fmt.Errorf("config: rates.vat must be a positive fraction")
	}
	if c.Rates.PlatformCommission <= 0 {
		return fmt.Errorf("config: rates.platform_commission must be a positive fraction")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	if c.Orders.MinimumLeadTime <= 0 {
		return fmt.Errorf("config: orders.minimum_lead_time must be positive")
	}
	switch c.Database.Dialect {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("config: unsupported database dialect %q", c.Database.Dialect)
	}
	return nil
}
