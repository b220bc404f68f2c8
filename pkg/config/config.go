package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/arnavshah/duty-roster-go/pkg/calendar"
)

// ErrMissingSecret is returned when a signing secret is empty
var ErrMissingSecret = errors.New("missing secret")

// Config holds every setting the server and CLI read from the environment
type Config struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	DatabaseURL string `mapstructure:"database_url"`
	DataPath    string `mapstructure:"data_path"`

	JWTSecret       string        `mapstructure:"jwt_secret"`
	APIMasterSecret string        `mapstructure:"api_master_secret"`
	AdminUsername   string        `mapstructure:"admin_username"`
	AdminPassword   string        `mapstructure:"admin_password"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RateLimit       int           `mapstructure:"rate_limit"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	RosterFile  string `mapstructure:"roster_file"`
	DefaultYear int    `mapstructure:"default_year"`
}

var defaults = map[string]any{
	"port":              "8000",
	"gin_mode":          "release",
	"database_url":      "",
	"data_path":         "duty_roster.db",
	"jwt_secret":        "",
	"api_master_secret": "",
	"admin_username":    "admin",
	"admin_password":    "admin123",
	"token_ttl":         "24h",
	"rate_limit":        10000,
	"log_level":         "info",
	"log_format":        "json",
	"roster_file":       "",
	"default_year":      2026,
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads configuration from the environment, after any .env file
func Load() (*Config, error) {
	LoadDotEnv()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		// Keys map one to one onto upper-case variable names (PORT, DATABASE_URL, ...).
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail much later
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: PORT must not be empty")
	}
	if err := calendar.ValidateYear(c.DefaultYear); err != nil {
		return fmt.Errorf("config: DEFAULT_YEAR: %w", err)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: RATE_LIMIT must not be negative")
	}
	return nil
}

// Release reports whether gin runs in release mode
func (c *Config) Release() bool {
	return c.GinMode == "release"
}

// CheckSecrets fails when JWT_SECRET or API_MASTER_SECRET is empty. An empty
// master secret lets anyone sign a valid API key.
func (c *Config) CheckSecrets() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.APIMasterSecret == "" {
		missing = append(missing, "API_MASTER_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}
