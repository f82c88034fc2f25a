package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	AllowOrigins    string
	TZDefault       string
	DBDriver        string // postgres, sqlite or json
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	DBPath          string // sqlite file or json snapshot file
	DBLogMode       bool
	JWTSecret       string
	SessionTTLHours int
	BcryptCost      int
	LogLevel        string
	Currency        string
	DailyWindowDays int
	SessionFile     string
}

var defaults = map[string]any{
	"PORT":              "8080",
	"ALLOW_ORIGINS":     "*",
	"TZ_DEFAULT":        "UTC",
	"DB_DRIVER":         "sqlite",
	"DB_HOST":           "localhost",
	"DB_PORT":           "5432",
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "",
	"DB_NAME":           "ledger",
	"DB_SSLMODE":        "disable",
	"DB_PATH":           "data/ledger.db",
	"DB_LOG_MODE":       false,
	"JWT_SECRET":        "change-me",
	"SESSION_TTL_HOURS": 24,
	"BCRYPT_COST":       10,
	"LOG_LEVEL":         "info",
	"CURRENCY":          "USD",
	"DAILY_WINDOW_DAYS": 7,
	"SESSION_FILE":      ".ledger_session",
}

// Load reads .env (if present), an optional yaml file and the process
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("PORT"),
		AllowOrigins:    v.GetString("ALLOW_ORIGINS"),
		TZDefault:       v.GetString("TZ_DEFAULT"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		DBSSLMode:       v.GetString("DB_SSLMODE"),
		DBPath:          v.GetString("DB_PATH"),
		DBLogMode:       v.GetBool("DB_LOG_MODE"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Currency:        strings.ToUpper(v.GetString("CURRENCY")),
		DailyWindowDays: v.GetInt("DAILY_WINDOW_DAYS"),
		SessionFile:     v.GetString("SESSION_FILE"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite", "json":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DailyWindowDays <= 0 {
		c.DailyWindowDays = 7
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 24
	}
	return nil
}

// SessionTTL is the lifetime of an issued session token.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Location resolves TZDefault, falling back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	return LoadLocationOr(c.TZDefault, "UTC")
}

func LoadLocationOr(requested, fallback string) *time.Location {
	if strings.TrimSpace(requested) == "" {
		requested = fallback
	}
	if loc, err := time.LoadLocation(requested); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc
	}
	return time.UTC
}
