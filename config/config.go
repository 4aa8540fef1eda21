// Package config loads drafthub settings: defaults, then an optional YAML
// file, then environment variables (a .env file is read first if present).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	DiagAddr       string   `yaml:"diag_addr"` // metrics listener; empty disables it
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres (lib/pq) or pgx
	URL      string `yaml:"url"`    // wins over the individual fields
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`

	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	ConnectRetries  int    `yaml:"connect_retries"`
}

type SupabaseConfig struct {
	URL       string `yaml:"url"`
	AnonKey   string `yaml:"anon_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type GenerationConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			DiagAddr:       ":9999",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Port:            "5432",
			SSLMode:         "require",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: "30m",
			ConnectRetries:  5,
		},
		Generation: GenerationConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-chat",
			Timeout: "60s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Server.Addr, "DRAFTHUB_ADDR")
	set(&c.Server.DiagAddr, "DRAFTHUB_DIAG_ADDR")
	if origins := os.Getenv("DRAFTHUB_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Database.Driver, "DATABASE_DRIVER")
	// Supabase's connection snippet names
	set(&c.Database.Host, "host")
	set(&c.Database.Port, "port")
	set(&c.Database.User, "user")
	set(&c.Database.Password, "password")
	set(&c.Database.Name, "dbname")

	set(&c.Supabase.URL, "SUPABASE_URL")
	set(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	set(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")

	set(&c.Generation.APIKey, "DEEPSEEK_API_KEY")
	set(&c.Generation.BaseURL, "DEEPSEEK_BASE_URL")
	set(&c.Generation.Model, "DEEPSEEK_MODEL")

	set(&c.Logging.Level, "DRAFTHUB_LOG_LEVEL")
}

// DSN returns the connection string for database/sql.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

func (d DatabaseConfig) Lifetime() time.Duration {
	v, err := time.ParseDuration(d.ConnMaxLifetime)
	if err != nil {
		return 30 * time.Minute
	}
	return v
}

func (g GenerationConfig) TimeoutDuration() time.Duration {
	v, err := time.ParseDuration(g.Timeout)
	if err != nil || v <= 0 {
		return 60 * time.Second
	}
	return v
}

// Validate reports settings the server cannot start without. A missing
// generation key is allowed; generation calls fail individually instead.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		errs = append(errs, errors.New("database not configured (set DATABASE_URL or host/dbname)"))
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("invalid database driver: %s (valid: postgres, pgx)", c.Database.Driver))
	}
	if c.Supabase.JWTSecret == "" {
		errs = append(errs, errors.New("SUPABASE_JWT_SECRET not configured"))
	}
	if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY must both be set"))
	}
	return errors.Join(errs...)
}
