// Package config loads settings from an optional TOML file and then from
// WORKFLOW_* environment variables, which take precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath   string     `toml:"db_path"`
	HTTP     HTTPConfig `toml:"http"`
	Auth     AuthConfig `toml:"auth"`
	Log      LogConfig  `toml:"log"`
	Admin    AdminSeed  `toml:"admin"`
	Location string     `toml:"-"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// DefaultJWTSecret lets the CLI run out of the box. Tokens signed with it
// are forgeable by anyone who has read this file.
const DefaultJWTSecret = "change-me"

type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenTTLMin int    `toml:"token_ttl_min"`
}

// DefaultSecret reports whether tokens would be signed with DefaultJWTSecret.
func (a AuthConfig) DefaultSecret() bool {
	return a.JWTSecret == DefaultJWTSecret
}

// TokenTTL is the token lifetime as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMin) * time.Minute
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AdminSeed bootstraps the first admin when both fields are set and no user
// with that name exists yet.
type AdminSeed struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

func (a AdminSeed) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".workflow"), nil
}

// DefaultConfig returns settings usable without any file or environment.
func DefaultConfig() *Config {
	dbPath := "workflow.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "workflow.db")
	}
	return &Config{
		DBPath: dbPath,
		HTTP:   HTTPConfig{Addr: ":8080"},
		Auth:   AuthConfig{JWTSecret: DefaultJWTSecret, TokenTTLMin: 60 * 24},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Path returns $WORKFLOW_CONFIG or ~/.workflow/config.toml.
func Path() (string, error) {
	if p := os.Getenv("WORKFLOW_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at Path, if present, then applies environment
// overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		cfg.Location = path
	}
	applyEnv(cfg)
	cfg.DBPath = expandPath(cfg.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WORKFLOW_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WORKFLOW_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("WORKFLOW_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("WORKFLOW_TOKEN_TTL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Auth.TokenTTLMin = n
		}
	}
	if v := os.Getenv("WORKFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WORKFLOW_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WORKFLOW_ADMIN_USERNAME"); v != "" {
		cfg.Admin.Username = v
	}
	if v := os.Getenv("WORKFLOW_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (expected text or json)", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Auth.TokenTTLMin <= 0 {
		return fmt.Errorf("auth.token_ttl_min must be positive, got %d", c.Auth.TokenTTLMin)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
