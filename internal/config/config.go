package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	ModeHTTP  = "http"
	ModeStdio = "stdio"
)

// DefaultSessionSecret signs cookies when no secret is configured. Anyone
// who knows it can forge a cookie, so HTTP deployments must override it.
const DefaultSessionSecret = "change-me-wardbudget-session-key"

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	DB      DBConfig      `yaml:"db" json:"db"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Sync    SyncConfig    `yaml:"sync" json:"sync"`
	Session SessionConfig `yaml:"session" json:"session"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	Mode string `yaml:"mode" json:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path" json:"path"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// SyncConfig selects the shared NATS store. When disabled, proposals and
// votes persist to the local database only.
type SyncConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	NATSURL  string `yaml:"nats_url" json:"nats_url"`
	Embedded bool   `yaml:"embedded" json:"embedded"`
	StoreDir string `yaml:"store_dir" json:"store_dir"`
	Bucket   string `yaml:"bucket" json:"bucket"`
}

type SessionConfig struct {
	Secret       string `yaml:"secret" json:"secret"`
	SecureCookie bool   `yaml:"secure_cookie" json:"secure_cookie"`
	// IdleTimeout logs out sessions with no requests for this long. Zero
	// keeps sessions until logout.
	IdleTimeout Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// Duration is a time.Duration written as "30m" in config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: ModeHTTP,
		},
		DB: DBConfig{
			Path: "wardbudget.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Sync: SyncConfig{
			NATSURL:  "nats://127.0.0.1:4222",
			StoreDir: "nats-data",
			Bucket:   "kcde-kolhapur",
		},
		Session: SessionConfig{
			Secret:      DefaultSessionSecret,
			IdleTimeout: Duration(30 * time.Minute),
		},
	}
}

// Load reads configuration from the file named by WARDBUDGET_CONFIG_PATH, if
// any, and environment variables.
func Load() (Config, error) {
	return LoadPath(os.Getenv("WARDBUDGET_CONFIG_PATH"))
}

// LoadPath reads configuration from an optional YAML or JSON(C) file and
// environment variables. Environment variables win.
func LoadPath(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("WARDBUDGET_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("WARDBUDGET_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid WARDBUDGET_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("WARDBUDGET_TRANSPORT"); mode != "" {
		cfg.Server.Mode = mode
	}
	if dbPath := os.Getenv("WARDBUDGET_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("WARDBUDGET_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if enabled := os.Getenv("WARDBUDGET_SYNC_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid WARDBUDGET_SYNC_ENABLED: %w", err)
		}
		cfg.Sync.Enabled = v
	}
	if url := os.Getenv("WARDBUDGET_NATS_URL"); url != "" {
		cfg.Sync.NATSURL = url
	}
	if embedded := os.Getenv("WARDBUDGET_NATS_EMBEDDED"); embedded != "" {
		v, err := strconv.ParseBool(embedded)
		if err != nil {
			return fmt.Errorf("invalid WARDBUDGET_NATS_EMBEDDED: %w", err)
		}
		cfg.Sync.Embedded = v
	}
	if dir := os.Getenv("WARDBUDGET_NATS_STORE_DIR"); dir != "" {
		cfg.Sync.StoreDir = dir
	}
	if bucket := os.Getenv("WARDBUDGET_SYNC_BUCKET"); bucket != "" {
		cfg.Sync.Bucket = bucket
	}
	if secret := os.Getenv("WARDBUDGET_SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = secret
	}
	if idle := os.Getenv("WARDBUDGET_SESSION_IDLE_TIMEOUT"); idle != "" {
		v, err := time.ParseDuration(idle)
		if err != nil {
			return fmt.Errorf("invalid WARDBUDGET_SESSION_IDLE_TIMEOUT: %w", err)
		}
		cfg.Session.IdleTimeout = Duration(v)
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case ModeHTTP, ModeStdio:
	default:
		errs = append(errs, fmt.Errorf("server.mode must be %q or %q, got %q", ModeHTTP, ModeStdio, c.Server.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q not recognized", c.Log.Level))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Sync.Enabled {
		if c.Sync.Bucket == "" {
			errs = append(errs, errors.New("sync.bucket is required when sync is enabled"))
		}
		if !c.Sync.Embedded && c.Sync.NATSURL == "" {
			errs = append(errs, errors.New("sync.nats_url is required unless sync.embedded is set"))
		}
	}
	if len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("session.secret must be at least 16 bytes"))
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.idle_timeout %s is negative", time.Duration(c.Session.IdleTimeout)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Warnings lists settings that are valid but unsafe for the chosen mode.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Server.Mode == ModeHTTP && c.Session.Secret == DefaultSessionSecret {
		warnings = append(warnings, "session.secret is the built-in default; set WARDBUDGET_SESSION_SECRET so cookies cannot be forged")
	}
	if c.Server.Mode == ModeHTTP && c.Session.IdleTimeout == 0 {
		warnings = append(warnings, "session.idle_timeout is 0; abandoned sessions are kept until restart")
	}
	return warnings
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}
	return nil
}
