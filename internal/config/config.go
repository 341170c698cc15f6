package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendAirtable = "airtable"
	BackendSQLite   = "sqlite"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Airtable AirtableConfig `yaml:"airtable" json:"airtable"`
	SQLite   SQLiteConfig   `yaml:"sqlite" json:"sqlite"`
	Audit    AuditConfig    `yaml:"audit" json:"audit"`
	Oracle   OracleConfig   `yaml:"oracle" json:"oracle"`
	Prompts  PromptsConfig  `yaml:"prompts" json:"prompts"`
	Clients  ClientsConfig  `yaml:"clients" json:"clients"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// LogConfig sets the log level. Path, when set, sends logs to a size-capped
// file instead of stderr.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	Path  string `yaml:"path" json:"path"`
}

// AuthConfig guards the HTTP front door. An empty token disables auth.
type AuthConfig struct {
	Token string `yaml:"token" json:"token"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend"`
}

type AirtableConfig struct {
	APIKey        string   `yaml:"api_key" json:"api_key"`
	BaseID        string   `yaml:"base_id" json:"base_id"`
	BaseURL       string   `yaml:"base_url" json:"base_url"`
	ClientsTable  string   `yaml:"clients_table" json:"clients_table"`
	ProjectsTable string   `yaml:"projects_table" json:"projects_table"`
	UpdatesTable  string   `yaml:"updates_table" json:"updates_table"`
	Timeout       Duration `yaml:"timeout" json:"timeout"`
}

type SQLiteConfig struct {
	Path        string       `yaml:"path" json:"path"`
	SeedClients []SeedClient `yaml:"seed_clients" json:"seed_clients"`
}

// SeedClient is a client inserted into a SQLite registry on startup.
type SeedClient struct {
	Code          string `yaml:"code" json:"code"`
	Name          string `yaml:"name" json:"name"`
	TeamsID       string `yaml:"teams_id" json:"teams_id"`
	SharepointURL string `yaml:"sharepoint_url" json:"sharepoint_url"`
	NextNumber    int    `yaml:"next_number" json:"next_number"`
}

// AuditConfig enables the SQLite activity log of lifecycle actions.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

type OracleConfig struct {
	APIKey  string   `yaml:"api_key" json:"api_key"`
	BaseURL string   `yaml:"base_url" json:"base_url"`
	Model   string   `yaml:"model" json:"model"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

type PromptsConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

type ClientsConfig struct {
	ValidCodes    []string          `yaml:"valid_codes" json:"valid_codes"`
	InternalCodes []string          `yaml:"internal_codes" json:"internal_codes"`
	Domains       map[string]string `yaml:"domains" json:"domains"`
}

// Duration reads "10s"-style durations from YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: BackendAirtable,
		},
		Airtable: AirtableConfig{
			BaseURL:       "https://api.airtable.com/v0",
			ClientsTable:  "Clients",
			ProjectsTable: "Projects",
			UpdatesTable:  "Updates",
			Timeout:       Duration(10 * time.Second),
		},
		SQLite: SQLiteConfig{
			Path: "dot.db",
		},
		Audit: AuditConfig{
			Path: "dot-audit.db",
		},
		Oracle: OracleConfig{
			BaseURL: "https://api.anthropic.com",
			Model:   "claude-sonnet-4-20250514",
			Timeout: Duration(60 * time.Second),
		},
		Clients: ClientsConfig{
			ValidCodes:    []string{"ONE", "ONS", "SKY", "TOW", "FIS", "FST", "WKA", "HUN", "LAB", "EON", "OTH"},
			InternalCodes: []string{"HUN", "TBC"},
			Domains: map[string]string{
				"one.nz":            "ONE",
				"sky.co.nz":         "SKY",
				"tower.co.nz":       "TOW",
				"fisherfunds.co.nz": "FIS",
				"firestop.co.nz":    "FST",
				"whakarongorau.nz":  "WKA",
				"labour.org.nz":     "LAB",
				"eonfibre.co.nz":    "EON",
			},
		},
	}
}

// Load reads configuration from defaults, an optional file and environment
// variables, in that order. An empty path falls back to DOT_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DOT_CONFIG_PATH")
	}
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
	if host := os.Getenv("DOT_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	for _, name := range []string{"PORT", "DOT_SERVER_PORT"} {
		if portStr := os.Getenv(name); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			cfg.Server.Port = port
		}
	}
	if level := os.Getenv("DOT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("DOT_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if token := os.Getenv("DOT_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if backend := os.Getenv("DOT_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if key := os.Getenv("AIRTABLE_API_KEY"); key != "" {
		cfg.Airtable.APIKey = key
	}
	if base := os.Getenv("DOT_AIRTABLE_BASE_ID"); base != "" {
		cfg.Airtable.BaseID = base
	}
	if dbPath := os.Getenv("DOT_SQLITE_PATH"); dbPath != "" {
		cfg.SQLite.Path = dbPath
	}
	if enabled := os.Getenv("DOT_AUDIT_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid DOT_AUDIT_ENABLED: %w", err)
		}
		cfg.Audit.Enabled = v
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}
	if model := os.Getenv("DOT_ORACLE_MODEL"); model != "" {
		cfg.Oracle.Model = model
	}
	if dir := os.Getenv("DOT_PROMPTS_DIR"); dir != "" {
		cfg.Prompts.Dir = dir
	}
	return nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendAirtable:
		if c.Airtable.BaseID == "" {
			return fmt.Errorf("airtable.base_id is required for the airtable backend")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ParseLevel maps a config log level onto slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// loadFromFile reads YAML, or JSON with comments when the file ends in
// .json or .jsonc.
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
