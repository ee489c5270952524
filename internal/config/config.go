// Package config provides configuration management for namegroup.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

// Defaults.
const (
	DefaultPort      = 8420
	DefaultMaxConns  = 4
	DefaultQueueSize = 64
	DefaultWorkers   = 2
	DefaultListLimit = 100

	dataDirName  = ".namegroup"
	dbFileName   = "namegroup.db"
	settingsFile = "settings.json"
	profilesFile = "profiles.yaml"
)

// Config holds the service configuration.
type Config struct {
	Port      int    `json:"port"`
	DBDriver  string `json:"db_driver"`
	DBPath    string `json:"db_path"`
	DBDSN     string `json:"db_dsn"`
	MaxConns  int    `json:"max_conns"`
	QueueSize int    `json:"queue_size"`
	Workers   int    `json:"workers"`
	ListLimit int    `json:"list_limit"`
	Debug     bool   `json:"debug"`
}

var (
	mu      sync.RWMutex
	current *Config
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:      DefaultPort,
		DBDriver:  "sqlite",
		DBPath:    DBPath(),
		MaxConns:  DefaultMaxConns,
		QueueSize: DefaultQueueSize,
		Workers:   DefaultWorkers,
		ListLimit: DefaultListLimit,
	}
}

// DataDir returns the data directory path (~/.namegroup).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFile)
}

// ProfilesPath returns the delimiter profiles file path.
func ProfilesPath() string {
	return filepath.Join(DataDir(), profilesFile)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// Load reads the settings file, falling back to defaults for missing fields,
// and applies environment overrides. A missing settings file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg, nil
}

// Save writes the configuration to the settings file.
func Save(cfg *Config) error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(SettingsPath(), data, 0o644)
}

// Get returns the current configuration, loading it on first use.
func Get() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}

	cfg, err := Load()
	if err != nil {
		cfg = Default()
		mu.Lock()
		current = cfg
		mu.Unlock()
	}
	return cfg
}

// applyEnv overrides configuration fields from NAMEGROUP_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NAMEGROUP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("NAMEGROUP_DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("NAMEGROUP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("NAMEGROUP_DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := os.Getenv("NAMEGROUP_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}
