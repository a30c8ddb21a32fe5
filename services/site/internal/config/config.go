package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kitapsever/pkg/storage"
)

// ConfigPath is the default location of the site config file.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	LogLevel       string        `yaml:"logLevel"`
	LogFile        string        `yaml:"logFile"`
	CatalogBaseURL string        `yaml:"catalogBaseURL"`
	CatalogTimeout string        `yaml:"catalogTimeout"`
	AccountURL     string        `yaml:"accountURL"`
	ServerComments bool          `yaml:"serverComments"`
	BookChat       bool          `yaml:"bookChat"`
	ChatRulesPath  string        `yaml:"chatRulesPath"`
	FeaturedLimit  int           `yaml:"featuredLimit"`
	DebounceDelay  string        `yaml:"debounceDelay"`
	ReplyDelay     string        `yaml:"replyDelay"`
	Storage        StorageConfig `yaml:"storage"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	QuotaBytes    int    `yaml:"quotaBytes"` // memory driver only
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

// Options maps the storage section onto storage.Open options.
func (s StorageConfig) Options() storage.Options {
	return storage.Options{
		Driver:        s.Driver,
		Path:          s.Path,
		QuotaBytes:    s.QuotaBytes,
		RedisAddr:     s.RedisAddr,
		RedisPassword: s.RedisPassword,
		RedisPrefix:   s.RedisPrefix,
	}
}

// Load reads config from path. A missing file at the default location is
// not an error: the site runs on defaults.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	explicit := path != ""
	if path == "" {
		path = ConfigPath
		if v := os.Getenv("SITE_CONFIG_PATH"); v != "" {
			path = v
			explicit = true
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SITE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CATALOG_BASE_URL"); v != "" {
		cfg.CatalogBaseURL = v
	}
	if v := os.Getenv("ACCOUNT_URL"); v != "" {
		cfg.AccountURL = v
	}
	if v := os.Getenv("SITE_SERVER_COMMENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ServerComments = b
		}
	}
	if v := os.Getenv("SITE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SITE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.RedisPassword = v
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = storage.DriverFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case storage.DriverFile:
			cfg.Storage.Path = "kitapsever-storage.json"
		case storage.DriverSQLite:
			cfg.Storage.Path = "kitapsever.db"
		}
	}
	if cfg.DebounceDelay == "" {
		cfg.DebounceDelay = "300ms"
	}
	if cfg.ReplyDelay == "" {
		cfg.ReplyDelay = "1s"
	}
	if cfg.CatalogTimeout == "" {
		cfg.CatalogTimeout = "10s"
	}
}

func validateConfig(cfg FileConfig) error {
	switch cfg.Storage.Driver {
	case storage.DriverMemory, storage.DriverFile, storage.DriverSQLite:
	case storage.DriverRedis:
		if strings.TrimSpace(cfg.Storage.RedisAddr) == "" {
			return errors.New("config: storage.redisAddr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.QuotaBytes < 0 {
		return errors.New("config: storage.quotaBytes must be >= 0")
	}
	if cfg.FeaturedLimit < 0 {
		return errors.New("config: featuredLimit must be >= 0")
	}
	if cfg.ServerComments && strings.TrimSpace(cfg.AccountURL) == "" {
		return errors.New("config: accountURL is required when serverComments is on")
	}
	for name, raw := range map[string]string{
		"debounceDelay":  cfg.DebounceDelay,
		"replyDelay":     cfg.ReplyDelay,
		"catalogTimeout": cfg.CatalogTimeout,
	} {
		if _, err := ParseDuration(name, raw); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ParseDuration parses a non-negative duration setting.
func ParseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s duration: %s is negative", name, raw)
	}
	return d, nil
}
