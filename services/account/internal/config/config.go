package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the account service config file.
var ConfigPath = "config.yaml"

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                      string   `yaml:"port"`
	LogLevel                  string   `yaml:"logLevel"`
	Store                     string   `yaml:"store"`
	DatabaseURL               string   `yaml:"databaseURL"`
	RedisAddr                 string   `yaml:"redisAddr"`
	RedisPassword             string   `yaml:"redisPassword"`
	JWTSecret                 string   `yaml:"jwtSecret"`
	JWTIssuer                 string   `yaml:"jwtIssuer"`
	JWTAudience               string   `yaml:"jwtAudience"`
	JWTLeeway                 string   `yaml:"jwtLeeway"`
	SessionTTL                string   `yaml:"sessionTTL"`
	CommentAuth               string   `yaml:"commentAuth"`
	AllowedOrigins            []string `yaml:"allowedOrigins"`
	TrustedProxyCIDRs         []string `yaml:"trustedProxyCidrs"`
	SignupRateLimitPerMinute  int      `yaml:"signupRateLimitPerMinute"`
	LoginRateLimitPerMinute   int      `yaml:"loginRateLimitPerMinute"`
	CommentRateLimitPerMinute int      `yaml:"commentRateLimitPerMinute"`
}

// Load reads config from path (defaults to ConfigPath, or ACCOUNT_CONFIG_PATH
// when set).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
		if v := os.Getenv("ACCOUNT_CONFIG_PATH"); v != "" {
			path = v
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	if cfg.Store == "" {
		cfg.Store = StorePostgres
	}
	if cfg.CommentAuth == "" {
		cfg.CommentAuth = "optional"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ACCOUNT_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWTIssuer = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		cfg.JWTAudience = v
	}
	if v := os.Getenv("JWT_LEEWAY"); v != "" {
		cfg.JWTLeeway = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("COMMENT_AUTH"); v != "" {
		cfg.CommentAuth = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitList(v)
	}
	if v := os.Getenv("ACCOUNT_SIGNUP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SignupRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ACCOUNT_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ACCOUNT_COMMENT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CommentRateLimitPerMinute = n
		}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres store (set DATABASE_URL)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown store %q (want postgres or memory)", cfg.Store)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set JWT_SECRET)")
	}
	switch cfg.CommentAuth {
	case "optional", "required":
	default:
		return fmt.Errorf("config: commentAuth must be optional or required, got %q", cfg.CommentAuth)
	}
	if cfg.SignupRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 || cfg.CommentRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.SignupRateLimitPerMinute+cfg.LoginRateLimitPerMinute+cfg.CommentRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when rate limits are enabled")
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ParseJWTLeeway(cfg.JWTLeeway); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseSessionTTL parses optional session TTL duration string.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid sessionTTL duration: %s is negative", ttlStr)
	}
	return dur, nil
}

// ParseJWTLeeway parses optional JWT leeway duration string.
func ParseJWTLeeway(leewayStr string) (time.Duration, error) {
	if leewayStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(leewayStr)
	if err != nil {
		return 0, fmt.Errorf("invalid jwtLeeway duration: %w", err)
	}
	return dur, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
