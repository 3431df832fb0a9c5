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

// Gateway backends.
const (
	GatewayREST   = "rest"
	GatewayMySQL  = "mysql"
	GatewayMemory = "memory"
)

type Env struct {
	AppAddr        string        `yaml:"app_addr"`
	GinMode        string        `yaml:"gin_mode"`
	Gateway        string        `yaml:"gateway"`
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	DataFile       string        `yaml:"data_file"`
	MySQLDSN       string        `yaml:"mysql_dsn"`
	RedisAddr      string        `yaml:"redis_addr"`
	ConfirmSecret  string        `yaml:"confirm_secret"`
	CORSOrigins    []string      `yaml:"cors_allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxSessions    int           `yaml:"max_sessions"`
	LogFormat      string        `yaml:"log_format"`
}

func defaults() Env {
	return Env{
		AppAddr:        ":8080",
		Gateway:        GatewayMemory,
		BackendTimeout: 10 * time.Second,
		DataFile:       "data.json",
		SessionTTL:     30 * time.Minute,
		MaxSessions:    1000,
		LogFormat:      "text",
	}
}

// LoadEnv builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func LoadEnv() (Env, error) {
	env := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := env.overlayFile(path); err != nil {
			return Env{}, err
		}
	}
	if err := env.overlayEnv(os.Getenv); err != nil {
		return Env{}, err
	}
	return env, env.Validate()
}

// LoadFile is LoadEnv with an explicit config file, used by the CLI.
func LoadFile(path string) (Env, error) {
	env := defaults()
	if path != "" {
		if err := env.overlayFile(path); err != nil {
			return Env{}, err
		}
	}
	if err := env.overlayEnv(os.Getenv); err != nil {
		return Env{}, err
	}
	return env, nil
}

func (e *Env) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, e); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (e *Env) overlayEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("APP_ADDR", &e.AppAddr)
	str("GIN_MODE", &e.GinMode)
	str("GATEWAY", &e.Gateway)
	str("BACKEND_URL", &e.BackendURL)
	str("DATA_FILE", &e.DataFile)
	str("MYSQL_DSN", &e.MySQLDSN)
	str("REDIS_ADDR", &e.RedisAddr)
	str("CONFIRM_SECRET", &e.ConfirmSecret)
	str("LOG_FORMAT", &e.LogFormat)
	if v := strings.TrimSpace(getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		e.CORSOrigins = splitList(v)
	}
	e.Gateway = strings.ToLower(e.Gateway)
	if v := strings.TrimSpace(getenv("MAX_SESSIONS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("MAX_SESSIONS: must be a positive integer, got %q", v)
		}
		e.MaxSessions = n
	}
	if err := dur("BACKEND_TIMEOUT", &e.BackendTimeout); err != nil {
		return err
	}
	return dur("SESSION_TTL", &e.SessionTTL)
}

// Validate checks the gateway selection has what it needs.
func (e Env) Validate() error {
	switch e.Gateway {
	case GatewayREST:
		if e.BackendURL == "" {
			return errors.New("GATEWAY=rest requires BACKEND_URL")
		}
	case GatewayMySQL:
		if e.MySQLDSN == "" {
			return errors.New("GATEWAY=mysql requires MYSQL_DSN")
		}
	case GatewayMemory:
	default:
		return fmt.Errorf("unknown GATEWAY %q (rest, mysql or memory)", e.Gateway)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
