package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GREENCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	TokenStoreFile   = "file"
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Env var names, exported for tests and docs.
const (
	EnvAppEnv          = "GREENCART_APP_ENV"
	EnvLogLevel        = "GREENCART_LOG_LEVEL"
	EnvCurrency        = "GREENCART_CURRENCY"
	EnvBackendURL      = "GREENCART_BACKEND_URL"
	EnvBackendTimeout  = "GREENCART_BACKEND_TIMEOUT"
	EnvTokenStore      = "GREENCART_TOKEN_STORE"
	EnvTokenFile       = "GREENCART_TOKEN_FILE"
	EnvTokenKey        = "GREENCART_TOKEN_KEY"
	EnvRedisURL        = "GREENCART_REDIS_URL"
	EnvRedisAddr       = "GREENCART_REDIS_ADDR"
	EnvCatalogFile     = "GREENCART_CATALOG_FILE"
	EnvMetricsEnabled  = "GREENCART_METRICS_ENABLED"
	EnvMetricsFile     = "GREENCART_METRICS_FILE"
	EnvCartPushTimeout = "GREENCART_CART_PUSH_TIMEOUT"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Session SessionConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Cart    CartConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GREENCART_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"GREENCART_LOG_LEVEL" default:"warn"`
	LogWarnStack bool   `envconfig:"GREENCART_LOG_WARN_STACK" default:"false"`
	Currency     string `envconfig:"GREENCART_CURRENCY" default:"$"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	URL       string        `envconfig:"GREENCART_BACKEND_URL" default:"http://localhost:4000"`
	Timeout   time.Duration `envconfig:"GREENCART_BACKEND_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"GREENCART_BACKEND_USER_AGENT" default:"greencart-client"`
}

type SessionConfig struct {
	Store     string `envconfig:"GREENCART_TOKEN_STORE" default:"file"`
	TokenFile string `envconfig:"GREENCART_TOKEN_FILE"`
	TokenKey  string `envconfig:"GREENCART_TOKEN_KEY" default:"token"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENCART_REDIS_URL"`
	Address      string        `envconfig:"GREENCART_REDIS_ADDR"`
	Password     string        `envconfig:"GREENCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENCART_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"GREENCART_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"GREENCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENCART_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"GREENCART_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type CatalogConfig struct {
	File string `envconfig:"GREENCART_CATALOG_FILE"`
}

type CartConfig struct {
	PushTimeout time.Duration `envconfig:"GREENCART_CART_PUSH_TIMEOUT" default:"10s"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"GREENCART_METRICS_ENABLED" default:"false"`
	File    string `envconfig:"GREENCART_METRICS_FILE"`
}

func (c *Config) validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Backend.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvBackendURL, c.Backend.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", EnvBackendURL, u.Scheme)
	}
	if c.App.IsProd() && u.Scheme != "https" {
		return fmt.Errorf("%s must use https when %s=%s", EnvBackendURL, EnvAppEnv, AppEnvProd)
	}
	c.Backend.URL = strings.TrimRight(u.String(), "/")

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendTimeout)
	}
	if c.Cart.PushTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartPushTimeout)
	}

	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	switch c.Session.Store {
	case TokenStoreFile, TokenStoreMemory:
	case TokenStoreRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s=redis requires %s or %s", EnvTokenStore, EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("%s must be one of file, memory, redis; got %q", EnvTokenStore, c.Session.Store)
	}
	if strings.TrimSpace(c.Session.TokenKey) == "" {
		return fmt.Errorf("%s must not be empty", EnvTokenKey)
	}
	return nil
}
