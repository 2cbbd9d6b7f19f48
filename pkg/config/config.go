package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Backend       BackendConfig
	AddressLookup AddressLookupConfig
	Shipping      ShippingConfig
	Cart          CartConfig
	Breaker       BreakerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.App.IsDev() && !cfg.App.IsProd() {
		return nil, fmt.Errorf("%s must be %q or %q, got %q", EnvAppEnv, AppEnvDev, AppEnvProd, cfg.App.Env)
	}
	if cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"VITRINE_APP_ENV" required:"true"`
	Port         string   `envconfig:"VITRINE_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"VITRINE_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"VITRINE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"VITRINE_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"VITRINE_APP_TIMEZONE" default:"America/Sao_Paulo"`
	CORSOrigins  []string `envconfig:"VITRINE_CORS_ORIGINS" default:"http://localhost:3000"`
	MaxBodyBytes int64    `envconfig:"VITRINE_MAX_BODY_BYTES" default:"1048576"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone used for merchant date buckets.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VITRINE_REDIS_URL"`
	Address      string        `envconfig:"VITRINE_REDIS_ADDR"`
	Password     string        `envconfig:"VITRINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITRINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITRINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITRINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITRINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITRINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITRINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BackendConfig points at the storefront data and order API.
type BackendConfig struct {
	BaseURL       string        `envconfig:"VITRINE_BACKEND_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"VITRINE_BACKEND_TIMEOUT" default:"10s"`
	StorefrontTTL time.Duration `envconfig:"VITRINE_STOREFRONT_CACHE_TTL" default:"60s"`
	SubmitLockTTL time.Duration `envconfig:"VITRINE_SUBMIT_LOCK_TTL" default:"30s"`
}

type AddressLookupConfig struct {
	BaseURL string        `envconfig:"VITRINE_CEP_BASE_URL" default:"https://viacep.com.br/ws"`
	Timeout time.Duration `envconfig:"VITRINE_CEP_TIMEOUT" default:"5s"`
}

type ShippingConfig struct {
	BaseURL          string        `envconfig:"VITRINE_SHIPPING_BASE_URL" default:"https://www.melhorenvio.com.br/api/v2"`
	Token            string        `envconfig:"VITRINE_SHIPPING_TOKEN"`
	OriginPostalCode string        `envconfig:"VITRINE_SHIPPING_ORIGIN_POSTAL_CODE" default:"01001000"`
	UserAgent        string        `envconfig:"VITRINE_SHIPPING_USER_AGENT" default:"vitrine-checkout (suporte@vitrine.app)"`
	Timeout          time.Duration `envconfig:"VITRINE_SHIPPING_TIMEOUT" default:"10s"`
}

// TokenFromEnv re-reads the shipping bearer token on every call so a rotated
// token applies without a restart. Falls back to the value loaded at boot.
func (s ShippingConfig) TokenFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvShippingTkn)); v != "" {
		return v
	}
	return s.Token
}

type CartConfig struct {
	TTL          time.Duration `envconfig:"VITRINE_CART_TTL" default:"720h"`
	CheckoutTTL  time.Duration `envconfig:"VITRINE_CHECKOUT_STATE_TTL" default:"24h"`
	LastOrderTTL time.Duration `envconfig:"VITRINE_LAST_ORDER_TTL" default:"168h"`
	WriteRetries int           `envconfig:"VITRINE_CART_WRITE_RETRIES" default:"5"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `envconfig:"VITRINE_BREAKER_MAX_REQUESTS" default:"1"`
	Interval         time.Duration `envconfig:"VITRINE_BREAKER_INTERVAL" default:"60s"`
	OpenTimeout      time.Duration `envconfig:"VITRINE_BREAKER_OPEN_TIMEOUT" default:"30s"`
	FailureThreshold uint32        `envconfig:"VITRINE_BREAKER_FAILURE_THRESHOLD" default:"5"`
}
