package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.ensureStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKBUDDY_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"BOOKBUDDY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BOOKBUDDY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BOOKBUDDY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the bookstore REST API.
type APIConfig struct {
	BaseURL    string        `envconfig:"BOOKBUDDY_API_BASE_URL" default:"http://localhost:8080"`
	PathPrefix string        `envconfig:"BOOKBUDDY_API_PATH_PREFIX" default:"/api/v1"`
	Timeout    time.Duration `envconfig:"BOOKBUDDY_API_TIMEOUT" default:"10s"`
	UserAgent  string        `envconfig:"BOOKBUDDY_API_USER_AGENT" default:"bookbuddy-storefront"`
}

func (a APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvAPITimeout)
	}
	return nil
}

// StorageConfig selects where the cart and session mirrors live.
type StorageConfig struct {
	Driver     string `envconfig:"BOOKBUDDY_STORAGE_DRIVER" default:"sqlite"`
	Namespace  string `envconfig:"BOOKBUDDY_STORAGE_NAMESPACE" default:"bookbuddy"`
	CartKey    string `envconfig:"BOOKBUDDY_STORAGE_CART_KEY" default:"cart"`
	SessionKey string `envconfig:"BOOKBUDDY_STORAGE_SESSION_KEY" default:"auth"`
}

type DBConfig struct {
	DSN        string `envconfig:"BOOKBUDDY_DB_DSN"`
	SQLitePath string `envconfig:"BOOKBUDDY_DB_SQLITE_PATH" default:"bookbuddy.db"`

	MaxOpenConns    int           `envconfig:"BOOKBUDDY_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"BOOKBUDDY_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKBUDDY_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKBUDDY_REDIS_URL"`
	Address      string        `envconfig:"BOOKBUDDY_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKBUDDY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKBUDDY_REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"BOOKBUDDY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKBUDDY_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"BOOKBUDDY_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (c *Config) ensureStorage() error {
	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.Driver = driver
	if strings.TrimSpace(c.Storage.CartKey) == "" || strings.TrimSpace(c.Storage.SessionKey) == "" {
		return fmt.Errorf("%s and %s must not be empty", EnvStorageCartKey, EnvStorageSessionKey)
	}
	switch driver {
	case StorageDriverSQLite:
		if strings.TrimSpace(c.DB.SQLitePath) == "" {
			return fmt.Errorf("%s is required for the sqlite driver", EnvDBSQLitePath)
		}
	case StorageDriverPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvDBDSN)
		}
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("%s must be one of %s, got %q", EnvStorageDriver, strings.Join(storageDrivers, ", "), c.Storage.Driver)
	}
	return nil
}
