package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Sweep        SweepConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WANOTIFY_APP_ENV" required:"true"`
	Port         string `envconfig:"WANOTIFY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WANOTIFY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WANOTIFY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WANOTIFY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WANOTIFY_DB_DSN"`
	Driver string `envconfig:"WANOTIFY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WANOTIFY_DB_HOST"`
	LegacyPort     int    `envconfig:"WANOTIFY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WANOTIFY_DB_USER"`
	LegacyPassword string `envconfig:"WANOTIFY_DB_PASSWORD"`
	LegacyName     string `envconfig:"WANOTIFY_DB_NAME"`
	LegacySSLMode  string `envconfig:"WANOTIFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WANOTIFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WANOTIFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WANOTIFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WANOTIFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WANOTIFY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WANOTIFY_REDIS_ADDR"`
	Password     string        `envconfig:"WANOTIFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"WANOTIFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WANOTIFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WANOTIFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WANOTIFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WANOTIFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WANOTIFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig carries the app-level Shopify credentials. Per-shop channel
// credentials live in the shop_settings table, not here.
type ShopifyConfig struct {
	APISecret       string        `envconfig:"WANOTIFY_SHOPIFY_API_SECRET" required:"true"`
	WebhookDedupTTL time.Duration `envconfig:"WANOTIFY_SHOPIFY_WEBHOOK_DEDUP_TTL" default:"24h"`
}

// WebhookSecret is the key Shopify signs webhook deliveries with.
func (s ShopifyConfig) WebhookSecret() string {
	return s.APISecret
}

type SweepConfig struct {
	Interval time.Duration `envconfig:"WANOTIFY_SWEEP_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"WANOTIFY_SWEEP_LOCK_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WANOTIFY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WANOTIFY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
