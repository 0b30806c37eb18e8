package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "HOSTELMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv            = "HOSTELMART_APP_ENV"
	EnvPort              = "HOSTELMART_APP_PORT"
	EnvPlatformPort      = "PORT"
	EnvTimezone          = "HOSTELMART_TIMEZONE"
	EnvAdminPassword     = "HOSTELMART_ADMIN_PASSWORD"
	EnvAdminPasswordHash = "HOSTELMART_ADMIN_PASSWORD_HASH"
	EnvDeliveryFee       = "HOSTELMART_DELIVERY_FEE"
	EnvCancelWindow      = "HOSTELMART_CANCEL_WINDOW"
	EnvOpenStockWrites   = "HOSTELMART_OPEN_STOCK_WRITES"
	EnvStorageBackend    = "HOSTELMART_STORAGE_BACKEND"
	EnvStorageFilePath   = "HOSTELMART_STORAGE_FILE_PATH"
	EnvDBDSN             = "HOSTELMART_DB_DSN"
	EnvDBDriver          = "HOSTELMART_DB_DRIVER"
	EnvRedisURL          = "HOSTELMART_REDIS_URL"
	EnvRedisAddr         = "HOSTELMART_REDIS_ADDR"
	EnvVAPIDPublicKey    = "HOSTELMART_VAPID_PUBLIC_KEY"
	EnvVAPIDPrivateKey   = "HOSTELMART_VAPID_PRIVATE_KEY"
)

// Storage backends accepted by HOSTELMART_STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

type Config struct {
	App          AppConfig
	Shop         ShopConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Push         PushConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if port := strings.TrimSpace(os.Getenv(EnvPlatformPort)); port != "" {
		cfg.App.Port = port
	}
	if err := cfg.App.resolveLocation(); err != nil {
		return nil, err
	}
	if err := cfg.Shop.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HOSTELMART_APP_ENV" required:"true"`
	Port         string   `envconfig:"HOSTELMART_APP_PORT" default:"5000"`
	LogLevel     string   `envconfig:"HOSTELMART_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"HOSTELMART_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"HOSTELMART_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"HOSTELMART_TIMEZONE" default:"Asia/Kolkata"`
	CORSOrigins  []string `envconfig:"HOSTELMART_CORS_ORIGINS" default:"*"`
	StaticDir    string   `envconfig:"HOSTELMART_STATIC_DIR"`

	Location *time.Location `ignored:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

func (a *AppConfig) resolveLocation() error {
	loc, err := time.LoadLocation(strings.TrimSpace(a.Timezone))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvTimezone, a.Timezone, err)
	}
	a.Location = loc
	return nil
}

type ShopConfig struct {
	AdminPassword     string        `envconfig:"HOSTELMART_ADMIN_PASSWORD"`
	AdminPasswordHash string        `envconfig:"HOSTELMART_ADMIN_PASSWORD_HASH"`
	DeliveryFeeRaw    string        `envconfig:"HOSTELMART_DELIVERY_FEE" default:"10"`
	CancelWindow      time.Duration `envconfig:"HOSTELMART_CANCEL_WINDOW" default:"120s"`
	// OpenStockWrites lets POST /stock skip the admin password and reply
	// {"status":"saved"} for counter clients that never send one.
	OpenStockWrites bool `envconfig:"HOSTELMART_OPEN_STOCK_WRITES" default:"false"`

	DeliveryFee decimal.Decimal `ignored:"true"`
}

func (s *ShopConfig) validate() error {
	if s.AdminPassword == "" && s.AdminPasswordHash == "" {
		return fmt.Errorf("either %s or %s is required", EnvAdminPassword, EnvAdminPasswordHash)
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(s.DeliveryFeeRaw))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvDeliveryFee, s.DeliveryFeeRaw, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvDeliveryFee)
	}
	s.DeliveryFee = fee
	if s.CancelWindow <= 0 {
		return fmt.Errorf("%s must be positive", EnvCancelWindow)
	}
	return nil
}

type StorageConfig struct {
	Backend        string        `envconfig:"HOSTELMART_STORAGE_BACKEND" default:"file"`
	FilePath       string        `envconfig:"HOSTELMART_STORAGE_FILE_PATH" default:"data/store.json"`
	PersistTimeout time.Duration `envconfig:"HOSTELMART_PERSIST_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOSTELMART_DB_DSN"`
	Driver string `envconfig:"HOSTELMART_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"HOSTELMART_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"HOSTELMART_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"HOSTELMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOSTELMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL             string        `envconfig:"HOSTELMART_REDIS_URL"`
	Address         string        `envconfig:"HOSTELMART_REDIS_ADDR"`
	Password        string        `envconfig:"HOSTELMART_REDIS_PASSWORD"`
	DB              int           `envconfig:"HOSTELMART_REDIS_DB" default:"0"`
	PoolSize        int           `envconfig:"HOSTELMART_REDIS_POOL_SIZE" default:"5"`
	MinIdleConns    int           `envconfig:"HOSTELMART_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout     time.Duration `envconfig:"HOSTELMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout     time.Duration `envconfig:"HOSTELMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"HOSTELMART_REDIS_WRITE_TIMEOUT" default:"5s"`
	SnapshotLockTTL time.Duration `envconfig:"HOSTELMART_REDIS_SNAPSHOT_LOCK_TTL" default:"10s"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `envconfig:"HOSTELMART_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"HOSTELMART_VAPID_PRIVATE_KEY"`
	Subject         string        `envconfig:"HOSTELMART_VAPID_SUBJECT" default:"mailto:admin@hostelmart.local"`
	TTL             time.Duration `envconfig:"HOSTELMART_PUSH_TTL" default:"1h"`
	SendTimeout     time.Duration `envconfig:"HOSTELMART_PUSH_SEND_TIMEOUT" default:"10s"`
}

// HasVAPIDKeys reports whether a stable key pair was configured.
func (p PushConfig) HasVAPIDKeys() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOSTELMART_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validateStorage() error {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.Backend = backend
	switch backend {
	case BackendFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("%s is required for the file backend", EnvStorageFilePath)
		}
	case BackendPostgres, BackendSQLite:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the %s backend", EnvDBDSN, backend)
		}
		c.DB.Driver = backend
	case BackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageBackend, c.Storage.Backend)
	}
	return nil
}
