package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	CORSOrigins     []string      `mapstructure:"cors_origins"` // empty disables CORS
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"` // apply migrations/ on startup
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig controls the wallet read cache.
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Timeout   time.Duration `mapstructure:"timeout"` // per cache call; exceeding it counts as a miss
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// WalletConfig holds the balance mutation policy.
type WalletConfig struct {
	DefaultDailyLimit string        `mapstructure:"default_daily_limit"`
	DepositWindow     time.Duration `mapstructure:"deposit_window"`
	MaxUpdateAttempts int           `mapstructure:"max_update_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

// DailyLimit parses DefaultDailyLimit as a decimal.
func (w WalletConfig) DailyLimit() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(w.DefaultDailyLimit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing wallet.default_daily_limit: %w", err)
	}
	if limit.IsNegative() {
		return decimal.Zero, fmt.Errorf("wallet.default_daily_limit must not be negative, got %s", limit)
	}
	return limit, nil
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"` // empty disables bearer authentication
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// Enabled reports whether bearer authentication is configured.
func (j JWTConfig) Enabled() bool {
	return j.Secret != ""
}

type RateLimitConfig struct {
	Enabled            bool  `mapstructure:"enabled"`
	MutationsPerMinute int64 `mapstructure:"mutations_per_minute"`
	ReadsPerMinute     int64 `mapstructure:"reads_per_minute"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WLT_.
// Nested keys use underscore: WLT_DATABASE_HOST, WLT_WALLET_DEFAULT_DAILY_LIMIT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wallets")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("database.connect_backoff", "2s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.timeout", "200ms")
	v.SetDefault("cache.key_prefix", "wallet:")
	v.SetDefault("wallet.default_daily_limit", "1000")
	v.SetDefault("wallet.deposit_window", "24h")
	v.SetDefault("wallet.max_update_attempts", 3)
	v.SetDefault("wallet.retry_backoff", "10ms")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "wallet-service")
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.mutations_per_minute", 60)
	v.SetDefault("ratelimit.reads_per_minute", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: WLT_DATABASE_HOST -> database.host
	v.SetEnvPrefix("WLT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints viper cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}
	if _, err := c.Wallet.DailyLimit(); err != nil {
		return err
	}
	if c.Wallet.MaxUpdateAttempts < 1 {
		return fmt.Errorf("wallet.max_update_attempts must be >= 1, got %d", c.Wallet.MaxUpdateAttempts)
	}
	if c.Wallet.DepositWindow <= 0 {
		return fmt.Errorf("wallet.deposit_window must be positive, got %s", c.Wallet.DepositWindow)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}
