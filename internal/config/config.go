package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Stores  StoresConfig  `yaml:"stores"`
	Sync    SyncConfig    `yaml:"sync"`
	Cache   CacheConfig   `yaml:"cache"`
	Health  HealthConfig  `yaml:"health"`
	API     APIConfig     `yaml:"api"`
}

// StoresConfig configures the three backing stores.
type StoresConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig configures the relational store of record.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// MongoConfig configures the denormalized document store.
type MongoConfig struct {
	URI             string `yaml:"uri"`
	Database        string `yaml:"database"`
	SalesCollection string `yaml:"sales_collection"`
}

// RedisConfig configures the cache store.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SyncConfig configures write propagation and periodic reconciliation.
type SyncConfig struct {
	// Interval between reconciliation runs.
	Interval time.Duration `yaml:"interval"`
	// InitialDelay is the quiet period before the first run.
	InitialDelay time.Duration `yaml:"initial_delay"`
	// OpTimeout bounds every individual store call.
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// CacheConfig configures the aggregate result cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// HealthConfig configures the store liveness probes.
type HealthConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
		Stores: StoresConfig{
			Postgres: PostgresConfig{
				DSN:             "postgres://localhost:5432/salesync?sslmode=disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Mongo: MongoConfig{
				URI:             "mongodb://localhost:27017",
				Database:        "salesync",
				SalesCollection: "sales",
			},
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				DB:           0,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Sync: SyncConfig{
			Interval:     24 * time.Hour,
			InitialDelay: 24 * time.Hour,
			OpTimeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			TTL: time.Minute,
		},
		Health: HealthConfig{
			Interval:     5 * time.Minute,
			ProbeTimeout: 5 * time.Second,
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	c.Logging.ApplyDefaults()

	if c.Stores.Postgres.DSN == "" {
		c.Stores.Postgres.DSN = def.Stores.Postgres.DSN
	}
	if c.Stores.Postgres.MaxOpenConns <= 0 {
		c.Stores.Postgres.MaxOpenConns = def.Stores.Postgres.MaxOpenConns
	}
	if c.Stores.Postgres.MaxIdleConns <= 0 {
		c.Stores.Postgres.MaxIdleConns = def.Stores.Postgres.MaxIdleConns
	}
	if c.Stores.Postgres.ConnMaxLifetime <= 0 {
		c.Stores.Postgres.ConnMaxLifetime = def.Stores.Postgres.ConnMaxLifetime
	}
	if c.Stores.Mongo.URI == "" {
		c.Stores.Mongo.URI = def.Stores.Mongo.URI
	}
	if c.Stores.Mongo.Database == "" {
		c.Stores.Mongo.Database = def.Stores.Mongo.Database
	}
	if c.Stores.Mongo.SalesCollection == "" {
		c.Stores.Mongo.SalesCollection = def.Stores.Mongo.SalesCollection
	}
	if c.Stores.Redis.Addr == "" {
		c.Stores.Redis.Addr = def.Stores.Redis.Addr
	}
	if c.Stores.Redis.DialTimeout <= 0 {
		c.Stores.Redis.DialTimeout = def.Stores.Redis.DialTimeout
	}
	if c.Stores.Redis.ReadTimeout <= 0 {
		c.Stores.Redis.ReadTimeout = def.Stores.Redis.ReadTimeout
	}
	if c.Stores.Redis.WriteTimeout <= 0 {
		c.Stores.Redis.WriteTimeout = def.Stores.Redis.WriteTimeout
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = def.Sync.Interval
	}
	if c.Sync.InitialDelay <= 0 {
		c.Sync.InitialDelay = def.Sync.InitialDelay
	}
	if c.Sync.OpTimeout <= 0 {
		c.Sync.OpTimeout = def.Sync.OpTimeout
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = def.Cache.TTL
	}
	if c.Health.Interval <= 0 {
		c.Health.Interval = def.Health.Interval
	}
	if c.Health.ProbeTimeout <= 0 {
		c.Health.ProbeTimeout = def.Health.ProbeTimeout
	}
	if c.API.Addr == "" {
		c.API.Addr = def.API.Addr
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Stores.Redis.DB < 0 {
		return fmt.Errorf("stores.redis.db must not be negative, got %d", c.Stores.Redis.DB)
	}
	if c.Sync.OpTimeout >= c.Sync.Interval {
		return fmt.Errorf("sync.op_timeout (%s) must be shorter than sync.interval (%s)",
			c.Sync.OpTimeout, c.Sync.Interval)
	}
	if c.Health.ProbeTimeout >= c.Health.Interval {
		return fmt.Errorf("health.probe_timeout (%s) must be shorter than health.interval (%s)",
			c.Health.ProbeTimeout, c.Health.Interval)
	}
	return nil
}

// Load reads configuration files in order, later files overriding earlier
// ones, then applies defaults and validates. Missing files are skipped.
func Load(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range paths {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
