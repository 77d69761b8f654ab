package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// DemoUserID is the account every "current user" endpoint acts on.
	DemoUserID   int64 `env:"DEMO_USER_ID,   default=1"`
	SeedDemoData bool  `env:"SEED_DEMO_DATA, default=true"`
	BcryptCost   int   `env:"BCRYPT_COST,    default=10"`

	Simulator SimulatorConfig
	Realtime  RealtimeConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type SimulatorConfig struct {
	Enabled              bool          `env:"SIM_ENABLED,               default=true"`
	AvailabilityInterval time.Duration `env:"SIM_AVAILABILITY_INTERVAL, default=30s"`
	RenewableInterval    time.Duration `env:"SIM_RENEWABLE_INTERVAL,    default=60s"`
	PersistRenewable     bool          `env:"SIM_PERSIST_RENEWABLE,     default=true"`
}

type RealtimeConfig struct {
	// AllowedOrigins lists accepted websocket Origin headers. Empty accepts any.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS"`
}

// MongoConfig enables the ledger journal when URI is set.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,        default=greenmiles"`
	Workers  int    `env:"JOURNAL_WORKERS, default=4"`
}

// RedisConfig enables the idempotency guard when Addr is set.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=10m"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DemoUserID <= 0 {
		return fmt.Errorf("DEMO_USER_ID must be positive, got %d", c.DemoUserID)
	}
	if c.Simulator.Enabled && (c.Simulator.AvailabilityInterval <= 0 || c.Simulator.RenewableInterval <= 0) {
		return fmt.Errorf("simulator intervals must be positive")
	}
	if c.Mongo.Workers <= 0 {
		return fmt.Errorf("JOURNAL_WORKERS must be positive, got %d", c.Mongo.Workers)
	}
	return nil
}
