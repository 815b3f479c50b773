package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Game      GameConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StoreConfig selects where the single world document lives.
type StoreConfig struct {
	Backend  string `env:"STORE_BACKEND" envDefault:"sqlite"`
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
}

type PostgresConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"fleets"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"data/world.sqlite"`
}

type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Key      string `env:"REDIS_WORLD_KEY" envDefault:"fleets:world"`
}

type GameConfig struct {
	// TuningPath points at an optional YAML file overriding the rule constants.
	TuningPath string `env:"GAME_TUNING_PATH"`
}

type FrontendConfig struct {
	URL       string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CORSDebug bool   `env:"CORS_DEBUG" envDefault:"false"`
}

type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"debug"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	JSONFormat bool   `env:"-"`
}

type RateLimitConfig struct {
	Enabled           bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerSecond float64 `env:"RATE_LIMIT_REQUESTS_PER_SECOND" envDefault:"10"`
	BurstSize         int     `env:"RATE_LIMIT_BURST_SIZE" envDefault:"20"`
	TrustProxy        bool    `env:"RATE_LIMIT_TRUST_PROXY" envDefault:"false"`
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the process environment and validates it.
func Load() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.Store.Backend = strings.ToLower(strings.TrimSpace(config.Store.Backend))
	config.Logging.JSONFormat = config.Server.Environment == "production" || config.Logging.Format == "json"

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres backend")
		}
		if c.Store.Postgres.Name == "" {
			return fmt.Errorf("DB_NAME is required for the postgres backend")
		}
	case BackendRedis:
		if c.Store.Redis.Key == "" {
			return fmt.Errorf("REDIS_WORLD_KEY is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST_SIZE")
	}

	return nil
}

func (c PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}
