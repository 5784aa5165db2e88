package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"log"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend  string `env:"STORE_BACKEND" envDefault:"memory"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Redis    Redis
	Postgres Postgres
	Sweep    Sweep
	API      API
}

type Redis struct {
	Addr      string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"workq:"`
}

type Postgres struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"4"`
}

type Sweep struct {
	Interval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	BaseBackoff time.Duration `env:"SWEEP_BASE_BACKOFF" envDefault:"1s"`
	MaxBackoff  time.Duration `env:"SWEEP_MAX_BACKOFF" envDefault:"5m"`
}

type API struct {
	Port int `env:"API_PORT" envDefault:"8080"`
}

// Parse reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Parse(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load() *Config {
	c, err := Parse()
	if err != nil {
		log.Fatal(err)
	}

	return c
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.Sweep.Interval)
	}
	return nil
}
