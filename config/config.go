package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type WS struct {
	PingInterval   time.Duration `yaml:"pingInterval"`
	MaxMessageSize int64         `yaml:"maxMessageSize"`
}

type Storage struct {
	// Backend selects the durable store: postgres|redis|memory. Anything but
	// memory is wrapped in the in-memory failover.
	Backend string `yaml:"backend"`

	PostgresDSN   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`

	OpTimeout      time.Duration `yaml:"opTimeout"`
	HealthInterval time.Duration `yaml:"healthInterval"`
}

type Rooms struct {
	IDLength      int           `yaml:"idLength"`
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

type Presence struct {
	CursorInterval time.Duration `yaml:"cursorInterval"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // board-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	WS       WS       `yaml:"ws"`
	Storage  Storage  `yaml:"storage"`
	Rooms    Rooms    `yaml:"rooms"`
	Presence Presence `yaml:"presence"`
	Logging  Logging  `yaml:"logging"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} references so DSNs and secrets stay out of the file.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgresDsn is required for the postgres backend")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redisAddr is required for the redis backend")
		}
	case "", "memory":
		c.Storage.Backend = "memory"
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Storage.OpTimeout <= 0 {
		c.Storage.OpTimeout = 2 * time.Second
	}
	if c.Storage.HealthInterval <= 0 {
		c.Storage.HealthInterval = 15 * time.Second
	}
	if c.WS.PingInterval <= 0 {
		c.WS.PingInterval = 15 * time.Second
	}
	if c.WS.MaxMessageSize <= 0 {
		c.WS.MaxMessageSize = 4096
	}
	if c.Rooms.IDLength < 6 || c.Rooms.IDLength > 8 {
		c.Rooms.IDLength = 6
	}
	if c.Rooms.Retention <= 0 {
		c.Rooms.Retention = 24 * time.Hour
	}
	if c.Rooms.SweepInterval <= 0 {
		c.Rooms.SweepInterval = time.Hour
	}
	if c.Presence.CursorInterval <= 0 {
		c.Presence.CursorInterval = 16 * time.Millisecond
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "board-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}
