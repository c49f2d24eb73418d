package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Database DatabaseConfig `toml:"database"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Logging  LoggingConfig  `toml:"logging"`
}

type EngineConfig struct {
	Name             string        `toml:"name"`
	TickRate         time.Duration `toml:"tick_rate"`
	TimelinePath     string        `toml:"timeline_path"` // empty = no boot timeline
	SnapshotInterval time.Duration `toml:"snapshot_interval"`
	HeartbeatEvery   int           `toml:"heartbeat_every"` // ticks between heartbeats, 0 = off
	HeartbeatEcho    time.Duration `toml:"heartbeat_echo"`  // delay of the heartbeat echo event
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty = run without persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ScriptsConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:             "tidewater",
			TickRate:         200 * time.Millisecond,
			TimelinePath:     "data/yaml/timeline.yaml",
			SnapshotInterval: 5 * time.Minute,
			HeartbeatEvery:   25,
			HeartbeatEcho:    time.Second,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripts: ScriptsConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
