package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Disk        DiskConfig
	Snapshots   SnapshotConfig
	Replication ReplicationConfig
	Seed        SeedConfig
	Host        HostConfig
	Shell       ShellConfig
	Proc        ProcConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// DiskConfig holds the write-through snapshot artifact configuration.
type DiskConfig struct {
	Path     string `envconfig:"DISK_PATH" default:"./data/virtual_disk.json"`
	Compress bool   `envconfig:"DISK_COMPRESS" default:"false"`
	Enabled  bool   `envconfig:"DISK_ENABLED" default:"true"`
}

// SnapshotConfig holds named snapshot storage configuration.
type SnapshotConfig struct {
	Dir string `envconfig:"SNAPSHOT_DIR" default:"./data/snapshots"`
}

// ReplicationConfig holds snapshot replication configuration. An empty
// peer URL disables replication.
type ReplicationConfig struct {
	PeerURL string `envconfig:"REPLICATION_PEER" default:""`
}

// SeedConfig holds first-boot seeding configuration.
type SeedConfig struct {
	Dir string `envconfig:"SEED_DIR" default:"./seeds"`
}

// HostConfig holds host import/export configuration. Root confines
// every host-side path.
type HostConfig struct {
	Root string `envconfig:"HOST_ROOT" default:"./data/host"`
}

// ShellConfig holds shell session configuration.
type ShellConfig struct {
	MaxSessions   int           `envconfig:"SHELL_MAX_SESSIONS" default:"64"`
	ScriptTimeout time.Duration `envconfig:"SHELL_SCRIPT_TIMEOUT" default:"5s"`
}

// ProcConfig holds host process launching configuration.
type ProcConfig struct {
	Enabled      bool `envconfig:"PROC_ENABLED" default:"true"`
	MaxProcesses int  `envconfig:"PROC_MAX" default:"32"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// CORSConfig holds cross-origin configuration. Origins is a comma
// separated list; "*" allows any origin.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Disk: DiskConfig{
			Path:     "./data/virtual_disk.json",
			Compress: false,
			Enabled:  true,
		},
		Snapshots: SnapshotConfig{
			Dir: "./data/snapshots",
		},
		Seed: SeedConfig{
			Dir: "./seeds",
		},
		Host: HostConfig{
			Root: "./data/host",
		},
		Shell: ShellConfig{
			MaxSessions:   64,
			ScriptTimeout: 5 * time.Second,
		},
		Proc: ProcConfig{
			Enabled:      true,
			MaxProcesses: 32,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}
