// Package config loads engine settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Draft struct {
		DefaultRounds          int  `yaml:"default_rounds"`
		DefaultPickTimeSeconds int  `yaml:"default_pick_time_seconds"`
		Snake                  bool `yaml:"snake"`
		ApplyMaxAttempts       int  `yaml:"apply_max_attempts"`
	} `yaml:"draft"`
	Orchestrator struct {
		Workers   int           `yaml:"workers"`
		BatchSize int           `yaml:"batch_size"`
		IdlePoll  time.Duration `yaml:"idle_poll"`
	} `yaml:"orchestrator"`
	SnapshotStore string `yaml:"snapshot_store"`
	NATS          struct {
		URL      string `yaml:"url"`
		Stream   string `yaml:"stream"`
		KVBucket string `yaml:"kv_bucket"`
		Embedded bool   `yaml:"embedded"`
	} `yaml:"nats"`
}

const (
	SnapshotStorePostgres = "postgres"
	SnapshotStoreKV       = "kv"
)

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{}
	c.Draft.DefaultRounds = 15
	c.Draft.DefaultPickTimeSeconds = 90
	c.Draft.Snake = true
	c.Draft.ApplyMaxAttempts = 3
	c.Orchestrator.Workers = 10
	c.Orchestrator.BatchSize = 100
	c.Orchestrator.IdlePoll = 5 * time.Second
	c.SnapshotStore = SnapshotStorePostgres
	c.NATS.Stream = "DRAFT_EVENTS"
	c.NATS.KVBucket = "DRAFT_STATES"
	return c
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	c.applyEnv()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the config file location from DRAFT_CONFIG.
func Path() string {
	return GetEnv("DRAFT_CONFIG", "config.yaml")
}

func (c *Config) applyEnv() {
	c.Draft.DefaultRounds = GetEnvAsInt("DRAFT_DEFAULT_ROUNDS", c.Draft.DefaultRounds)
	c.Draft.DefaultPickTimeSeconds = GetEnvAsInt("DRAFT_DEFAULT_PICK_TIME_SECONDS", c.Draft.DefaultPickTimeSeconds)
	c.Draft.Snake = GetEnvAsBool("DRAFT_SNAKE", c.Draft.Snake)
	c.Draft.ApplyMaxAttempts = GetEnvAsInt("DRAFT_APPLY_MAX_ATTEMPTS", c.Draft.ApplyMaxAttempts)
	c.Orchestrator.Workers = GetEnvAsInt("ORCHESTRATOR_WORKERS", c.Orchestrator.Workers)
	c.Orchestrator.BatchSize = GetEnvAsInt("ORCHESTRATOR_BATCH_SIZE", c.Orchestrator.BatchSize)
	c.Orchestrator.IdlePoll = GetEnvAsDuration("ORCHESTRATOR_IDLE_POLL", c.Orchestrator.IdlePoll)
	c.SnapshotStore = GetEnv("SNAPSHOT_STORE", c.SnapshotStore)
	c.NATS.URL = GetEnv("NATS_URL", c.NATS.URL)
	c.NATS.Stream = GetEnv("NATS_STREAM", c.NATS.Stream)
	c.NATS.KVBucket = GetEnv("NATS_KV_BUCKET", c.NATS.KVBucket)
	c.NATS.Embedded = GetEnvAsBool("NATS_EMBEDDED", c.NATS.Embedded)
}

func (c *Config) validate() error {
	if c.Draft.DefaultRounds <= 0 {
		return fmt.Errorf("draft.default_rounds must be positive")
	}
	if c.Draft.DefaultPickTimeSeconds < 0 {
		return fmt.Errorf("draft.default_pick_time_seconds cannot be negative")
	}
	if c.Draft.ApplyMaxAttempts <= 0 {
		return fmt.Errorf("draft.apply_max_attempts must be positive")
	}
	switch c.SnapshotStore {
	case SnapshotStorePostgres, SnapshotStoreKV:
	default:
		return fmt.Errorf("unknown snapshot_store %q", c.SnapshotStore)
	}
	if c.SnapshotStore == SnapshotStoreKV && c.NATS.URL == "" && !c.NATS.Embedded {
		return fmt.Errorf("snapshot_store kv needs nats.url or nats.embedded")
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
