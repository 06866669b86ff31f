// Package config loads poold's runtime configuration from a file (picking
// the decoder by extension) and then applies an environment-variable
// overlay via caarlos0/env/v11 struct tags, covering every key in the
// configuration table.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PoolDefaults carries the per-pool defaults (min, max, queueTolerance,
// preload) applied to any model spec that omits a field. Zero values mean
// "unspecified"; applyDefaults fills them in after Load.
type PoolDefaults struct {
	Min            int  `json:"min" yaml:"min" toml:"min" env:"MIN"`
	Max            int  `json:"max" yaml:"max" toml:"max" env:"MAX"`
	QueueTolerance int  `json:"queue_tolerance" yaml:"queue_tolerance" toml:"queue_tolerance" env:"QUEUE_TOLERANCE"`
	Preload        bool `json:"preload" yaml:"preload" toml:"preload" env:"PRELOAD"`
}

const (
	defaultAddr            = ":8080"
	defaultModelsDir       = "./models"
	defaultTopicBroadcast  = "broadcastChannel"
	defaultWebswitchServer = "server.webswitch.dev"
	defaultLogLevel        = "info"
	defaultPoolMin         = 1
	defaultPoolMax         = 2
	defaultQueueTolerance  = 25
)

// Config holds runtime parameters for poold. Zero values mean
// "unspecified" and are replaced by applyDefaults after Load.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr" env:"ADDR"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir" env:"MODELS_DIR"`

	// TopicBroadcast is the inter-process event-bus topic name.
	TopicBroadcast string `json:"topic_broadcast" yaml:"topic_broadcast" toml:"topic_broadcast" env:"TOPIC_BROADCAST"`
	// DistributedCacheEnabled turns on the distributed-cache subscriber.
	DistributedCacheEnabled bool `json:"distributed_cache_enabled" yaml:"distributed_cache_enabled" toml:"distributed_cache_enabled" env:"DISTRIBUTED_CACHE_ENABLED"`
	// WebswitchEnabled selects the mesh uplink over the local event bus.
	WebswitchEnabled bool `json:"webswitch_enabled" yaml:"webswitch_enabled" toml:"webswitch_enabled" env:"WEBSWITCH_ENABLED"`
	// WebswitchServer is the mesh uplink hostname.
	WebswitchServer string `json:"webswitch_server" yaml:"webswitch_server" toml:"webswitch_server" env:"WEBSWITCH_SERVER"`

	Pool PoolDefaults `json:"pool" yaml:"pool" toml:"pool" envPrefix:"POOL_"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
}

// applyDefaults fills every zero-valued field with its spec default. It
// runs after the environment overlay so a POOLD_-prefixed env var always
// wins, but an unset env var never stomps a value already present from
// the config file.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = defaultModelsDir
	}
	if c.TopicBroadcast == "" {
		c.TopicBroadcast = defaultTopicBroadcast
	}
	if c.WebswitchServer == "" {
		c.WebswitchServer = defaultWebswitchServer
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Pool.Min <= 0 {
		c.Pool.Min = defaultPoolMin
	}
	if c.Pool.Max <= 0 {
		c.Pool.Max = defaultPoolMax
	}
	if c.Pool.QueueTolerance <= 0 {
		c.Pool.QueueTolerance = defaultQueueTolerance
	}
}

// Load reads a configuration file based on its extension (.yaml/.yml,
// .json, .toml), then overlays POOLD_-prefixed environment variables.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		case ".json":
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		case ".toml":
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		default:
			return cfg, fmt.Errorf("unsupported config extension: %s", ext)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "POOLD_"}); err != nil {
		return cfg, fmt.Errorf("environment overlay: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
