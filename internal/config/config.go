// Package config loads the node's tunables from a YAML file with
// environment-variable overrides, covering every knob in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in spec.md §6. Durations are stored in
// their natural unit (milliseconds as given in the spec) and converted to
// time.Duration via the accessor methods below.
type Config struct {
	HeartbeatIntervalMS int    `yaml:"heartbeat_interval_ms"`
	LivenessTTLMS       int    `yaml:"liveness_ttl_ms"`
	MaxRelayHops        int    `yaml:"max_relay_hops"`
	MaxMessageSize      int    `yaml:"max_message_size"`
	MaxPeers            int    `yaml:"max_peers"`
	PoWDifficulty       int    `yaml:"pow_difficulty"`
	ChatWindowMS        int    `yaml:"chat_window_ms"`
	ChatMax             int    `yaml:"chat_max"`
	EnableChat          bool   `yaml:"enable_chat"`
	Port                int    `yaml:"port"`
	RotationIntervalMS  int    `yaml:"rotation_interval_ms"`
	ShutdownGraceMS     int    `yaml:"shutdown_grace_ms"`
	KeyFile             string `yaml:"key_file"`
	ListenAddress       string `yaml:"listen_address"`
	Seeds               []string `yaml:"seeds"`
}

// Default returns the configuration defaults given in spec.md §6.
func Default() *Config {
	return &Config{
		HeartbeatIntervalMS: 500,
		LivenessTTLMS:       2500,
		MaxRelayHops:        3,
		MaxMessageSize:      8192,
		MaxPeers:            1024,
		PoWDifficulty:       10,
		ChatWindowMS:        10_000,
		ChatMax:             5,
		EnableChat:          true,
		Port:                7946,
		RotationIntervalMS:  60_000,
		ShutdownGraceMS:     500,
		KeyFile:             "swarmtalk.key",
		ListenAddress:       ":7946",
	}
}

// Load reads path as YAML over the defaults, then applies any SWARMTALK_*
// environment overrides, matching the layered precedence used by
// shurlinet-shurli's loader (file then environment).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envInt("SWARMTALK_HEARTBEAT_INTERVAL_MS", &cfg.HeartbeatIntervalMS)
	envInt("SWARMTALK_LIVENESS_TTL_MS", &cfg.LivenessTTLMS)
	envInt("SWARMTALK_MAX_RELAY_HOPS", &cfg.MaxRelayHops)
	envInt("SWARMTALK_MAX_MESSAGE_SIZE", &cfg.MaxMessageSize)
	envInt("SWARMTALK_MAX_PEERS", &cfg.MaxPeers)
	envInt("SWARMTALK_POW_DIFFICULTY", &cfg.PoWDifficulty)
	envInt("SWARMTALK_CHAT_WINDOW_MS", &cfg.ChatWindowMS)
	envInt("SWARMTALK_CHAT_MAX", &cfg.ChatMax)
	envInt("SWARMTALK_PORT", &cfg.Port)
	envInt("SWARMTALK_ROTATION_INTERVAL_MS", &cfg.RotationIntervalMS)
	envInt("SWARMTALK_SHUTDOWN_GRACE_MS", &cfg.ShutdownGraceMS)
	envBool("SWARMTALK_ENABLE_CHAT", &cfg.EnableChat)
	envString("SWARMTALK_KEY_FILE", &cfg.KeyFile)
	envString("SWARMTALK_LISTEN_ADDRESS", &cfg.ListenAddress)
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envBool(name string, dst *bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

// Validate rejects impossible tunable combinations before the engine
// starts.
func (c *Config) Validate() error {
	if c.HeartbeatIntervalMS <= 0 {
		return fmt.Errorf("config: heartbeat_interval_ms must be positive")
	}
	if c.LivenessTTLMS <= c.HeartbeatIntervalMS {
		return fmt.Errorf("config: liveness_ttl_ms must exceed heartbeat_interval_ms")
	}
	if c.MaxRelayHops <= 0 {
		return fmt.Errorf("config: max_relay_hops must be positive")
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("config: max_message_size must be positive")
	}
	if c.MaxPeers <= 0 {
		return fmt.Errorf("config: max_peers must be positive")
	}
	if c.PoWDifficulty < 0 || c.PoWDifficulty > 256 {
		return fmt.Errorf("config: pow_difficulty out of range")
	}
	if c.ChatWindowMS <= 0 {
		return fmt.Errorf("config: chat_window_ms must be positive")
	}
	if c.ChatMax <= 0 {
		return fmt.Errorf("config: chat_max must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port out of range")
	}
	if c.RotationIntervalMS <= 0 {
		return fmt.Errorf("config: rotation_interval_ms must be positive")
	}
	return nil
}

// HeartbeatInterval returns the heartbeat tick as a time.Duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

// LivenessTTL returns the peer eviction TTL as a time.Duration.
func (c *Config) LivenessTTL() time.Duration {
	return time.Duration(c.LivenessTTLMS) * time.Millisecond
}

// ChatWindow returns the rate-limit sliding window as a time.Duration.
func (c *Config) ChatWindow() time.Duration {
	return time.Duration(c.ChatWindowMS) * time.Millisecond
}

// RotationInterval returns the dedup filter rotation period.
func (c *Config) RotationInterval() time.Duration {
	return time.Duration(c.RotationIntervalMS) * time.Millisecond
}

// ShutdownGrace returns the post-LEAVE grace sleep before exit.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMS) * time.Millisecond
}
