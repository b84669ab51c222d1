package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrEffectsPathRequired = errors.New("effects path required")
	ErrEffectsPathMissing  = errors.New("effects path does not exist")
	ErrEffectsPathNotDir   = errors.New("effects path is not a directory")
)

// Config is the run configuration. Values come from defaults, then the
// optional YAML file, then the environment (including a .env file in the
// working directory), then command-line flags.
type Config struct {
	EffectsPath string          `yaml:"effects_path"`
	CachePath   string          `yaml:"cache_path"`
	Instant     bool            `yaml:"instant"`
	Discovery   DiscoveryConfig `yaml:"discovery"`
	Sequence    SequenceConfig  `yaml:"sequence"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// DiscoveryConfig tunes the LAN sweep.
type DiscoveryConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	BroadcastHost string        `yaml:"broadcast_host"`
}

// SequenceConfig holds the control sequence delays.
type SequenceConfig struct {
	FadeDuration        time.Duration `yaml:"fade_duration"`
	InstantFadeDuration time.Duration `yaml:"instant_fade_duration"`
	FlushSettle         time.Duration `yaml:"flush_settle"`
	PowerSettle         time.Duration `yaml:"power_settle"`
	PowerQuerySettle    time.Duration `yaml:"power_query_settle"`
}

// LoggingConfig controls operator output.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
	NoColor bool `yaml:"no_color"`
}

// Load builds a Config. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Timeout: 5 * time.Second,
		},
		Sequence: SequenceConfig{
			FadeDuration:        time.Second,
			InstantFadeDuration: 50 * time.Millisecond,
			FlushSettle:         500 * time.Millisecond,
			PowerSettle:         50 * time.Millisecond,
			PowerQuerySettle:    50 * time.Millisecond,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EFFECTS_PATH"); v != "" {
		cfg.EffectsPath = v
	}
	if v := os.Getenv("TILEFX_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("INSTANT"); v != "" {
		cfg.Instant = truthy(v)
	}
	if v := os.Getenv("TILEFX_BROADCAST_HOST"); v != "" {
		cfg.Discovery.BroadcastHost = v
	}
	if v := os.Getenv("TILEFX_DISCOVERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Discovery.Timeout = d
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.Logging.NoColor = true
	}
}

// truthy treats any set value other than an explicit false as true.
func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// FadeDuration is the fade-out length for the current mode.
func (c *Config) FadeDuration() time.Duration {
	if c.Instant {
		return c.Sequence.InstantFadeDuration
	}
	return c.Sequence.FadeDuration
}

// Validate checks the effects directory exists.
func (c *Config) Validate() error {
	if c.EffectsPath == "" {
		return ErrEffectsPathRequired
	}
	info, err := os.Stat(c.EffectsPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: [%s]", ErrEffectsPathMissing, c.EffectsPath)
	}
	if err != nil {
		return fmt.Errorf("effects path [%s]: %w", c.EffectsPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: [%s]", ErrEffectsPathNotDir, c.EffectsPath)
	}
	return nil
}
