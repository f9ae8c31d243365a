// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/log"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `gsml3:` root key in YAML.
type GlobalConfig struct {
	Log       log.Config       `mapstructure:"log"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Network   NetworkConfig    `mapstructure:"network"`
	Source    SourceConfig     `mapstructure:"source"`
	Pipeline  PipelineConfig   `mapstructure:"pipeline"`
	Reporters []ReporterConfig `mapstructure:"reporters"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Source ───

// SourceConfig selects where GSMTAP frames come from.
type SourceConfig struct {
	Type       string `mapstructure:"type"`        // udp | pcap
	Listen     string `mapstructure:"listen"`      // udp: listen address
	File       string `mapstructure:"file"`        // pcap: trace file
	Port       int    `mapstructure:"port"`        // pcap: GSMTAP UDP port filter
	ReadBuffer int    `mapstructure:"read_buffer"` // udp: socket receive buffer in bytes, 0 = OS default
}

// ─── Pipeline ───

// PipelineConfig configures the decode pipeline.
type PipelineConfig struct {
	Workers     int    `mapstructure:"workers"`
	HighWater   int    `mapstructure:"high_water"`   // per shard queue depth that blocks producers
	LowWater    int    `mapstructure:"low_water"`    // depth at which blocked producers resume
	IdentityTTL string `mapstructure:"identity_ttl"` // e.g. "10m"
	UplinkOnly  bool   `mapstructure:"uplink_only"`

	// IdentityTTLDuration is IdentityTTL parsed by ValidateAndApplyDefaults.
	IdentityTTLDuration time.Duration `mapstructure:"-"`
}

// ─── Reporters ───

// ReporterConfig selects a reporter and carries its type specific options.
type ReporterConfig struct {
	Type    string         `mapstructure:"type"` // console | kafka
	Options map[string]any `mapstructure:"options"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `gsml3: ...`.
type configRoot struct {
	GSML3 GlobalConfig `mapstructure:"gsml3"`
}

// Load loads configuration from file. An empty path yields the defaults.
// The YAML file uses `gsml3:` as root key; env vars use the GSML3_ prefix (e.g., GSML3_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `gsml3.` key prefix maps to `GSML3_` in env vars via the key replacer
	// (e.g., key "gsml3.log.level" → env "GSML3_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.GSML3

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use "gsml3." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("gsml3.log.level", "info")
	v.SetDefault("gsml3.log.format", "pattern")
	v.SetDefault("gsml3.log.pattern", log.DefaultPattern)
	v.SetDefault("gsml3.log.time", log.DefaultTime)
	v.SetDefault("gsml3.log.file.filename", "")
	v.SetDefault("gsml3.log.file.max_size", 100)
	v.SetDefault("gsml3.log.file.max_backups", 5)
	v.SetDefault("gsml3.log.file.max_age", 30)
	v.SetDefault("gsml3.log.file.compress", true)

	// Metrics defaults
	v.SetDefault("gsml3.metrics.enabled", false)
	v.SetDefault("gsml3.metrics.listen", ":9091")
	v.SetDefault("gsml3.metrics.path", "/metrics")

	// Network defaults (test network 001-01)
	v.SetDefault("gsml3.network.mcc", "001")
	v.SetDefault("gsml3.network.mnc", "01")
	v.SetDefault("gsml3.network.lac", 1)
	v.SetDefault("gsml3.network.short_name", "")
	v.SetDefault("gsml3.network.full_name", "")
	v.SetDefault("gsml3.network.timezone", "")
	v.SetDefault("gsml3.network.dst", 0)

	// Source defaults
	v.SetDefault("gsml3.source.type", "udp")
	v.SetDefault("gsml3.source.listen", ":4729")
	v.SetDefault("gsml3.source.port", 4729)
	v.SetDefault("gsml3.source.read_buffer", 0)

	// Pipeline defaults
	v.SetDefault("gsml3.pipeline.workers", 4)
	v.SetDefault("gsml3.pipeline.high_water", 1024)
	v.SetDefault("gsml3.pipeline.low_water", 256)
	v.SetDefault("gsml3.pipeline.identity_ttl", "10m")
	v.SetDefault("gsml3.pipeline.uplink_only", false)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be trace/debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "pattern", "json", "text":
	default:
		return fmt.Errorf("%w: invalid log format: %s (must be pattern/json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	// ── Network validation ──
	if err := cfg.Network.Validate(); err != nil {
		return err
	}

	// ── Source validation ──
	switch cfg.Source.Type {
	case "udp":
		if cfg.Source.Listen == "" {
			return fmt.Errorf("%w: source.listen is required for udp source", core.ErrConfigInvalid)
		}
	case "pcap":
		if cfg.Source.Port <= 0 || cfg.Source.Port > 65535 {
			return fmt.Errorf("%w: source.port %d out of range", core.ErrConfigInvalid, cfg.Source.Port)
		}
	default:
		return fmt.Errorf("%w: unsupported source.type: %s (must be udp/pcap)", core.ErrConfigInvalid, cfg.Source.Type)
	}

	// ── Pipeline validation ──
	if err := cfg.Pipeline.Validate(); err != nil {
		return err
	}

	// ── Reporters ──
	if len(cfg.Reporters) == 0 {
		cfg.Reporters = []ReporterConfig{{Type: "console"}}
	}
	for i, r := range cfg.Reporters {
		if r.Type == "" {
			return fmt.Errorf("%w: reporters[%d]: type is required", core.ErrConfigInvalid, i)
		}
	}

	return nil
}

// Validate checks the pipeline settings and parses the identity TTL.
func (p *PipelineConfig) Validate() error {
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.HighWater < 1 {
		return fmt.Errorf("%w: pipeline.high_water must be positive, got %d", core.ErrConfigInvalid, p.HighWater)
	}
	if p.LowWater < 0 || p.LowWater >= p.HighWater {
		return fmt.Errorf("%w: pipeline.low_water must be in [0, high_water), got %d", core.ErrConfigInvalid, p.LowWater)
	}
	if p.IdentityTTL == "" {
		p.IdentityTTL = "10m"
	}
	ttl, err := time.ParseDuration(p.IdentityTTL)
	if err != nil {
		return fmt.Errorf("%w: pipeline.identity_ttl: %v", core.ErrConfigInvalid, err)
	}
	p.IdentityTTLDuration = ttl
	return nil
}
