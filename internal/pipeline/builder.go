package pipeline

import (
	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/reporter"
)

// Builder provides a fluent interface for building pipelines.
type Builder struct {
	config Config
}

// NewBuilder creates a builder holding the default configuration.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Workers:     defaultWorkers,
			HighWater:   defaultHighWater,
			LowWater:    defaultLowWater,
			IdentityTTL: defaultIdentityTTL,
		},
	}
}

// FromConfig copies the pipeline section of the loaded configuration.
func (b *Builder) FromConfig(cfg config.PipelineConfig) *Builder {
	b.config.Workers = cfg.Workers
	b.config.HighWater = cfg.HighWater
	b.config.LowWater = cfg.LowWater
	if cfg.IdentityTTLDuration > 0 {
		b.config.IdentityTTL = cfg.IdentityTTLDuration
	}
	b.config.UplinkOnly = cfg.UplinkOnly
	return b
}

// WithWorkers sets the number of shards.
func (b *Builder) WithWorkers(n int) *Builder {
	b.config.Workers = n
	return b
}

// WithWaterMarks sets the backpressure thresholds of each shard.
func (b *Builder) WithWaterMarks(high, low int) *Builder {
	b.config.HighWater = high
	b.config.LowWater = low
	return b
}

func (b *Builder) WithUplinkOnly(v bool) *Builder {
	b.config.UplinkOnly = v
	return b
}

// WithReporters sets the reporter fan-out.
func (b *Builder) WithReporters(reporters ...reporter.Reporter) *Builder {
	b.config.Reporters = reporters
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
