// Package config handles configuration loading and management for pixeldedup.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Config represents the global configuration for a pixeldedup session: the
// {radius, min_group_size, mode, threads} engine record, nested the way the
// teacher nests its top-level sections.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Index  IndexConfig  `yaml:"index"`
	Output OutputConfig `yaml:"output"`
}

// EngineConfig defines the core session's concurrency and mode.
type EngineConfig struct {
	Radius       uint8  `yaml:"radius"`
	MinGroupSize uint16 `yaml:"min_group_size"`
	Mode         string `yaml:"mode"` // perceptual64, perceptual256, pixelhash16bpp, filebitidentical
	Threads      uint16 `yaml:"threads"`
}

// IndexConfig holds MIH build tuning values. They are loaded from YAML but
// nothing in this module reads them: mih.Build sizes its own worker pool and
// queue from the thread count and shard count.
type IndexConfig struct {
	BuildQueueSize int `yaml:"build_queue_size"`
	EdgeBufferSize int `yaml:"edge_buffer_size"`
}

// OutputConfig holds report output settings. They are loaded from YAML but
// not read: cmd/pixeldedup takes the report format and directory from its
// --format and --output flags.
type OutputConfig struct {
	Format     string `yaml:"format"` // json, html, markdown
	OutputFile string `yaml:"output_file"`
	Verbose    bool   `yaml:"verbose"`
}

// DefaultConfig returns the default configuration: radius 5, min group size
// 2, Perceptual64 mode, and hardware-concurrency threads.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Radius:       5,
			MinGroupSize: 2,
			Mode:         "perceptual64",
			Threads:      uint16(runtime.NumCPU()),
		},
		Index: IndexConfig{
			BuildQueueSize: 10000,
			EdgeBufferSize: 65536,
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}

// Load reads a YAML configuration file, falling back to DefaultConfig for
// any field the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// ModeValue parses the textual mode field into a types.Mode.
func (c *Config) ModeValue() (types.Mode, error) {
	switch c.Engine.Mode {
	case "", "perceptual64":
		return types.Perceptual64, nil
	case "perceptual256":
		return types.Perceptual256, nil
	case "pixelhash16bpp":
		return types.PixelHash16bpp, nil
	case "filebitidentical":
		return types.FileBitIdentical, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", c.Engine.Mode)
	}
}

// ToTypesConfig converts the loaded YAML config into the core's types.Config.
func (c *Config) ToTypesConfig() (types.Config, error) {
	mode, err := c.ModeValue()
	if err != nil {
		return types.Config{}, err
	}
	threads := c.Engine.Threads
	if threads == 0 {
		threads = uint16(runtime.NumCPU())
	}
	return types.Config{
		Radius:       c.Engine.Radius,
		MinGroupSize: c.Engine.MinGroupSize,
		Mode:         mode,
		Threads:      threads,
	}, nil
}
