// Package config holds the startup settings of the read pipeline. Values come
// from defaults, then an optional YAML file, then command line flags.
package config

import (
	"fmt"
	"math"
	"memdump/pkg/dump"
	"memdump/pkg/native"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSlotSize       = 64 << 20
	DefaultMaxConcurrency = 1
	DefaultPerms          = "r--"
	DefaultMaxRangeSize   = dump.DefaultMaxRange
)

type Config struct {
	SlotSize       int    `yaml:"slot_size"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	Codec          string `yaml:"codec"`
	Acceleration   int    `yaml:"acceleration"`
	Perms          string `yaml:"perms"`
	MaxRangeSize   uint64 `yaml:"max_range_size"`

	Log       bool   `yaml:"log"`
	LogOutput string `yaml:"log_output"`
	LogDest   string `yaml:"log_dest"`
}

func Default() *Config {
	return &Config{
		SlotSize:       DefaultSlotSize,
		MaxConcurrency: DefaultMaxConcurrency,
		Codec:          native.DefaultCodec,
		Acceleration:   1,
		Perms:          DefaultPerms,
		MaxRangeSize:   DefaultMaxRangeSize,
	}
}

// Load overlays the YAML file at path onto the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return c, c.Validate()
}

func (c *Config) Validate() error {
	if c.SlotSize <= 0 || uint64(c.SlotSize) > math.MaxUint32 {
		return fmt.Errorf("slot_size %d out of range (1..%d)", c.SlotSize, uint64(math.MaxUint32))
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if _, ok := native.Lookup(c.Codec); !ok {
		return fmt.Errorf("unknown codec %q, available: %v", c.Codec, native.Codecs())
	}
	if c.Acceleration < 1 {
		return fmt.Errorf("acceleration must be at least 1, got %d", c.Acceleration)
	}
	if c.MaxRangeSize == 0 {
		return fmt.Errorf("max_range_size must be positive")
	}
	return nil
}
