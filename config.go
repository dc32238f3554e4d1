package cache

import (
	"errors"
	"flag"
	"strings"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/eviction"
)

const (
	// DefaultCapacity matches the working-set size of one class roster.
	DefaultCapacity = 150
	DefaultName     = "cache"
)

// Config holds configuration for one cache.
type Config struct {
	// Name labels the cache in logs and metrics.
	Name string `yaml:"name"`

	// Capacity is the maximum number of entries.
	Capacity int `yaml:"capacity"`

	// Eviction selects the policy (SCAN, LRU, LFU, FIFO).
	Eviction eviction.PolicyType `yaml:"eviction"`
}

// RegisterFlagsAndApplyDefaults registers the cache flags under prefix.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(prefix, ".")
	}
	f.IntVar(&cfg.Capacity, prefixConfig(prefix, "capacity"), DefaultCapacity, "Maximum number of cached entries.")
	f.StringVar((*string)(&cfg.Eviction), prefixConfig(prefix, "eviction"), string(eviction.Scan), "Eviction policy: SCAN, LRU, LFU or FIFO.")
}

func (cfg *Config) applyDefaults() {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Eviction == "" {
		cfg.Eviction = eviction.Scan
	}
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	if cfg.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if _, err := eviction.ParsePolicyType(string(cfg.Eviction)); err != nil {
		return err
	}
	return nil
}

func prefixConfig(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, ".") + "." + name
}
