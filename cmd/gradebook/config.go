package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
)

const configFileOption = "config.file"

// Config is the root config for the gradebook binary.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`

	// RecordsCache holds STUDENT_<id> and GRADES_<id> entries.
	RecordsCache cache.Config `yaml:"records_cache"`

	// StatisticsCache holds CLASS_STATISTICS.
	StatisticsCache cache.Config `yaml:"statistics_cache"`

	// StatisticsRefresh is the auto-refresh period of the class statistics.
	// Zero disables it.
	StatisticsRefresh time.Duration `yaml:"statistics_refresh"`

	Audit audit.Config `yaml:"audit"`
}

// RegisterFlagsAndApplyDefaults registers every flag on f.
func (c *Config) RegisterFlagsAndApplyDefaults(f *flag.FlagSet) {
	f.StringVar(&c.LogLevel, "log.level", "info", "Only log messages with the given severity or above: debug, info, warn, error.")
	f.StringVar(&c.MetricsAddr, "metrics.addr", "", "Serve /metrics and /health on this address. Empty disables the server.")
	f.DurationVar(&c.StatisticsRefresh, "statistics.refresh", 30*time.Second, "Recompute class statistics this often. 0 disables.")

	c.RecordsCache.Name = "records"
	c.RecordsCache.RegisterFlagsAndApplyDefaults("records-cache", f)
	c.StatisticsCache.Name = "statistics"
	c.StatisticsCache.RegisterFlagsAndApplyDefaults("statistics-cache", f)

	c.Audit.RegisterFlagsAndApplyDefaults("audit", f)
}

// Validate checks the whole config.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.StatisticsRefresh < 0 {
		return errors.New("statistics refresh must not be negative")
	}
	if err := c.RecordsCache.Validate(); err != nil {
		return fmt.Errorf("records cache: %w", err)
	}
	if err := c.StatisticsCache.Validate(); err != nil {
		return fmt.Errorf("statistics cache: %w", err)
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// loadConfig applies defaults, then the YAML file named by -config.file,
// then the remaining command line flags.
func loadConfig(name string, args []string) (*Config, error) {
	configFile := configFileFromArgs(name, args)

	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String(configFileOption, "", "YAML configuration file; flags override its values.")
	cfg.RegisterFlagsAndApplyDefaults(fs)

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFileFromArgs finds -config.file without tripping over the other flags.
func configFileFromArgs(name string, args []string) string {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	file := fs.String(configFileOption, "", "")

	// Parse stops at the first flag it doesn't know, so retry from each
	// position until every argument has been seen.
	for len(args) > 0 {
		_ = fs.Parse(args)
		args = args[1:]
	}
	return *file
}
