package audit

import (
	"errors"
	"flag"
	"strings"
)

const (
	DefaultFilePrefix   = "audit"
	DefaultMaxFileBytes = 10 * 1024 * 1024
)

// Config configures the audit pipeline and its log files.
type Config struct {
	// Dir is where log files are written.
	Dir string `yaml:"dir"`

	FilePrefix string `yaml:"file_prefix"`

	// MaxFileBytes is the size at which the current file is rotated.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// HistorySize bounds the entries kept for queries.
	HistorySize int `yaml:"history_size"`
}

// RegisterFlagsAndApplyDefaults registers the audit flags under prefix.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Dir, prefixConfig(prefix, "dir"), ".", "Directory for audit log files.")
	f.StringVar(&cfg.FilePrefix, prefixConfig(prefix, "file-prefix"), DefaultFilePrefix, "Audit log file name prefix.")
	f.Int64Var(&cfg.MaxFileBytes, prefixConfig(prefix, "max-file-bytes"), DefaultMaxFileBytes, "Rotate the audit log once it would exceed this size.")
	f.IntVar(&cfg.HistorySize, prefixConfig(prefix, "history-size"), DefaultHistorySize, "Number of recent audit entries kept for queries.")
}

func (cfg *Config) applyDefaults() {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = DefaultFilePrefix
	}
	if cfg.MaxFileBytes == 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = DefaultHistorySize
	}
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	if cfg.MaxFileBytes <= 0 {
		return errors.New("max_file_bytes must be positive")
	}
	if cfg.HistorySize <= 0 {
		return errors.New("history_size must be positive")
	}
	if strings.ContainsAny(cfg.FilePrefix, `/\`) {
		return errors.New("file_prefix must not contain a path separator")
	}
	return nil
}

func prefixConfig(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, ".") + "." + name
}
