package odtemplate

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the odtemplate engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// ContentEntry is the archive entry run through the handler chain
	ContentEntry string `yaml:"content_entry"`
	// UncompressedEntry is the archive entry that is always stored without compression
	UncompressedEntry string `yaml:"uncompressed_entry"`
	// CompressionLevel is the deflate level used for the rewritten content entry
	CompressionLevel int `yaml:"compression_level"`
	// CacheMaxSize is the maximum number of template sources to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached sources. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// MaxContentSize limits the uncompressed size of the content entry in bytes. 0 means unlimited.
	MaxContentSize int64 `yaml:"max_content_size"`
}

var (
	// initialized before DefaultEngine, which depends on it
	globalConfig      = ConfigFromEnvironment()
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		ContentEntry:      "content.xml",
		UncompressedEntry: "mimetype",
		CompressionLevel:  flate.DefaultCompression,
		CacheMaxSize:      0,
		CacheTTL:          0,
		MaxContentSize:    0,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	applyEnvironment(config)
	return config
}

func applyEnvironment(config *Config) {
	// ODTEMPLATE_LOG_LEVEL
	if val := os.Getenv("ODTEMPLATE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// ODTEMPLATE_CONTENT_ENTRY
	if val := os.Getenv("ODTEMPLATE_CONTENT_ENTRY"); val != "" {
		config.ContentEntry = val
	}

	// ODTEMPLATE_UNCOMPRESSED_ENTRY
	if val := os.Getenv("ODTEMPLATE_UNCOMPRESSED_ENTRY"); val != "" {
		config.UncompressedEntry = val
	}

	// ODTEMPLATE_COMPRESSION_LEVEL
	if val := os.Getenv("ODTEMPLATE_COMPRESSION_LEVEL"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			config.CompressionLevel = level
		}
	}

	// ODTEMPLATE_CACHE_MAX_SIZE
	if val := os.Getenv("ODTEMPLATE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	// ODTEMPLATE_CACHE_TTL
	if val := os.Getenv("ODTEMPLATE_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	// ODTEMPLATE_MAX_CONTENT_SIZE
	if val := os.Getenv("ODTEMPLATE_MAX_CONTENT_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.MaxContentSize = size
		}
	}
}

// LoadConfig reads a YAML configuration file. Keys missing from the file keep
// their defaults; ODTEMPLATE_* environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.ContentEntry == "" {
		config.ContentEntry = defaults.ContentEntry
	}
	if config.UncompressedEntry == "" {
		config.UncompressedEntry = defaults.UncompressedEntry
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.ContentEntry == "" {
		return errors.New("content entry cannot be empty")
	}

	if c.ContentEntry == c.UncompressedEntry {
		return errors.New("content entry and uncompressed entry must differ")
	}

	if c.CompressionLevel < flate.HuffmanOnly || c.CompressionLevel > flate.BestCompression {
		return fmt.Errorf("compression level %d out of range [%d, %d]", c.CompressionLevel, flate.HuffmanOnly, flate.BestCompression)
	}

	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	if c.MaxContentSize < 0 {
		return errors.New("max content size cannot be negative")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// outside the lock: the logger reads the config back
	UpdateLoggerFromConfig()
}
