package wordfill

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/render"
)

// Config contains all configuration options for the engine
type Config struct {
	// CacheMaxSize is the maximum number of templates to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// MaxRenderDepth bounds how often a span is filled again after a list
	// placeholder split it into lines.
	MaxRenderDepth int `yaml:"max_render_depth"`
	// HealLimit is the longest tag, in characters, that healing rewrites.
	HealLimit int `yaml:"heal_limit"`
	// FieldCodeMasks are the patterns a split field instruction must match to be merged.
	FieldCodeMasks []string `yaml:"field_code_masks"`
	// DateLayout renders time values.
	DateLayout string `yaml:"date_layout"`
	// StrictBooleans makes boolean == and != behave as written. Off by default:
	// templates written for the inverted comparison keep working.
	StrictBooleans bool `yaml:"strict_booleans"`
	// Workers bounds concurrent renders in batch mode.
	Workers int `yaml:"workers"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:   100,
		CacheTTL:       0,
		LogLevel:       "info",
		MaxRenderDepth: 100,
		HealLimit:      render.DefaultHealLimit,
		FieldCodeMasks: append([]string(nil), render.DefaultFieldCodeMasks...),
		DateLayout:     DefaultDateLayout,
		StrictBooleans: false,
		Workers:        runtime.NumCPU(),
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.applyEnv()
	return config
}

func (c *Config) applyEnv() {
	if val := os.Getenv("WORDFILL_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			c.CacheMaxSize = size
		}
	}
	if val := os.Getenv("WORDFILL_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = duration
		}
	}
	if val := os.Getenv("WORDFILL_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("WORDFILL_MAX_RENDER_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			c.MaxRenderDepth = depth
		}
	}
	if val := os.Getenv("WORDFILL_HEAL_LIMIT"); val != "" {
		if limit, err := strconv.Atoi(val); err == nil {
			c.HealLimit = limit
		}
	}
	if val := os.Getenv("WORDFILL_FIELD_CODE_MASKS"); val != "" {
		c.FieldCodeMasks = strings.Split(val, ";")
	}
	if val := os.Getenv("WORDFILL_DATE_LAYOUT"); val != "" {
		c.DateLayout = val
	}
	if val := os.Getenv("WORDFILL_STRICT_BOOLEANS"); val != "" {
		c.StrictBooleans = envBool(val)
	}
	if val := os.Getenv("WORDFILL_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Workers = n
		}
	}
}

// LoadConfigFile reads a YAML configuration file over the defaults. The
// WORDFILL_* environment variables override the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	config.applyEnv()
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
	if config.MaxRenderDepth == 0 {
		config.MaxRenderDepth = defaults.MaxRenderDepth
	}
	if config.HealLimit == 0 {
		config.HealLimit = defaults.HealLimit
	}
	if config.FieldCodeMasks == nil {
		config.FieldCodeMasks = defaults.FieldCodeMasks
	}
	if config.DateLayout == "" {
		config.DateLayout = defaults.DateLayout
	}
	if config.Workers == 0 {
		config.Workers = defaults.Workers
	}
	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

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

	if c.MaxRenderDepth <= 0 {
		return errors.New("max render depth must be positive")
	}
	if c.HealLimit <= 0 {
		return errors.New("heal limit must be positive")
	}
	for _, mask := range c.FieldCodeMasks {
		if _, err := regexp.Compile(mask); err != nil {
			return fmt.Errorf("invalid field code mask %q: %w", mask, err)
		}
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	return nil
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		globalConfigMutex.Lock()
		if globalConfig == nil {
			globalConfig = ConfigFromEnvironment()
		}
		globalConfigMutex.Unlock()
	})

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()
	if globalConfig == nil {
		return DefaultConfig()
	}
	configCopy := *globalConfig
	configCopy.FieldCodeMasks = append([]string(nil), globalConfig.FieldCodeMasks...)
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Outside the lock: the logger reads the config back.
	UpdateLoggerFromConfig()
}

// envBool reads a boolean environment setting
func envBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
