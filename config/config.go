package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Sites     SitesConfig     `mapstructure:"sites"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// SearchConfig bounds a single aggregated search
type SearchConfig struct {
	GlobalTimeout     time.Duration `mapstructure:"global_timeout"`
	PerSiteTimeout    time.Duration `mapstructure:"per_site_timeout"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxResultsPerSite int           `mapstructure:"max_results_per_site"`
}

// SitesConfig controls the outbound site adapters
type SitesConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	Enabled        []string      `mapstructure:"enabled"` // empty enables the whole catalogue
	Mock           bool          `mapstructure:"mock"`    // serve synthetic listings instead of fetching
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // "memory" or "none"
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // how often expired entries are swept
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/clothsearch/")

	// CLOTHSEARCH_SEARCH_GLOBAL_TIMEOUT -> search.global_timeout
	v.SetEnvPrefix("CLOTHSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.log_level", "info")

	// Search defaults
	v.SetDefault("search.global_timeout", 60*time.Second)
	v.SetDefault("search.per_site_timeout", 30*time.Second)
	v.SetDefault("search.max_concurrency", 5)
	v.SetDefault("search.max_attempts", 3)
	v.SetDefault("search.base_delay", time.Second)
	v.SetDefault("search.max_results_per_site", 10)

	// Site adapter defaults
	v.SetDefault("sites.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("sites.request_timeout", 30*time.Second)
	v.SetDefault("sites.rate_per_second", 1.0)
	v.SetDefault("sites.burst", 2)
	v.SetDefault("sites.enabled", []string{})
	v.SetDefault("sites.mock", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Search.GlobalTimeout <= 0 {
		return fmt.Errorf("search global_timeout must be positive, got: %s", config.Search.GlobalTimeout)
	}
	if config.Search.PerSiteTimeout <= 0 {
		return fmt.Errorf("search per_site_timeout must be positive, got: %s", config.Search.PerSiteTimeout)
	}
	if config.Search.MaxConcurrency < 1 {
		return fmt.Errorf("search max_concurrency must be at least 1, got: %d", config.Search.MaxConcurrency)
	}
	if config.Search.MaxAttempts < 1 {
		return fmt.Errorf("search max_attempts must be at least 1, got: %d", config.Search.MaxAttempts)
	}
	if config.Search.BaseDelay < 0 {
		return fmt.Errorf("search base_delay must not be negative, got: %s", config.Search.BaseDelay)
	}
	if config.Search.MaxResultsPerSite < 1 {
		return fmt.Errorf("search max_results_per_site must be at least 1, got: %d", config.Search.MaxResultsPerSite)
	}

	if config.Sites.RatePerSecond < 0 {
		return fmt.Errorf("sites rate_per_second must not be negative, got: %v", config.Sites.RatePerSecond)
	}

	if config.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache cleanup_interval must be positive, got: %s", config.Cache.CleanupInterval)
	}
	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if _, err := zerolog.ParseLevel(config.Server.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q: %w", config.Server.LogLevel, err)
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
