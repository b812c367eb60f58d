package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	WordPress   WordPressConfig
	Distributor DistributorConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Matching    MatchingConfig
	Variations  VariationsConfig
	Stock       StockConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AdminToken     string   `mapstructure:"admin_token"`
}

// WordPressConfig holds the storefront GraphQL endpoint configuration
type WordPressConfig struct {
	GraphQLURL        string        `mapstructure:"graphql_url"`
	AuthToken         string        `mapstructure:"auth_token"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
	Debug             bool          `mapstructure:"debug"`
}

// DistributorConfig holds the wholesale distributor feed configuration.
// An empty BaseURL disables stock sync.
type DistributorConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
}

// DatabaseConfig holds the stock cache database configuration.
// An empty DSN disables stock sync.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// MatchingConfig holds slug similarity configuration
type MatchingConfig struct {
	SegmentWeight  float64       `mapstructure:"segment_weight"`
	CharWeight     float64       `mapstructure:"char_weight"`
	RelevanceFloor float64       `mapstructure:"relevance_floor"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	SlugTTL        time.Duration `mapstructure:"slug_ttl"`
	Debug          bool          `mapstructure:"debug"`
}

// VariationsConfig holds variation detection configuration
type VariationsConfig struct {
	MinSKUPrefix int `mapstructure:"min_sku_prefix"`
}

// StockConfig holds stock merge and sync scheduling configuration
type StockConfig struct {
	LowThreshold int           `mapstructure:"low_threshold"`
	SyncInterval time.Duration `mapstructure:"sync_interval"` // 0 disables the background loop
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StockSyncEnabled reports whether both the distributor feed and the stock cache are configured
func (c *Config) StockSyncEnabled() bool {
	return c.Distributor.BaseURL != "" && c.Database.DSN != ""
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/catalogrecon/")

	v.SetEnvPrefix("CATALOGRECON")
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

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can populate it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.admin_token", "")

	// WordPress defaults
	v.SetDefault("wordpress.graphql_url", "")
	v.SetDefault("wordpress.auth_token", "")
	v.SetDefault("wordpress.requests_per_second", 5)
	v.SetDefault("wordpress.burst", 10)
	v.SetDefault("wordpress.timeout", "30s")
	v.SetDefault("wordpress.page_size", 100)
	v.SetDefault("wordpress.max_pages", 100)
	v.SetDefault("wordpress.debug", false)

	// Distributor defaults
	v.SetDefault("distributor.base_url", "")
	v.SetDefault("distributor.api_key", "")
	v.SetDefault("distributor.requests_per_second", 2)
	v.SetDefault("distributor.burst", 4)
	v.SetDefault("distributor.timeout", "30s")
	v.SetDefault("distributor.page_size", 100)
	v.SetDefault("distributor.max_pages", 200)

	// Database defaults
	v.SetDefault("database.dsn", "")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "catalogrecon")
	v.SetDefault("cache.ttl", "5m")

	// Matching defaults
	v.SetDefault("matching.segment_weight", 0.7)
	v.SetDefault("matching.char_weight", 0.3)
	v.SetDefault("matching.relevance_floor", 0.3)
	v.SetDefault("matching.default_limit", 5)
	v.SetDefault("matching.slug_ttl", "1h")
	v.SetDefault("matching.debug", false)

	v.SetDefault("variations.min_sku_prefix", 3)

	v.SetDefault("stock.low_threshold", 5)
	v.SetDefault("stock.sync_interval", "0s")

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.WordPress.GraphQLURL == "" {
		return fmt.Errorf("WordPress GraphQL URL is required (set CATALOGRECON_WORDPRESS_GRAPHQL_URL)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	m := config.Matching
	if m.SegmentWeight < 0 || m.CharWeight < 0 || math.Abs(m.SegmentWeight+m.CharWeight-1) > 1e-9 {
		return fmt.Errorf("matching weights must be non-negative and sum to 1, got %.2f + %.2f", m.SegmentWeight, m.CharWeight)
	}

	if m.RelevanceFloor < 0 || m.RelevanceFloor >= 1 {
		return fmt.Errorf("relevance floor must be in [0, 1), got: %v", m.RelevanceFloor)
	}

	positive := []struct {
		key   string
		value int
	}{
		{"matching.default_limit", m.DefaultLimit},
		{"wordpress.page_size", config.WordPress.PageSize},
		{"wordpress.max_pages", config.WordPress.MaxPages},
		{"distributor.page_size", config.Distributor.PageSize},
		{"distributor.max_pages", config.Distributor.MaxPages},
		{"variations.min_sku_prefix", config.Variations.MinSKUPrefix},
		{"stock.low_threshold", config.Stock.LowThreshold},
		{"ratelimit.per_ip", config.RateLimit.PerIP},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got: %d", p.key, p.value)
		}
	}

	if config.Distributor.BaseURL != "" && config.Distributor.APIKey == "" {
		return fmt.Errorf("distributor API key is required when a distributor base URL is set")
	}

	if config.Stock.SyncInterval < 0 {
		return fmt.Errorf("stock sync interval must not be negative, got: %v", config.Stock.SyncInterval)
	}

	return nil
}
