package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a JSON or YAML file, chosen by extension.
// ${VAR} references in the file are expanded from the environment before
// decoding. If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, cfg)
	default:
		err = json.Unmarshal(expanded, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LINERNOTES_CACHE_SUBSTRATE"); v != "" {
		cfg.Cache.Substrate = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LINERNOTES_CACHE_DEFAULT_TTL"); v != "" {
		cfg.Cache.DefaultTTL = parseDuration(v, cfg.Cache.DefaultTTL)
	}
	if v := os.Getenv("LINERNOTES_CACHE_MAX_ENTRIES"); v != "" {
		cfg.Cache.MaxEntries = parseInt(v, cfg.Cache.MaxEntries)
	}
	if v := os.Getenv("LINERNOTES_CACHE_SWEEP_INTERVAL"); v != "" {
		cfg.Cache.SweepInterval = parseDuration(v, cfg.Cache.SweepInterval)
	}

	if v := os.Getenv("LINERNOTES_REDIS_ADDRESS"); v != "" {
		cfg.Cache.Redis.Address = v
	}
	if v := os.Getenv("LINERNOTES_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("LINERNOTES_REDIS_DB"); v != "" {
		cfg.Cache.Redis.DB = parseInt(v, cfg.Cache.Redis.DB)
	}
	if v := os.Getenv("LINERNOTES_REDIS_KEY_PREFIX"); v != "" {
		cfg.Cache.Redis.KeyPrefix = v
	}
	if v := os.Getenv("LINERNOTES_REDIS_ENABLE_TLS"); v != "" {
		cfg.Cache.Redis.EnableTLS = parseBool(v)
	}

	if v := os.Getenv("LINERNOTES_SQL_DRIVER"); v != "" {
		cfg.Cache.SQL.Driver = v
	}
	if v := os.Getenv("LINERNOTES_SQL_DSN"); v != "" {
		cfg.Cache.SQL.DSN = NewSecretString(v)
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Cache.SQL.DSN = NewSecretString(v)
	}

	if v := os.Getenv("LINERNOTES_DYNAMODB_TABLE"); v != "" {
		cfg.Cache.DynamoDB.Table = v
	}
	if v := os.Getenv("LINERNOTES_DYNAMODB_ENDPOINT"); v != "" {
		cfg.Cache.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && cfg.Cache.DynamoDB.Region == "" {
		cfg.Cache.DynamoDB.Region = v
	}

	if v := os.Getenv("LINERNOTES_RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_RETRY_MAX_ATTEMPTS"); v != "" {
		cfg.Retry.MaxAttempts = parseInt(v, cfg.Retry.MaxAttempts)
	}
	if v := os.Getenv("LINERNOTES_RETRY_BASE_DELAY"); v != "" {
		cfg.Retry.BaseDelay = parseDuration(v, cfg.Retry.BaseDelay)
	}
	if v := os.Getenv("LINERNOTES_RETRY_MAX_DELAY"); v != "" {
		cfg.Retry.MaxDelay = parseDuration(v, cfg.Retry.MaxDelay)
	}
	if v := os.Getenv("LINERNOTES_RETRY_JITTER_RATIO"); v != "" {
		cfg.Retry.JitterRatio = parseFloat(v, cfg.Retry.JitterRatio)
	}

	if v := os.Getenv("LINERNOTES_CATALOG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("LINERNOTES_CATALOG_API_KEY"); v != "" {
		cfg.Catalog.APIKey = NewSecretString(v)
	}
	if v := os.Getenv("LINERNOTES_CATALOG_TIMEOUT"); v != "" {
		cfg.Catalog.RequestTimeout = parseDuration(v, cfg.Catalog.RequestTimeout)
	}

	if v := os.Getenv("LINERNOTES_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("LINERNOTES_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("LINERNOTES_BULKHEAD_ENABLED"); v != "" {
		cfg.Bulkhead.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_BULKHEAD_MAX_CONCURRENT"); v != "" {
		cfg.Bulkhead.MaxConcurrent = parseInt(v, cfg.Bulkhead.MaxConcurrent)
	}

	if v := os.Getenv("LINERNOTES_CONNECTIVITY_ENABLED"); v != "" {
		cfg.Connectivity.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_CONNECTIVITY_PROBE_ADDRESS"); v != "" {
		cfg.Connectivity.ProbeAddress = v
	}

	if v := os.Getenv("LINERNOTES_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_PROMETHEUS_ENABLED"); v != "" {
		cfg.Metrics.Prometheus.Enabled = parseBool(v)
	}
	if v := os.Getenv("LINERNOTES_PROMETHEUS_LISTEN_ADDRESS"); v != "" {
		cfg.Metrics.Prometheus.ListenAddress = v
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}

	if v := os.Getenv("LINERNOTES_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LINERNOTES_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
}

var validSubstrates = map[string]bool{
	"memory":   true,
	"redis":    true,
	"postgres": true,
	"pgx":      true,
	"sqlite3":  true,
	"dynamodb": true,
	"disabled": true,
}

// Validate checks if the configuration is valid.
//
//nolint:gocyclo // One check per field
func (c *Config) Validate() error {
	if !validSubstrates[c.Cache.Substrate] {
		return fmt.Errorf("cache.substrate %q is not supported", c.Cache.Substrate)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.defaultTTL must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.maxEntries must be positive")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweepInterval must not be negative")
	}
	for slot, ttl := range c.Cache.SlotTTL {
		if _, err := types.ParseContentType(slot); err != nil {
			return fmt.Errorf("cache.slotTTL: %w", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache.slotTTL[%s] must be positive", slot)
		}
	}

	switch c.Cache.Substrate {
	case "memory":
		if s := c.Cache.Memory.Shards; s <= 0 || (s&(s-1)) != 0 {
			return fmt.Errorf("cache.memory.shards must be a positive power of 2")
		}
	case "redis":
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("cache.redis.address is required for the redis substrate")
		}
		if c.Cache.Redis.PoolSize <= 0 {
			return fmt.Errorf("cache.redis.poolSize must be positive")
		}
	case "postgres", "pgx", "sqlite3":
		if c.Cache.SQL.DSN.IsEmpty() {
			return fmt.Errorf("cache.sql.dsn is required for the %s substrate", c.Cache.Substrate)
		}
	case "dynamodb":
		if c.Cache.DynamoDB.Table == "" {
			return fmt.Errorf("cache.dynamodb.table is required for the dynamodb substrate")
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			return fmt.Errorf("retry.maxAttempts must be positive")
		}
		if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
			return fmt.Errorf("retry.maxDelay must be at least retry.baseDelay")
		}
		if c.Retry.JitterRatio < 0 || c.Retry.JitterRatio > 1 {
			return fmt.Errorf("retry.jitterRatio must be within [0, 1]")
		}
	}

	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.baseURL is required")
	}
	if c.Catalog.RequestTimeout <= 0 {
		return fmt.Errorf("catalog.requestTimeout must be positive")
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			return fmt.Errorf("circuitBreaker.openDuration must be positive")
		}
	}

	if c.Bulkhead.Enabled {
		if c.Bulkhead.MaxConcurrent <= 0 {
			return fmt.Errorf("bulkhead.maxConcurrent must be positive")
		}
	}

	if c.Connectivity.Enabled && c.Connectivity.Interval <= 0 {
		return fmt.Errorf("connectivity.interval must be positive")
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseFloat(s string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
