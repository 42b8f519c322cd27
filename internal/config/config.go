// Package config provides configuration management for linernotes.
package config

import (
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// SecretString is a string type that redacts its value when marshaled.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the enrichment client.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Cache          CacheConfig          `json:"cache" yaml:"cache"`
	Retry          RetryConfig          `json:"retry" yaml:"retry"`
	Catalog        CatalogConfig        `json:"catalog" yaml:"catalog"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
	Bulkhead       BulkheadConfig       `json:"bulkhead" yaml:"bulkhead"`
	Connectivity   ConnectivityConfig   `json:"connectivity" yaml:"connectivity"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	Logging        LoggingConfig        `json:"logging" yaml:"logging"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation" yaml:"keyValidation"`
}

// KeyValidationConfig contains configuration for entity id validation.
type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns" yaml:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength" yaml:"maxKeyLength"`
	AllowControlChars bool     `json:"allowControlChars" yaml:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace" yaml:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}

// CacheConfig contains configuration for the TTL cache and its substrate.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type CacheConfig struct {
	// Substrate selects the storage backend: memory, redis, postgres, pgx,
	// sqlite3, dynamodb or disabled.
	Substrate     string        `json:"substrate" yaml:"substrate"`
	DefaultTTL    time.Duration `json:"defaultTTL" yaml:"defaultTTL"`
	MaxEntries    int           `json:"maxEntries" yaml:"maxEntries"`
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
	WriteTimeout  time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	// SlotTTL overrides DefaultTTL per content type, keyed by the content
	// type string ("bio", "funfact:lore", or a bare subtype).
	SlotTTL  map[string]time.Duration `json:"slotTTL" yaml:"slotTTL"`
	Memory   MemoryConfig             `json:"memory" yaml:"memory"`
	Redis    RedisConfig              `json:"redis" yaml:"redis"`
	SQL      SQLConfig                `json:"sql" yaml:"sql"`
	DynamoDB DynamoDBConfig           `json:"dynamodb" yaml:"dynamodb"`
}

// MemoryConfig contains configuration for the bigcache substrate.
type MemoryConfig struct {
	LifeWindow   time.Duration `json:"lifeWindow" yaml:"lifeWindow"`
	MaxSizeMB    int           `json:"maxSizeMB" yaml:"maxSizeMB"`
	Shards       int           `json:"shards" yaml:"shards"`
	MaxEntrySize int           `json:"maxEntrySize" yaml:"maxEntrySize"`
}

// RedisConfig contains configuration for the Redis substrate.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout         time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout" yaml:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval" yaml:"healthCheckInterval"`
	Password            SecretString  `json:"password" yaml:"password"`
	Address             string        `json:"address" yaml:"address"`
	KeyPrefix           string        `json:"keyPrefix" yaml:"keyPrefix"`
	DB                  int           `json:"db" yaml:"db"`
	PoolSize            int           `json:"poolSize" yaml:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns" yaml:"minIdleConns"`
	EnableTLS           bool          `json:"enableTLS" yaml:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
}

// SQLConfig contains configuration for the SQL substrate. Driver is one of
// postgres (lib/pq), pgx or sqlite3.
type SQLConfig struct {
	Driver          string        `json:"driver" yaml:"driver"`
	DSN             SecretString  `json:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	Migrate         bool          `json:"migrate" yaml:"migrate"`
}

// DynamoDBConfig contains configuration for the DynamoDB substrate.
type DynamoDBConfig struct {
	Table    string `json:"table" yaml:"table"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// RetryConfig contains the retry policy applied to resolution and slot fetches.
type RetryConfig struct {
	BaseDelay                time.Duration `json:"baseDelay" yaml:"baseDelay"`
	MaxDelay                 time.Duration `json:"maxDelay" yaml:"maxDelay"`
	ConnectivityPollInterval time.Duration `json:"connectivityPollInterval" yaml:"connectivityPollInterval"`
	JitterRatio              float64       `json:"jitterRatio" yaml:"jitterRatio"`
	MaxAttempts              int           `json:"maxAttempts" yaml:"maxAttempts"`
	Enabled                  bool          `json:"enabled" yaml:"enabled"`
}

// CatalogConfig describes the upstream catalog service.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type CatalogConfig struct {
	BaseURL        string        `json:"baseURL" yaml:"baseURL"`
	ResolvePath    string        `json:"resolvePath" yaml:"resolvePath"`
	ContentPath    string        `json:"contentPath" yaml:"contentPath"`
	APIKey         SecretString  `json:"apiKey" yaml:"apiKey"`
	UserAgent      string        `json:"userAgent" yaml:"userAgent"`
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`
	MaxIdleConns   int           `json:"maxIdleConns" yaml:"maxIdleConns"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker pattern.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold    int           `json:"failureThreshold" yaml:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold" yaml:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration" yaml:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

// BulkheadConfig contains configuration for the bulkhead pattern.
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent" yaml:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue" yaml:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout" yaml:"acquireTimeout"`
}

// ConnectivityConfig configures the background reachability probe. An empty
// ProbeAddress probes the catalog host.
type ConnectivityConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	ProbeAddress string        `json:"probeAddress" yaml:"probeAddress"`
	Interval     time.Duration `json:"interval" yaml:"interval"`
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration    `json:"publishInterval" yaml:"publishInterval"`
	DataDog         DataDogConfig    `json:"datadog" yaml:"datadog"`
	Prometheus      PrometheusConfig `json:"prometheus" yaml:"prometheus"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" yaml:"tags"`
	AgentHost string   `json:"agentHost" yaml:"agentHost"`
	Prefix    string   `json:"prefix" yaml:"prefix"`
	Port      int      `json:"port" yaml:"port"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

// PrometheusConfig contains configuration for the Prometheus recorder.
type PrometheusConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	Namespace     string `json:"namespace" yaml:"namespace"`
	ListenAddress string `json:"listenAddress" yaml:"listenAddress"`
}

// LoggingConfig selects the log level and output format (text, json or tint).
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}
