package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Substrate:     "memory",
			DefaultTTL:    24 * time.Hour,
			MaxEntries:    500,
			SweepInterval: time.Hour,
			WriteTimeout:  2 * time.Second,
			Memory: MemoryConfig{
				LifeWindow:   30 * 24 * time.Hour,
				MaxSizeMB:    0,
				Shards:       64,
				MaxEntrySize: 16 * 1024,
			},
			Redis: RedisConfig{
				Address:             "localhost:6379",
				KeyPrefix:           "linernotes:",
				PoolSize:            20,
				MinIdleConns:        2,
				DialTimeout:         5 * time.Second,
				ReadTimeout:         3 * time.Second,
				WriteTimeout:        3 * time.Second,
				PoolTimeout:         4 * time.Second,
				HealthCheckInterval: 5 * time.Second,
			},
			SQL: SQLConfig{
				Driver:          "sqlite3",
				DSN:             NewSecretString("linernotes.db"),
				MaxOpenConns:    4,
				ConnMaxLifetime: 30 * time.Minute,
				Migrate:         true,
			},
			DynamoDB: DynamoDBConfig{
				Table: "linernotes-cache",
			},
		},
		Retry: RetryConfig{
			Enabled:                  true,
			MaxAttempts:              3,
			BaseDelay:                500 * time.Millisecond,
			MaxDelay:                 8 * time.Second,
			JitterRatio:              0.2,
			ConnectivityPollInterval: 500 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			BaseURL:        "http://localhost:8080",
			ResolvePath:    "/v1/entities/resolve",
			ContentPath:    "/v1/entities/{id}/content/{type}",
			UserAgent:      "linernotes/1.0",
			RequestTimeout: 10 * time.Second,
			MaxIdleConns:   16,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  8,
			MaxQueue:       32,
			AcquireTimeout: 2 * time.Second,
		},
		Connectivity: ConnectivityConfig{
			Enabled:     true,
			Interval:    5 * time.Second,
			DialTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "linernotes",
				Tags:      []string{},
			},
			Prometheus: PrometheusConfig{
				Enabled:   false,
				Namespace: "linernotes",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		KeyValidation: KeyValidationConfig{
			MaxKeyLength:      256,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.MaxEntries = 100
	cfg.Cache.SweepInterval = 0
	cfg.Cache.Memory.Shards = 8
	cfg.Cache.Redis.KeyPrefix = "test:"
	cfg.Cache.Redis.HealthCheckInterval = 0
	cfg.Cache.SQL.DSN = NewSecretString(":memory:")
	cfg.Retry = RetryConfig{
		Enabled:                  true,
		MaxAttempts:              3,
		BaseDelay:                10 * time.Millisecond,
		MaxDelay:                 50 * time.Millisecond,
		JitterRatio:              0,
		ConnectivityPollInterval: 10 * time.Millisecond,
	}
	cfg.Catalog.RequestTimeout = time.Second
	cfg.CircuitBreaker.Enabled = false
	cfg.Bulkhead.Enabled = false
	cfg.Connectivity.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Metrics.PublishInterval = time.Second
	cfg.Logging.Level = "debug"
	return cfg
}
