// Package config defaults. Every knob has a value that works for a local
// single-node deployment out of the box.
package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Discovery: DefaultDiscoveryConfig(),
		Routing:   DefaultRoutingConfig(),
		Execution: DefaultExecutionConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDiscoveryConfig returns the default discovery configuration.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Interval:     30 * time.Second,
		ProbeTimeout: 5 * time.Second,
		MaxAttempts:  2,
		RetryDelay:   500 * time.Millisecond,
		Workers:      4,
		EvictAfter:   3,
	}
}

// DefaultRoutingConfig returns the default routing configuration.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		Reasoner: ReasonerConfig{
			Provider:           "none",
			Model:              "gpt-4o-mini",
			Timeout:            10 * time.Second,
			MaxToolIterations:  5,
			CatalogTokenBudget: 2000,
		},
		Cache: CacheConfig{
			Backend: "off",
			TTL:     30 * time.Second,
		},
	}
}

// DefaultExecutionConfig returns the default execution configuration.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Timeout:          60 * time.Second,
		MaxResponseBytes: 1 << 20,
	}
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultLogConfig returns the default log configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "agentbridge",
		SampleRate:   1.0,
	}
}
