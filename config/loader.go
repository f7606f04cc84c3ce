// Package config provides unified configuration loading for the bridge,
// supporting YAML files with environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("AGENTBRIDGE").
//	    Load()
//
// Precedence: defaults, then YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/agentbridge/types"
)

// Config is the complete bridge configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Discovery configures endpoint seeds and the refresh loop.
	Discovery DiscoveryConfig `yaml:"discovery" env:"DISCOVERY"`

	// Routing configures the reasoning backend and decision cache.
	Routing RoutingConfig `yaml:"routing" env:"ROUTING"`

	// Execution configures the gateway.
	Execution ExecutionConfig `yaml:"execution" env:"EXECUTION"`

	// Redis configures the optional Redis decision-cache backend.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTP port
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics port (0 serves /metrics on the main port)
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// Read timeout
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// Write timeout
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// Rate limit: sustained requests per second per client
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// Rate limit: burst size per client
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// Allowed CORS origins; empty rejects cross-origin requests
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// DiscoveryConfig configures the discovery refresher.
type DiscoveryConfig struct {
	// Interval between refresh cycles
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	// Per-probe timeout
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT"`
	// Probe attempts per cycle for transient failures
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	// Delay between retry attempts
	RetryDelay time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	// Concurrent probe workers
	Workers int `yaml:"workers" env:"WORKERS"`
	// Unhealthy cycles before an agent is evicted
	EvictAfter int `yaml:"evict_after" env:"EVICT_AFTER"`
	// Seeds are the configured agent endpoints. YAML only; there is no
	// env-var form for structured lists.
	Seeds []SeedConfig `yaml:"seeds"`
}

// SeedConfig is one configured agent endpoint.
type SeedConfig struct {
	// Stable identifier; derived from protocol and name when empty
	ID string `yaml:"id"`
	// Display name hint
	Name string `yaml:"name"`
	// Protocol: acp, a2a, mcp, custom
	Protocol string `yaml:"protocol"`
	// Base URL
	URL string `yaml:"url"`
}

// RoutingConfig configures the routing engine.
type RoutingConfig struct {
	// Reasoner configures the LLM backend
	Reasoner ReasonerConfig `yaml:"reasoner" env:"REASONER"`
	// Cache configures the decision cache
	Cache CacheConfig `yaml:"cache" env:"CACHE"`
}

// ReasonerConfig configures the LLM reasoning backend.
type ReasonerConfig struct {
	// Provider: openai, anthropic, or none (fallback-only routing)
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Model name
	Model string `yaml:"model" env:"MODEL"`
	// API key; supports ${VAR} expansion from the environment
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Base URL override for OpenAI-compatible gateways
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Per-decision timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Upper bound on tool-call iterations per decision
	MaxToolIterations int `yaml:"max_tool_iterations" env:"MAX_TOOL_ITERATIONS"`
	// Token budget for the agent catalog in the prompt
	CatalogTokenBudget int `yaml:"catalog_token_budget" env:"CATALOG_TOKEN_BUDGET"`
}

// CacheConfig configures the routing decision cache.
type CacheConfig struct {
	// Backend: off, memory, or redis
	Backend string `yaml:"backend" env:"BACKEND"`
	// Entry TTL
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// ExecutionConfig configures the execution gateway.
type ExecutionConfig struct {
	// Per-call timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Upper bound on response body size
	MaxResponseBytes int64 `yaml:"max_response_bytes" env:"MAX_RESPONSE_BYTES"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	// Address
	Addr string `yaml:"addr" env:"ADDR"`
	// Password
	Password string `yaml:"password" env:"PASSWORD"`
	// Database number
	DB int `yaml:"db" env:"DB"`
	// Connection pool size
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// Minimum idle connections
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Include caller information
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// Include stack traces on error
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	// Enabled toggles export; everything is noop when false
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC endpoint
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// Service name
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// Trace sample rate
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader loads configuration using the builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "AGENTBRIDGE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the configuration file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a configuration validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads the configuration.
// Precedence: defaults, then YAML file, then environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	expandSecrets(cfg)

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file. A missing file is not
// an error; defaults apply.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv overrides configuration from environment variables.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively sets struct fields from the environment.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue sets a single field from its string form.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// comma-separated string slices only
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// expandSecrets resolves ${VAR} references in secret-bearing fields so keys
// can live in the environment while the YAML stays committable.
func expandSecrets(cfg *Config) {
	cfg.Routing.Reasoner.APIKey = os.ExpandEnv(cfg.Routing.Reasoner.APIKey)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
}

// MustLoad loads configuration and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Discovery.Interval <= 0 {
		errs = append(errs, "discovery interval must be positive")
	}
	if c.Discovery.ProbeTimeout <= 0 {
		errs = append(errs, "probe timeout must be positive")
	}
	if c.Discovery.MaxAttempts < 1 {
		errs = append(errs, "max_attempts must be at least 1")
	}
	if c.Discovery.Workers < 1 {
		errs = append(errs, "workers must be at least 1")
	}
	if c.Discovery.EvictAfter < 1 {
		errs = append(errs, "evict_after must be at least 1")
	}
	for i, seed := range c.Discovery.Seeds {
		if _, err := types.ParseProtocol(seed.Protocol); err != nil {
			errs = append(errs, fmt.Sprintf("seed %d: %v", i, err))
		}
		if strings.TrimSpace(seed.URL) == "" {
			errs = append(errs, fmt.Sprintf("seed %d: url is required", i))
		}
	}
	switch c.Routing.Reasoner.Provider {
	case "openai", "anthropic", "none", "":
	default:
		errs = append(errs, fmt.Sprintf("unknown reasoner provider %q", c.Routing.Reasoner.Provider))
	}
	switch c.Routing.Cache.Backend {
	case "off", "memory", "redis", "":
	default:
		errs = append(errs, fmt.Sprintf("unknown cache backend %q", c.Routing.Cache.Backend))
	}
	if c.Execution.Timeout <= 0 {
		errs = append(errs, "execution timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
