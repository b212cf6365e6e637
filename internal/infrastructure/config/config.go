package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. SCHOOLADMIN_API_BASE_URL
const EnvPrefix = "SCHOOLADMIN"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Log       LogConfig
	Fees      FeesConfig
	Session   SessionConfig
	Redis     RedisConfig
	Print     PrintConfig
	Storage   StorageConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// APIConfig configures the client of the remote school API
type APIConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RetryOnNetworkError bool
	RetryDelay          time.Duration
	RateLimitRPS        float64 // 0 disables client-side limiting
	RateLimitBurst      int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// FeesConfig holds fee policy settings
type FeesConfig struct {
	MarkPaidPolicy string        // audit or enforce
	InFlightTTL    time.Duration // lifetime of a per-voucher in-flight guard
	InFlightStore  string        // memory or redis
}

// SessionConfig selects where the login session is persisted
type SessionConfig struct {
	Backend string // file or redis
	Path    string
	Profile string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PrintConfig configures document rendering
type PrintConfig struct {
	SchoolName    string
	SchoolAddress string
	OutputDir     string
	ChromeURL     string // remote Chrome DevTools URL; empty launches a local browser
	ChromePath    string
	NoSandbox     bool
	Timeout       time.Duration
}

// StorageConfig configures the optional S3 archive of printed PDFs
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// HTTPConfig holds print server settings
type HTTPConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowOrigins   []string
	RateLimitRPS   float64 // per client IP; 0 disables
	RateLimitBurst int
	MaxBodyBytes   int64
}

// TelemetryConfig configures OTLP trace export
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SCHOOLADMIN_ prefix
// 2. the file at path, or config.toml in the search paths when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.schooladmin")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		API: APIConfig{
			BaseURL:             v.GetString("api.base_url"),
			Timeout:             v.GetDuration("api.timeout"),
			RetryOnNetworkError: v.GetBool("api.retry_on_network_error"),
			RetryDelay:          v.GetDuration("api.retry_delay"),
			RateLimitRPS:        v.GetFloat64("api.rate_limit_rps"),
			RateLimitBurst:      v.GetInt("api.rate_limit_burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Fees: FeesConfig{
			MarkPaidPolicy: v.GetString("fees.mark_paid_policy"),
			InFlightTTL:    v.GetDuration("fees.in_flight_ttl"),
			InFlightStore:  v.GetString("fees.in_flight_store"),
		},
		Session: SessionConfig{
			Backend: v.GetString("session.backend"),
			Path:    v.GetString("session.path"),
			Profile: v.GetString("session.profile"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Print: PrintConfig{
			SchoolName:    v.GetString("print.school_name"),
			SchoolAddress: v.GetString("print.school_address"),
			OutputDir:     v.GetString("print.output_dir"),
			ChromeURL:     v.GetString("print.chrome_url"),
			ChromePath:    v.GetString("print.chrome_path"),
			NoSandbox:     v.GetBool("print.no_sandbox"),
			Timeout:       v.GetDuration("print.timeout"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			AllowOrigins:   v.GetStringSlice("http.allow_origins"),
			RateLimitRPS:   v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst: v.GetInt("http.rate_limit_burst"),
			MaxBodyBytes:   v.GetInt64("http.max_body_bytes"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers defaults so that env overrides work without a file
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "schooladmin")
	v.SetDefault("app.env", "development")

	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retry_on_network_error", true)
	v.SetDefault("api.retry_delay", 500*time.Millisecond)
	v.SetDefault("api.rate_limit_rps", 0)
	v.SetDefault("api.rate_limit_burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("fees.mark_paid_policy", "audit")
	v.SetDefault("fees.in_flight_ttl", 30*time.Second)
	v.SetDefault("fees.in_flight_store", "memory")

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", "$HOME/.schooladmin/session.json")
	v.SetDefault("session.profile", "default")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("print.school_name", "AL-FALAH SCHOOL SYSTEM")
	v.SetDefault("print.school_address", "SHERONWALA PULL, JARANWALA")
	v.SetDefault("print.output_dir", "./prints")
	v.SetDefault("print.timeout", 30*time.Second)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.prefix", "prints/")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("http.addr", ":8090")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.rate_limit_rps", 20)
	v.SetDefault("http.rate_limit_burst", 40)
	v.SetDefault("http.max_body_bytes", 1<<20)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RateLimitRPS < 0 {
		return errors.New("api.rate_limit_rps cannot be negative")
	}
	switch strings.ToLower(c.Fees.MarkPaidPolicy) {
	case "audit", "enforce":
	default:
		return fmt.Errorf("fees.mark_paid_policy must be audit or enforce, got %q", c.Fees.MarkPaidPolicy)
	}
	switch c.Fees.InFlightStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("fees.in_flight_store must be memory or redis, got %q", c.Fees.InFlightStore)
	}
	switch c.Session.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("session.backend must be file or redis, got %q", c.Session.Backend)
	}
	if c.HTTP.RateLimitRPS < 0 {
		return errors.New("http.rate_limit_rps cannot be negative")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
