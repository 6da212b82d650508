// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by the gateway
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// AIConfig selects and configures the generative-AI provider
type AIConfig struct {
	// UseGeminiFlag is the raw USE_GEMINI value; only the exact string
	// "true" selects Gemini.
	UseGeminiFlag string         `mapstructure:"use_gemini"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	Gemini        ProviderConfig `mapstructure:"gemini"`
	OpenAI        ProviderConfig `mapstructure:"openai"`
}

// ProviderConfig holds the settings of one provider
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
}

// envBindings maps configuration keys to the environment variables the
// gateway has always been configured with.
var envBindings = map[string]string{
	"app.environment":           "APP_ENV",
	"app.log_level":             "LOG_LEVEL",
	"app.log_format":            "LOG_FORMAT",
	"server.host":               "HOST",
	"server.port":               "PORT",
	"ai.use_gemini":             "USE_GEMINI",
	"ai.timeout":                "AI_TIMEOUT",
	"ai.gemini.api_key":         "GEMINI_API_KEY",
	"ai.gemini.model":           "GEMINI_MODEL",
	"ai.gemini.base_url":        "GEMINI_BASE_URL",
	"ai.openai.api_key":         "OPENAI_API_KEY",
	"ai.openai.model":           "OPENAI_MODEL",
	"ai.openai.base_url":        "OPENAI_BASE_URL",
	"ai.openai.max_tokens":      "OPENAI_MAX_TOKENS",
	"ai.openai.temperature":     "OPENAI_TEMPERATURE",
	"monitoring.enable_tracing": "TRACING_ENABLED",
	"monitoring.otlp_endpoint":  "OTEL_EXPORTER_OTLP_ENDPOINT",
	"monitoring.sampling_rate":  "TRACING_SAMPLE_RATE",
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Prefixed variables (DIETAI_SERVER_READ_TIMEOUT, ...) reach every key;
	// the explicit bindings below keep the historical unprefixed names.
	v.SetEnvPrefix("DIETAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dietai-gateway")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.read_timeout", "15s")
	// Must outlast the provider timeout so slow answers are still written.
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ai.use_gemini", "false")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.gemini.model", "gemini-flash-latest")
	v.SetDefault("ai.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.openai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.max_tokens", 1200)
	v.SetDefault("ai.openai.temperature", 0.7)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.sampling_rate", 0.1)
}

// Validate validates the configuration. Missing API keys are not an error
// here: they are reported per request.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}

	if c.AI.Gemini.BaseURL == "" || c.AI.OpenAI.BaseURL == "" {
		return fmt.Errorf("ai provider base urls are required")
	}

	if c.Monitoring.EnableTracing && c.Monitoring.OTLPEndpoint == "" {
		return fmt.Errorf("monitoring.otlp_endpoint is required when tracing is enabled")
	}

	return nil
}

// UseGemini reports whether Gemini is the active provider
func (c *Config) UseGemini() bool {
	return c.AI.UseGeminiFlag == "true"
}

// ActiveProvider returns the name of the provider selected at startup
func (c *Config) ActiveProvider() string {
	if c.UseGemini() {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
