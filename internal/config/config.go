package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/netflix/go-env"
)

// Config holds runtime configuration for the Slack console, resolved
// from environment variables.
type Config struct {
	// Web console server settings
	ServerHost      string        `json:"server_host" env:"SLACK_CONSOLE_HOST,default=localhost"`
	ServerPort      int           `json:"server_port" env:"SLACK_CONSOLE_PORT,default=8080"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SLACK_CONSOLE_READ_TIMEOUT,default=30s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SLACK_CONSOLE_WRITE_TIMEOUT,default=30s"`
	IdleTimeout     time.Duration `json:"idle_timeout" env:"SLACK_CONSOLE_IDLE_TIMEOUT,default=120s"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SLACK_CONSOLE_SHUTDOWN_TIMEOUT,default=30s"`

	// Slack API settings. SlackToken is a CLI fallback for --token;
	// the web console only ever uses tokens pasted into the form.
	SlackToken      string        `json:"-" env:"SLACK_TOKEN"`
	SlackAPITimeout time.Duration `json:"slack_api_timeout" env:"SLACK_API_TIMEOUT,default=30s"`
	SlackDebug      bool          `json:"slack_debug" env:"SLACK_DEBUG,default=false"`

	// Logging and stats
	LogFile     string `json:"log_file" env:"SLACK_CONSOLE_LOG_FILE"`
	StatsDBPath string `json:"stats_db_path" env:"SLACK_CONSOLE_STATS_DB"`

	// OpenTelemetry settings
	OTelEnabled              bool          `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string        `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=slackconsole"`
	OTelExporterOTLPEndpoint string        `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string        `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string        `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string        `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=parentbased_always_on"`
	OTelTracesSamplerArg     float64       `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
	OTelMetricExportInterval time.Duration `json:"otel_metric_export_interval" env:"OTEL_METRIC_EXPORT_INTERVAL,default=60s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates configuration values
func (c *Config) Validate() error {
	if err := validateServerConfig(c); err != nil {
		return err
	}

	if c.SlackAPITimeout <= 0 {
		return fmt.Errorf("SLACK_API_TIMEOUT must be greater than 0")
	}

	if err := validateOTelConfig(c); err != nil {
		return err
	}

	return nil
}

// validateServerConfig validates the web console server settings
func validateServerConfig(c *Config) error {
	if c.ServerHost == "" {
		return fmt.Errorf("SLACK_CONSOLE_HOST cannot be empty")
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("SLACK_CONSOLE_PORT must be between 1 and 65535")
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"SLACK_CONSOLE_READ_TIMEOUT", c.ReadTimeout},
		{"SLACK_CONSOLE_WRITE_TIMEOUT", c.WriteTimeout},
		{"SLACK_CONSOLE_IDLE_TIMEOUT", c.IdleTimeout},
		{"SLACK_CONSOLE_SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("%s must be greater than 0", t.name)
		}
	}

	return nil
}

// validateOTelConfig validates OpenTelemetry-related settings
func validateOTelConfig(c *Config) error {
	protocol := strings.ToLower(strings.TrimSpace(c.OTelExporterOTLPProtocol))
	switch protocol {
	case "", "http/protobuf", "grpc":
	default:
		return fmt.Errorf("OTEL_EXPORTER_OTLP_PROTOCOL must be one of http/protobuf, grpc; got %q", c.OTelExporterOTLPProtocol)
	}

	sampler := strings.ToLower(strings.TrimSpace(c.OTelTracesSampler))
	switch sampler {
	case "", "always_on", "always_off", "traceidratio", "parentbased_always_on":
	default:
		return fmt.Errorf("OTEL_TRACES_SAMPLER must be one of always_on, always_off, traceidratio, parentbased_always_on; got %q", c.OTelTracesSampler)
	}

	if c.OTelTracesSamplerArg < 0 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be non-negative")
	}

	if c.OTelMetricExportInterval <= 0 {
		return fmt.Errorf("OTEL_METRIC_EXPORT_INTERVAL must be greater than 0")
	}

	return nil
}
