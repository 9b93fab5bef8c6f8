package models

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

type ServerConfig struct {
	Port             int    `json:"port"`
	ReadTimeoutSec   int    `json:"readTimeoutSec"`
	WriteTimeoutSec  int    `json:"writeTimeoutSec"`
	IdleTimeoutSec   int    `json:"idleTimeoutSec"`
	WebhookSecret    string `json:"webhookSecret"`
	MaxRequestBytes  int64  `json:"maxRequestBytes"`
	ShutdownGraceSec int    `json:"shutdownGraceSec"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type GatewayConfig struct {
	BaseURL    string `json:"baseUrl"`
	TimeoutSec int    `json:"timeoutSec"`
}

type TracingConfig struct {
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"useStdout"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Gateway  GatewayConfig  `json:"gateway"`
	Tracing  TracingConfig  `json:"tracing"`
	Retry    RetryConfig    `json:"retry"`
	LogLevel string         `json:"logLevel"`
}
