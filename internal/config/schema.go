package config

import "time"

// Config represents the full Callboard configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Board    BoardConfig    `yaml:"board" mapstructure:"board"`
	NATS     NATSConfig     `yaml:"nats" mapstructure:"nats"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test
	Mode            string        `yaml:"mode" mapstructure:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite store
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AuthConfig configures token issuing
type AuthConfig struct {
	Secret   string        `yaml:"secret" mapstructure:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// BoardConfig configures list behaviour
type BoardConfig struct {
	PageSize      int `yaml:"page_size" mapstructure:"page_size"`
	PreviewLength int `yaml:"preview_length" mapstructure:"preview_length"`
}

// NATSConfig configures event publishing. With no URL and Embedded unset,
// events are logged instead.
type NATSConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
	// Embedded runs an in-process NATS server and ignores URL
	Embedded      bool   `yaml:"embedded" mapstructure:"embedded"`
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}
