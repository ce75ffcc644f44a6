package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "~/.callboard/callboard.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Board: BoardConfig{
			PageSize:      5,
			PreviewLength: 280,
		},
		NATS: NATSConfig{
			SubjectPrefix: "callboard",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Board.PageSize < 1 {
		return fmt.Errorf("board.page_size must be at least 1, got %d", c.Board.PageSize)
	}
	if c.Board.PreviewLength < 0 {
		return fmt.Errorf("board.preview_length must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if (c.NATS.URL != "" || c.NATS.Embedded) && c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when publishing events")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json; got %q", c.Log.Format)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test; got %q", c.Server.Mode)
	}
	return nil
}

// WriteDefault writes a commented default configuration to a file
func WriteDefault(path string) error {
	content := `# Callboard configuration

server:
  addr: ":8080"
  mode: release          # gin mode: debug, release, test
  shutdown_timeout: 10s

database:
  path: ~/.callboard/callboard.db

auth:
  # HMAC secret for access tokens. Prefer CALLBOARD_AUTH_SECRET.
  # Left empty, serve generates a throwaway secret on every start.
  secret: ""
  token_ttl: 24h

board:
  page_size: 5
  preview_length: 280

# Event publishing (response created / accepted).
# Empty url logs events instead of publishing them.
nats:
  url: ""
  embedded: false        # run an in-process server instead of dialing url
  subject_prefix: callboard

log:
  level: info            # debug, info, warn, error
  format: console        # console, json
`
	return os.WriteFile(path, []byte(content), 0644)
}
