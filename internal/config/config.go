// Package config loads runtime settings for the passkeeper CLI.
// Sources are layered: built-in defaults, then an optional JSON file
// (-c/-config), then command-line flags. Later sources take precedence.
package config

import "time"

// Config holds runtime settings for the passkeeper CLI.
//
// Fields mirror the application configuration surface:
//   - Region: AWS region of the parameter store.
//   - SessionTimeout: idle time after which a session expires.
//   - MaxLoginAttempts: consecutive failures before lockout.
//   - PasswordCacheDuration: staleness window for cached entries.
//   - DatabasePath: path of the local account database.
//   - LogLevel: minimum level for structured logging.
type Config struct {
	Region                string
	SessionTimeout        time.Duration
	MaxLoginAttempts      int
	PasswordCacheDuration time.Duration
	DatabasePath          string
	LogLevel              string
}

// LoadDefaults populates c with the documented defaults.
func (c *Config) LoadDefaults() {
	c.Region = "ap-northeast-1"
	c.SessionTimeout = 30 * time.Minute
	c.MaxLoginAttempts = 3
	c.PasswordCacheDuration = 300 * time.Second
	c.DatabasePath = "passkeeper.db"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
