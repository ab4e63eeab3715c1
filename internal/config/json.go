package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/flagx"
	"github.com/dmitrijs2005/passkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be given either as strings like "30m" or as integer nanoseconds; zero
// values leave the corresponding Config field untouched.
type JsonConfig struct {
	Region                string         `json:"region"`
	SessionTimeout        timex.Duration `json:"session_timeout"`
	MaxLoginAttempts      int            `json:"max_login_attempts"`
	PasswordCacheDuration timex.Duration `json:"password_cache_duration"`
	DatabasePath          string         `json:"database_path"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flags. Absent flags mean no JSON is loaded. Read or
// unmarshal errors panic; the config layer runs before anything else and a
// broken config file should stop the process.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Region != "" {
		cfg.Region = jc.Region
	}
	if jc.SessionTimeout.Duration != 0 {
		cfg.SessionTimeout = jc.SessionTimeout.Duration
	}
	if jc.MaxLoginAttempts != 0 {
		cfg.MaxLoginAttempts = jc.MaxLoginAttempts
	}
	if jc.PasswordCacheDuration.Duration != 0 {
		cfg.PasswordCacheDuration = jc.PasswordCacheDuration.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
