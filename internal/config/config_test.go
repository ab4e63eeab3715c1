package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "ap-northeast-1", cfg.Region)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, 300*time.Second, cfg.PasswordCacheDuration)
	assert.Equal(t, "passkeeper.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := []byte(`{
		"region": "us-east-1",
		"session_timeout": "15m",
		"max_login_attempts": 5,
		"password_cache_duration": "60s",
		"database_path": "/tmp/pk.db",
		"log_level": "debug"
	}`)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal(data, &jc))
	assert.Equal(t, "us-east-1", jc.Region)
	assert.Equal(t, 15*time.Minute, jc.SessionTimeout.Duration)
	assert.Equal(t, 5, jc.MaxLoginAttempts)
	assert.Equal(t, 60*time.Second, jc.PasswordCacheDuration.Duration)
	assert.Equal(t, "/tmp/pk.db", jc.DatabasePath)
	assert.Equal(t, "debug", jc.LogLevel)
}

func TestLoadConfig_JsonOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"region":"eu-west-1","max_login_attempts":5}`), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"passkeeper", "-c", path}

	cfg := LoadConfig()
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	// untouched fields keep their defaults
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"region":"eu-west-1"}`), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"passkeeper", "-c", path, "-r", "us-west-2", "-t", "10"}

	cfg := LoadConfig()
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, 10*time.Minute, cfg.SessionTimeout)
}
