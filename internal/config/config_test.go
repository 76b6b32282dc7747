package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WORKFLOW_DB", "WORKFLOW_HTTP_ADDR", "WORKFLOW_JWT_SECRET", "WORKFLOW_TOKEN_TTL_MIN",
		"WORKFLOW_LOG_LEVEL", "WORKFLOW_LOG_FORMAT", "WORKFLOW_ADMIN_USERNAME", "WORKFLOW_ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.HTTP.Addr, cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Empty(t, cfg.Location)
	assert.False(t, cfg.Admin.Enabled())
	assert.True(t, cfg.Auth.DefaultSecret())
}

func TestAuthConfig_DefaultSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKFLOW_JWT_SECRET", "s3cret")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, cfg.Auth.DefaultSecret())
}

func TestLoadFile_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path = "/tmp/wf.db"

[http]
addr = ":9000"

[auth]
jwt_secret = "from-file"
token_ttl_min = 30

[log]
level = "debug"
format = "json"

[admin]
username = "boss"
`), 0o644))

	t.Setenv("WORKFLOW_JWT_SECRET", "from-env")
	t.Setenv("WORKFLOW_ADMIN_PASSWORD", "pw")
	t.Setenv("WORKFLOW_TOKEN_TTL_MIN", "not-a-number")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Location)
	assert.Equal(t, "/tmp/wf.db", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 30, cfg.Auth.TokenTTLMin, "unparseable env keeps the file value")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Admin.Enabled())
}

func TestLoadFile_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nformat = \"xml\"\n"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not toml ==="), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestPath_HonoursEnv(t *testing.T) {
	t.Setenv("WORKFLOW_CONFIG", "/etc/wf.toml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/etc/wf.toml", p)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
