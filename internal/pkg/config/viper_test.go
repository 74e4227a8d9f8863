package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = map[string]any{
	"credential.store.file.path":                 "users.txt",
	"credential.store.file.lock_timeout_seconds": 5,
	"credential.seed.username":                   "admin",
	"instrument.log_mask_fields":                 "password,password_hash",
}

func TestNewViperFromBytes(t *testing.T) {
	data := []byte(`
credential:
  store:
    file:
      path: /var/lib/credvault/users.txt
  provision:
    max_count: 5000
instrument:
  enabled: true
  trace_sample_ratio: 0.25
  log_mask_fields: [password, secret]
`)

	cfg, err := NewViperFromBytes("yaml", data, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/credvault/users.txt", cfg.GetString("credential.store.file.path"))
	assert.Equal(t, 5000, cfg.GetInt("credential.provision.max_count"))
	assert.True(t, cfg.GetBool("instrument.enabled"))
	assert.InDelta(t, 0.25, cfg.GetFloat64("instrument.trace_sample_ratio"), 1e-9)
	assert.Equal(t, []string{"password", "secret"}, cfg.GetArray("instrument.log_mask_fields"))

	// defaults fill keys absent from the document
	assert.Equal(t, "admin", cfg.GetString("credential.seed.username"))
	assert.Equal(t, 5*time.Second, cfg.GetSecond("credential.store.file.lock_timeout_seconds"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_Errors(t *testing.T) {
	_, err := NewViperFromBytes("", []byte("a: 1"), nil)
	require.Error(t, err)

	_, err = NewViperFromBytes("yaml", []byte("a: [unterminated"), nil)
	require.Error(t, err)
}

func TestViper_GetArray_CommaSeparated(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("x: 1"), testDefaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"password", "password_hash"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Nil(t, cfg.GetArray("missing.key"))
}

func TestViper_GetMillisecond(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("redis:\n  lock_ttl_ms: 1500"), nil)
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.GetMillisecond("redis.lock_ttl_ms"))
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("credential:\n  seed:\n    username: root\n"), 0o600))

	cfg, err := NewViper(path, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.GetString("credential.seed.username"))
	assert.Equal(t, "users.txt", cfg.GetString("credential.store.file.path"))
}

func TestNewViper_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"), testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "users.txt", cfg.GetString("credential.store.file.path"))
}

func TestNewViper_EnvOverride(t *testing.T) {
	t.Setenv("CREDVAULT_CREDENTIAL_SEED_USERNAME", "operator")

	cfg, err := NewViperFromBytes("yaml", []byte("credential:\n  seed:\n    username: root\n"), testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "operator", cfg.GetString("credential.seed.username"))
}
