package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shandysiswandi/credvault/internal/credential"
	"github.com/shandysiswandi/credvault/internal/pkg/clock"
	"github.com/shandysiswandi/credvault/internal/pkg/config"
	"github.com/shandysiswandi/credvault/internal/pkg/console"
	"github.com/shandysiswandi/credvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, defaultConfigPath, configPath())

	t.Setenv("CONFIG_PATH", "/etc/credvault/config.yaml")
	assert.Equal(t, "/etc/credvault/config.yaml", configPath())
}

func TestDefaults_WithoutConfigFile(t *testing.T) {
	cfg, err := config.NewViper(filepath.Join(t.TempDir(), "config.yaml"), defaults)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.GetString("credential.store.driver"))
	assert.Equal(t, "users.txt", cfg.GetString("credential.store.file.path"))
	assert.Equal(t, hash.DefaultPBKDF2Iterations, cfg.GetInt("credential.hash.iterations"))
	assert.Equal(t, "admin", cfg.GetString("credential.seed.username"))
	assert.Equal(t, "none", cfg.GetString("storage.driver"))
	assert.False(t, cfg.GetBool("instrument.enabled"))
}

func newTestApp(t *testing.T, seedPassword string, answers ...string) (*App, *bytes.Buffer) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
credential:
  store: {driver: memory}
  seed: {username: admin, password: "`+seedPassword+`"}
`), nil)
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	mod, err := credential.New(credential.Dependency{
		Goroutine:  goroutine.NewManager(2),
		Config:     cfg,
		Instrument: instrument.NewNoop(),
		UUID:       uid.NewUUID(),
		Hash:       hash.NewPBKDF2(1000),
		Clock:      clock.New(),
		Validator:  v,
		Prompter:   console.NewScript(answers...),
		Output:     out,
	})
	require.NoError(t, err)

	return &App{credential: mod}, out
}

func TestApp_Run(t *testing.T) {
	a, out := newTestApp(t, "admin", "2", "admin", "admin", "0")

	assert.Equal(t, 0, a.run(context.Background()))
	assert.Contains(t, out.String(), "Login successful.")
}

func TestApp_Run_InputEnds(t *testing.T) {
	a, _ := newTestApp(t, "admin")

	assert.Equal(t, 0, a.run(context.Background()))
}

func TestApp_Run_MisconfiguredSeed(t *testing.T) {
	a, out := newTestApp(t, "")

	assert.Equal(t, 1, a.run(context.Background()))
	assert.Empty(t, out.String())
}
