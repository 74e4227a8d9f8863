package usecase

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/credvault/internal/credential/outbound/memory"
	"github.com/shandysiswandi/credvault/internal/pkg/clock"
	"github.com/shandysiswandi/credvault/internal/pkg/config"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/storage"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
credential:
  seed:
    username: admin
    password: admin
  provision:
    prefix: testuser
    max_count: 5000
    password_length: 16
  backup:
    prefix: snapshots
`

// fakeHash is a salted but cheap stand-in for PBKDF2.
type fakeHash struct {
	mu    sync.Mutex
	n     int
	calls int
}

func (f *fakeHash) Hash(plaintext string) ([]byte, error) {
	if strings.TrimSpace(plaintext) == "" {
		return nil, hash.ErrEmptyPassword
	}
	f.mu.Lock()
	f.n++
	n := f.n
	f.mu.Unlock()
	return []byte("fake" + strconv.Itoa(n) + "|" + hex.EncodeToString([]byte(plaintext))), nil
}

func (f *fakeHash) Verify(hashed, plaintext string) bool {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	parts := strings.Split(hashed, "|")
	if len(parts) != 2 || plaintext == "" {
		return false
	}
	return parts[1] == hex.EncodeToString([]byte(plaintext))
}

func (f *fakeHash) verifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	uc      *Usecase
	repo    *memory.Memory
	hash    *fakeHash
	storage *storage.Memory
	at      time.Time
}

type fixtureOption func(*Dependency)

func withHash(h hash.Hash) fixtureOption {
	return func(d *Dependency) { d.Hash = h }
}

func withInstrument(ins instrument.Instrumentation) fixtureOption {
	return func(d *Dependency) { d.Instrument = ins }
}

func withConfig(t *testing.T, yaml string) fixtureOption {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml), nil)
	require.NoError(t, err)
	return func(d *Dependency) { d.Config = cfg }
}

func withoutStorage() fixtureOption {
	return func(d *Dependency) { d.Storage = nil }
}

func newFixture(t *testing.T, repo *memory.Memory, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig), nil)
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	if repo == nil {
		repo = memory.New()
	}

	fx := &fixture{
		repo:    repo,
		hash:    &fakeHash{},
		storage: storage.NewMemory(),
		at:      time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}

	dep := Dependency{
		RepoStore:  repo,
		Validator:  v,
		Config:     cfg,
		Storage:    fx.storage,
		Hash:       fx.hash,
		Clock:      clock.NewFixed(fx.at),
		Instrument: instrument.NewNoop(),
		Goroutine:  goroutine.NewManager(8),
	}
	for _, opt := range opts {
		opt(&dep)
	}

	fx.uc = New(dep)
	return fx
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, want, goerror.CodeOf(err), "got %v", err)
}

func hexOf(s string) string {
	return hex.EncodeToString([]byte(s))
}
