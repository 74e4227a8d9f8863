package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T, opts Options) *File {
	t.Helper()

	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "users.txt")
	}
	return New(opts, &uid.Sequence{Prefix: "owner-"}, instrument.NewNoop())
}

func TestFile_MissingStore(t *testing.T) {
	ctx := context.Background()
	f := newTestFile(t, Options{})

	ok, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Credentials)
	assert.Zero(t, res.Corrupt)
}

func TestFile_ReadAll_DropsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("admin:c2FsdA==|a2V5\nbroken:x:y\n\n"), 0o600))

	f := newTestFile(t, Options{Path: path})

	res, err := f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Corrupt)
	assert.Equal(t, []entity.Credential{{Username: "admin", PasswordHash: "c2FsdA==|a2V5"}}, res.Credentials)

	require.NoError(t, f.AtomicRewrite(ctx, res.Credentials))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "admin:c2FsdA==|a2V5\n", string(data))
}

func TestFile_AtomicRewrite_LeavesNoTempFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "users.txt")
	f := newTestFile(t, Options{Path: path})

	require.NoError(t, f.AtomicRewrite(ctx, []entity.Credential{{Username: "a", PasswordHash: "h"}}))
	require.NoError(t, f.AtomicRewrite(ctx, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.txt", entries[0].Name())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fileMode, st.Mode().Perm())
	assert.Zero(t, st.Size())

	ok, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFile_AtomicRewrite_MissingDirectory(t *testing.T) {
	f := newTestFile(t, Options{Path: filepath.Join(t.TempDir(), "nope", "users.txt")})

	err := f.AtomicRewrite(context.Background(), nil)
	assert.Error(t, err)
}

func TestFile_Append(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.txt")
	f := newTestFile(t, Options{Path: path})

	require.NoError(t, f.Append(ctx, entity.Credential{Username: "admin", PasswordHash: "h0"}))
	require.NoError(t, f.Append(ctx,
		entity.Credential{Username: "testuser1", PasswordHash: "h1"},
		entity.Credential{Username: "testuser2", PasswordHash: "h2"},
	))
	require.NoError(t, f.Append(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "admin:h0\ntestuser1:h1\ntestuser2:h2\n", string(data))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fileMode, st.Mode().Perm())
}

func TestFile_Append_RepairsMissingNewline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("admin:h0"), 0o600))

	f := newTestFile(t, Options{Path: path})
	require.NoError(t, f.Append(ctx, entity.Credential{Username: "bob", PasswordHash: "h1"}))

	res, err := f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Corrupt)
	assert.Len(t, res.Credentials, 2)
}

func TestFile_Lock(t *testing.T) {
	ctx := context.Background()
	f := newTestFile(t, Options{LockTimeout: 100 * time.Millisecond})

	unlock, err := f.Lock(ctx)
	require.NoError(t, err)

	owner, err := os.ReadFile(f.lockPath)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", string(owner))

	// a second holder times out while the first holds the lock
	_, err = f.Lock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, goerror.ErrLocked)

	unlock()
	_, err = os.Stat(f.lockPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	unlock2, err := f.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestFile_Lock_WaitsForRelease(t *testing.T) {
	ctx := context.Background()
	f := newTestFile(t, Options{LockTimeout: 2 * time.Second})

	unlock, err := f.Lock(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		unlock()
	}()

	unlock2, err := f.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestFile_Lock_ContextCanceled(t *testing.T) {
	f := newTestFile(t, Options{LockTimeout: time.Minute})

	unlock, err := f.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = f.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFile_Lock_BreaksStaleLock(t *testing.T) {
	f := newTestFile(t, Options{LockTimeout: time.Second, LockStaleAfter: time.Minute})

	require.NoError(t, os.WriteFile(f.lockPath, []byte("crashed-owner"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(f.lockPath, old, old))

	unlock, err := f.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}

func TestFile_Lock_LiveHolderIsNeverStale(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.txt")
	opts := Options{Path: path, LockTimeout: 700 * time.Millisecond, LockStaleAfter: 200 * time.Millisecond}

	holder := New(opts, &uid.Sequence{Prefix: "holder-"}, instrument.NewNoop())
	contender := New(opts, &uid.Sequence{Prefix: "contender-"}, instrument.NewNoop())

	unlock, err := holder.Lock(ctx)
	require.NoError(t, err)

	start := time.Now()
	_, err = contender.Lock(ctx)
	require.ErrorIs(t, err, goerror.ErrLocked)
	assert.GreaterOrEqual(t, time.Since(start), 3*opts.LockStaleAfter)

	owner, err := os.ReadFile(holder.lockPath)
	require.NoError(t, err)
	assert.Equal(t, "holder-1", string(owner))

	unlock()
	_, err = os.Stat(holder.lockPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	unlock2, err := contender.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}

func TestFile_Release_KeepsForeignLock(t *testing.T) {
	f := newTestFile(t, Options{})

	unlock, err := f.Lock(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.lockPath, []byte("someone-else"), 0o600))
	unlock()

	owner, err := os.ReadFile(f.lockPath)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", string(owner))
}
