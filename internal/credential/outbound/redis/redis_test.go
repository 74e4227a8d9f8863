package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestRedis_Store(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	repo := New(client, Options{Key: "test:credentials"}, &uid.Sequence{Prefix: "tok-"}, instrument.NewNoop())

	ok, err := repo.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Append(ctx,
		entity.Credential{Username: "admin", PasswordHash: "h0"},
		entity.Credential{Username: "Alice", PasswordHash: "h1"},
	))
	require.NoError(t, client.RPush(ctx, "test:credentials", "broken:a:b").Err())

	ok, err = repo.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Corrupt)
	assert.Len(t, res.Credentials, 2)

	require.NoError(t, repo.AtomicRewrite(ctx, res.Credentials[:1]))
	res, err = repo.ReadAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Corrupt)
	assert.Equal(t, []entity.Credential{{Username: "admin", PasswordHash: "h0"}}, res.Credentials)

	require.NoError(t, repo.AtomicRewrite(ctx, nil))
	ok, err = repo.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis_Lock(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	repo := New(client, Options{Key: "test:lock", LockTimeout: 100 * time.Millisecond}, uid.NewUUID(), instrument.NewNoop())

	unlock, err := repo.Lock(ctx)
	require.NoError(t, err)

	_, err = repo.Lock(ctx)
	assert.ErrorIs(t, err, goerror.ErrLocked)

	unlock()

	unlock, err = repo.Lock(ctx)
	require.NoError(t, err)

	// a foreign token is left alone
	require.NoError(t, client.Set(ctx, "test:lock:lock", "other", 0).Err())
	unlock()
	assert.Equal(t, "other", client.Get(ctx, "test:lock:lock").Val())
}

func TestRedis_Lock_LiveHolderOutlivesTTL(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	opts := Options{Key: "test:ttl", LockTTL: 300 * time.Millisecond, LockTimeout: time.Second}

	holder := New(client, opts, &uid.Sequence{Prefix: "holder-"}, instrument.NewNoop())
	contender := New(client, opts, &uid.Sequence{Prefix: "contender-"}, instrument.NewNoop())

	unlock, err := holder.Lock(ctx)
	require.NoError(t, err)

	_, err = contender.Lock(ctx)
	require.ErrorIs(t, err, goerror.ErrLocked)
	assert.Equal(t, "holder-1", client.Get(ctx, "test:ttl:lock").Val())

	unlock()
	assert.Zero(t, client.Exists(ctx, "test:ttl:lock").Val())

	unlock2, err := contender.Lock(ctx)
	require.NoError(t, err)
	unlock2()
}
