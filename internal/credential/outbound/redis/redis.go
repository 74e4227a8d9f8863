// Package redis keeps credential records in a Redis list, one store line
// per element, so several processes can share a store without a shared disk.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the lock expiry forward only while it holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Options configures a Redis repository.
type Options struct {
	// Key of the list holding the store lines.
	Key string
	// LockTTL expires a lock whose holder died.
	LockTTL time.Duration
	// LockTimeout bounds how long Lock waits for another holder.
	LockTimeout time.Duration
}

// Redis is a record repository backed by a Redis list.
type Redis struct {
	client      redis.UniversalClient
	key         string
	initKey     string
	lockKey     string
	lockTTL     time.Duration
	lockTimeout time.Duration
	uuid        uid.StringID
	ins         instrument.Instrumentation
}

// New returns a Redis repository.
func New(client redis.UniversalClient, opts Options, uuid uid.StringID, ins instrument.Instrumentation) *Redis {
	if opts.Key == "" {
		opts.Key = "credvault:credentials"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}

	return &Redis{
		client:      client,
		key:         opts.Key,
		initKey:     opts.Key + ":initialized",
		lockKey:     opts.Key + ":lock",
		lockTTL:     opts.LockTTL,
		lockTimeout: opts.LockTimeout,
		uuid:        uuid,
		ins:         ins,
	}
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := r.ins.Tracer("credential.outbound.redis").Start(ctx, name)
	span.SetAttributes(attribute.String("store.key", r.key))
	return ctx, span
}

func (r *Redis) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Exists reports whether the store was ever written. An emptied store still
// exists; the marker key survives the list being deleted.
func (r *Redis) Exists(ctx context.Context) (ok bool, err error) {
	ctx, span := r.startSpan(ctx, "Exists")
	defer func() { r.endSpan(span, err) }()

	n, err := r.client.Exists(ctx, r.initKey).Result()
	if err != nil {
		return false, fmt.Errorf("exists store: %w", err)
	}
	return n > 0, nil
}

// ReadAll parses every element of the list.
func (r *Redis) ReadAll(ctx context.Context) (res entity.ScanResult, err error) {
	ctx, span := r.startSpan(ctx, "ReadAll")
	defer func() { r.endSpan(span, err) }()

	lines, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("read store: %w", err)
	}

	res = entity.ParseLines(lines)
	span.SetAttributes(attribute.Int("store.records", len(res.Credentials)), attribute.Int("store.corrupt", res.Corrupt))
	return res, nil
}

// AtomicRewrite replaces the list inside a MULTI/EXEC transaction.
func (r *Redis) AtomicRewrite(ctx context.Context, creds []entity.Credential) (err error) {
	ctx, span := r.startSpan(ctx, "AtomicRewrite")
	defer func() { r.endSpan(span, err) }()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(creds) > 0 {
			pipe.RPush(ctx, r.key, lines(creds)...)
		}
		pipe.Set(ctx, r.initKey, "1", 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rewrite store: %w", err)
	}
	return nil
}

// Append pushes creds to the tail of the list in one transaction.
func (r *Redis) Append(ctx context.Context, creds ...entity.Credential) (err error) {
	ctx, span := r.startSpan(ctx, "Append")
	defer func() { r.endSpan(span, err) }()

	if len(creds) == 0 {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.key, lines(creds)...)
		pipe.Set(ctx, r.initKey, "1", 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append store: %w", err)
	}
	return nil
}

// Lock takes a SET NX PX lock carrying a fresh token, retrying with
// Fibonacci backoff until lockTimeout.
func (r *Redis) Lock(ctx context.Context) (unlock func(), err error) {
	ctx, span := r.startSpan(ctx, "Lock")
	defer func() { r.endSpan(span, err) }()

	token := r.uuid.Generate()
	errHeld := errors.New("lock held")

	b := retry.NewFibonacci(10 * time.Millisecond)
	b = retry.WithCappedDuration(250*time.Millisecond, b)
	b = retry.WithMaxDuration(r.lockTimeout, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, r.lockKey, token, r.lockTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errHeld)
		}
		return nil
	})
	if errors.Is(err, errHeld) {
		return nil, fmt.Errorf("%w: %s held by another process", goerror.ErrLocked, r.lockKey)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	stop := r.keepAlive(context.WithoutCancel(ctx), token)
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			r.release(context.WithoutCancel(ctx), token)
		})
	}, nil
}

// keepAlive extends the lock TTL every third of it while we hold the lock,
// so a long operation never outlives its own lock. The returned func stops
// the refresher and waits for it.
func (r *Redis) keepAlive(ctx context.Context, token string) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		ticker := time.NewTicker(max(r.lockTTL/3, time.Millisecond))
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.extend(ctx, token)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (r *Redis) extend(ctx context.Context, token string) {
	ectx, cancel := context.WithTimeout(ctx, r.lockTTL/3+time.Second)
	defer cancel()

	n, err := extendScript.Run(ectx, r.client, []string{r.lockKey}, token, r.lockTTL.Milliseconds()).Int()
	if err != nil {
		slog.Warn("failed to refresh store lock", "lock_key", r.lockKey, "error", err)
		return
	}
	if n == 0 {
		slog.Warn("store lock lost while held", "lock_key", r.lockKey)
	}
}

func (r *Redis) release(ctx context.Context, token string) {
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := releaseScript.Run(rctx, r.client, []string{r.lockKey}, token).Int()
	if err != nil {
		slog.Warn("failed to release store lock", "lock_key", r.lockKey, "error", err)
		return
	}
	if n == 0 {
		slog.Warn("store lock taken over, leaving it in place", "lock_key", r.lockKey)
	}
}

func lines(creds []entity.Credential) []any {
	out := make([]any, 0, len(creds))
	for _, c := range creds {
		out = append(out, c.Line())
	}
	return out
}
