package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/credential/inbound"
	"github.com/shandysiswandi/credvault/internal/credential/outbound/file"
	"github.com/shandysiswandi/credvault/internal/credential/outbound/memory"
	credredis "github.com/shandysiswandi/credvault/internal/credential/outbound/redis"
	"github.com/shandysiswandi/credvault/internal/credential/usecase"
	"github.com/shandysiswandi/credvault/internal/pkg/clock"
	"github.com/shandysiswandi/credvault/internal/pkg/config"
	"github.com/shandysiswandi/credvault/internal/pkg/console"
	"github.com/shandysiswandi/credvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/storage"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
)

// Store drivers accepted by credential.store.driver.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var (
	// ErrUnknownDriver is returned when credential.store.driver is not supported.
	ErrUnknownDriver = errors.New("credential: unknown store driver")
	// ErrMissingCacheConn is returned when the redis driver has no client.
	ErrMissingCacheConn = errors.New("credential: redis driver requires a cache connection")
)

type Dependency struct {
	CacheConn  redis.UniversalClient      // only for the redis driver
	Storage    storage.Storage            // optional, nil disables backups
	Goroutine  *goroutine.Manager         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Prompter   console.Prompter           `validate:"required"`
	Output     io.Writer                  `validate:"required"`
}

// Module is the wired credential feature.
type Module struct {
	uc      *usecase.Usecase
	console *inbound.Console
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repo, err := newRepoStore(dep)
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoStore:  repo,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Storage:    dep.Storage,
		Hash:       dep.Hash,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	return &Module{
		uc:      uc,
		console: inbound.NewConsole(uc, dep.Prompter, dep.Output, dep.UUID),
	}, nil
}

// EnsureStoreInitialized seeds or cleans the store before the console starts.
func (m *Module) EnsureStoreInitialized(ctx context.Context) error {
	return m.uc.EnsureStoreInitialized(ctx)
}

// Run drives the console until the operator exits, input ends or ctx is done.
func (m *Module) Run(ctx context.Context) error {
	return m.console.Run(ctx)
}

type repoStore interface {
	Exists(ctx context.Context) (bool, error)
	ReadAll(ctx context.Context) (entity.ScanResult, error)
	AtomicRewrite(ctx context.Context, creds []entity.Credential) error
	Append(ctx context.Context, creds ...entity.Credential) error
	Lock(ctx context.Context) (unlock func(), err error)
}

func newRepoStore(dep Dependency) (repoStore, error) {
	cfg := dep.Config
	driver := strings.ToLower(strings.TrimSpace(cfg.GetString("credential.store.driver")))

	switch driver {
	case "", DriverFile:
		return file.New(file.Options{
			Path:           cfg.GetString("credential.store.file.path"),
			LockTimeout:    cfg.GetSecond("credential.store.file.lock_timeout_seconds"),
			LockStaleAfter: cfg.GetSecond("credential.store.file.lock_stale_seconds"),
		}, dep.UUID, dep.Instrument), nil
	case DriverRedis:
		if dep.CacheConn == nil {
			return nil, ErrMissingCacheConn
		}
		return credredis.New(dep.CacheConn, credredis.Options{
			Key:         cfg.GetString("credential.store.redis.key"),
			LockTTL:     cfg.GetSecond("credential.store.redis.lock_ttl_seconds"),
			LockTimeout: cfg.GetSecond("credential.store.redis.lock_timeout_seconds"),
		}, dep.UUID, dep.Instrument), nil
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
