package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/clock"
	"github.com/shandysiswandi/credvault/internal/pkg/config"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/storage"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type repoStore interface {
	Exists(ctx context.Context) (bool, error)
	ReadAll(ctx context.Context) (entity.ScanResult, error)
	AtomicRewrite(ctx context.Context, creds []entity.Credential) error
	Append(ctx context.Context, creds ...entity.Credential) error
	Lock(ctx context.Context) (unlock func(), err error)
}

type Usecase struct {
	repoStore repoStore
	validator validator.Validator
	cfg       config.Config
	storage   storage.Storage
	hash      hash.Hash
	clock     clock.Clocker
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager

	authAttempts metric.Int64Counter
	dummyHash    func() string
}

type Dependency struct {
	RepoStore  repoStore
	Validator  validator.Validator
	Config     config.Config
	Storage    storage.Storage // optional, nil disables backups
	Hash       hash.Hash
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoStore: dep.RepoStore,
		validator: dep.Validator,
		cfg:       dep.Config,
		storage:   dep.Storage,
		hash:      dep.Hash,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		goroutine: dep.Goroutine,
	}

	counter, err := s.ins.Meter("credential.usecase").Int64Counter(
		"credential.authenticate.attempts",
		metric.WithDescription("Authentication attempts by outcome"),
	)
	if err != nil {
		slog.Warn("failed to create authenticate counter, metrics disabled", "error", err)
		counter = metricnoop.Int64Counter{}
	}
	s.authAttempts = counter

	// unknown usernames still pay for one verification
	s.dummyHash = sync.OnceValue(func() string {
		h, err := s.hash.Hash("credvault-unknown-user")
		if err != nil {
			return ""
		}
		return string(h)
	})

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) recordAuth(ctx context.Context, outcome entity.AuthOutcome) {
	s.authAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// withLock runs fn while holding the store lock.
func (s *Usecase) withLock(ctx context.Context, fn func() error) error {
	unlock, err := s.repoStore.Lock(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire store lock", "error", err)
		return goerror.NewStorage(err)
	}
	defer unlock()

	return fn()
}

// readAll re-reads the store and maps failures to a storage error.
func (s *Usecase) readAll(ctx context.Context) (entity.ScanResult, error) {
	res, err := s.repoStore.ReadAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo read store", "error", err)
		return entity.ScanResult{}, goerror.NewStorage(err)
	}
	return res, nil
}
