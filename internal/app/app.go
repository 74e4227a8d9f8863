package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/credvault/internal/credential"
	"github.com/shandysiswandi/credvault/internal/pkg/clock"
	"github.com/shandysiswandi/credvault/internal/pkg/config"
	"github.com/shandysiswandi/credvault/internal/pkg/console"
	"github.com/shandysiswandi/credvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/storage"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
	"go.uber.org/atomic"
)

// App wires dependencies and manages the console session lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	pbkdf2    hash.Hash
	uuid      uid.StringID
	prompter  console.Prompter

	// resources
	cacheConn *redis.Client
	storage   storage.Storage

	// modules
	credential *credential.Module

	exitCode *atomic.Int32

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:      ctx,
		cancel:   cancel,
		exitCode: atomic.NewInt32(0),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCache()
	app.initStorage()
	app.initModules()
	app.initClosers()

	return app
}

// ExitCode is the process status after the session ends.
func (a *App) ExitCode() int {
	return int(a.exitCode.Load())
}
