package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/credvault/internal/credential"
)

func (a *App) initModules() {
	dep := credential.Dependency{
		Storage:    a.storage,
		Goroutine:  a.goroutine,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Hash:       a.pbkdf2,
		Clock:      a.clock,
		Validator:  a.validator,
		Prompter:   a.prompter,
		Output:     os.Stdout,
	}
	// a nil *redis.Client must stay a nil interface
	if a.cacheConn != nil {
		dep.CacheConn = a.cacheConn
	}

	mod, err := credential.New(dep)
	if err != nil {
		slog.Error("failed to init module credential", "error", err)
		os.Exit(1)
	}

	a.credential = mod
}
