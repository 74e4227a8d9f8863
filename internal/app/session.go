package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Start prepares the credential store and runs the console. The returned
// channel is closed when the operator exits or a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	var once sync.Once
	terminate := func() {
		once.Do(func() {
			if a.cancel != nil {
				a.cancel()
			}
			close(terminateChan)
		})
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		select {
		case <-sigint:
			slog.Info("termination signal received")
			terminate()
		case <-terminateChan:
		}
	}()

	go func() {
		defer terminate()
		a.exitCode.Store(int32(a.run(a.ctx)))
	}()

	return terminateChan
}

// run initializes the store and drives the console, returning the exit status.
func (a *App) run(ctx context.Context) int {
	if err := a.credential.EnsureStoreInitialized(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to initialize credential store", "error", err)
		return 1
	}

	if err := a.credential.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "console session failed", "error", err)
		return 1
	}

	slog.InfoContext(ctx, "console session finished")
	return 0
}

// Stop waits for in-flight work and closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}
	slog.InfoContext(ctx, "all goroutines have finished successfully")

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
