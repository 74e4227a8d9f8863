package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 4

// ErrClosed is returned by Run once Wait has been called.
var ErrClosed = errors.New("goroutine: manager is closed")

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Background work is started with Go and drained with Wait. Batches that must
// all complete, such as CPU-bound hashing, go through Run.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      *sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		wg:   &sync.WaitGroup{},
		sema: make(chan struct{}, maxGoroutine), // Semaphore to limit goroutines
	}
}

// Limit returns the maximum number of concurrently running functions.
func (g *Manager) Limit() int {
	return cap(g.sema)
}

// Go schedules a function to run in a goroutine if capacity is available.
//
// If the manager is already at its concurrency limit, the function is not run
// and a warning is logged.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}: // Acquire a semaphore slot
		g.wg.Add(1)
		g.stateMu.RUnlock()
		go func() {
			defer g.wg.Done()
			defer func() { <-g.sema }()

			select {
			case <-pCtx.Done():
				slog.WarnContext(pCtx, "goroutine canceled", "because", pCtx.Err())
			default:
				if err := g.call(pCtx, f); err != nil {
					g.mu.Lock()
					g.errs = append(g.errs, err)
					g.mu.Unlock()
				}
			}
		}()

	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "Maximum goroutine limit reached, failed to start new goroutine")
	}
}

// Run executes every task, blocking while the manager is at its limit, and
// returns once all of them have finished. Errors and recovered panics are
// joined. Tasks not yet started when ctx is done are skipped and ctx.Err() is
// included in the result.
func (g *Manager) Run(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g.stateMu.RLock()
	closed := g.closed
	if !closed {
		g.wg.Add(1)
	}
	g.stateMu.RUnlock()
	if closed {
		return ErrClosed
	}
	defer g.wg.Done()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

loop:
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			collect(err)
			break
		}

		select {
		case <-ctx.Done():
			collect(ctx.Err())
			break loop
		case g.sema <- struct{}{}:
		}

		wg.Add(1)
		go func(task func(ctx context.Context) error) {
			defer wg.Done()
			defer func() { <-g.sema }()

			if err := g.call(ctx, task); err != nil {
				collect(err)
			}
		}(task)
	}

	wg.Wait()

	return errors.Join(errs...)
}

// Wait blocks until all scheduled goroutines finish and returns any collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	if !g.closed {
		g.closed = true
	}
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) call(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if frames := internalFrames(stack); len(frames) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", frames)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
			}
			err = &PanicError{Value: rvr}
		}
	}()

	return f(ctx)
}
