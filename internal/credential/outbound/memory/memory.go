// Package memory is an in-process record repository used by tests and by
// the "memory" store driver.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
)

// Memory holds store lines in a slice. Raw lines are kept as written so a
// store can be seeded with corrupt content.
type Memory struct {
	mu     sync.Mutex
	exists bool
	lines  []string
	lock   chan struct{}

	// Fail, when set, is returned by every data operation.
	Fail error
}

// New returns an absent store.
func New() *Memory {
	return &Memory{lock: make(chan struct{}, 1)}
}

// NewWithLines returns an existing store holding lines.
func NewWithLines(lines ...string) *Memory {
	m := New()
	m.exists = true
	m.lines = append(m.lines, lines...)
	return m
}

// Exists reports whether the store has been written.
func (m *Memory) Exists(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return false, m.Fail
	}
	return m.exists, nil
}

// ReadAll parses the current lines.
func (m *Memory) ReadAll(context.Context) (entity.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return entity.ScanResult{}, m.Fail
	}
	return entity.ParseLines(m.lines), nil
}

// AtomicRewrite replaces every line.
func (m *Memory) AtomicRewrite(_ context.Context, creds []entity.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return m.Fail
	}
	m.exists = true
	m.lines = encode(creds)
	return nil
}

// Append adds lines at the end.
func (m *Memory) Append(_ context.Context, creds ...entity.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return m.Fail
	}
	m.exists = true
	m.lines = append(m.lines, encode(creds)...)
	return nil
}

// Lock serializes writers within the process.
func (m *Memory) Lock(ctx context.Context) (func(), error) {
	select {
	case m.lock <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-m.lock }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Locked reports whether a writer currently holds the lock.
func (m *Memory) Locked() bool {
	return len(m.lock) == 1
}

// Lines returns a copy of the raw lines.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// String renders the store the way the file driver would.
func (m *Memory) String() string {
	return strings.Join(m.Lines(), "\n")
}

func encode(creds []entity.Credential) []string {
	lines := make([]string, 0, len(creds))
	for _, c := range creds {
		lines = append(lines, c.Line())
	}
	return lines
}
