package uid

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// UUID generates RFC 9562 UUID strings, time ordered when possible.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString() // fallback: uuidV4
	}
	return id.String()
}

// Sequence returns Prefix followed by 1, 2, 3... Useful in tests.
type Sequence struct {
	Prefix string

	mu sync.Mutex
	n  int
}

// Generate returns the next identifier of the sequence.
func (s *Sequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.Prefix + strconv.Itoa(s.n)
}
