package goroutine

import (
	"fmt"
	"strings"
)

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("goroutine: recovered panic: %v", e.Value)
}

// internalFrames keeps the "internal/...go:line" locations of a debug.Stack dump.
func internalFrames(stack []byte) []string {
	var frames []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}
		loc := line[idx+1:]
		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp]
		}
		frames = append(frames, loc)
	}
	return frames
}
