package console

import (
	"io"
	"sync"
)

// Script is a Prompter that replays canned answers. It records every prompt
// it was asked, which makes it handy for driving menus in tests.
type Script struct {
	mu      sync.Mutex
	answers []string
	prompts []string
}

// NewScript returns a Prompter that answers with answers in order and then
// returns io.EOF.
func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

// ReadLine returns the next answer.
func (s *Script) ReadLine(prompt string) (string, error) {
	return s.next(prompt)
}

// ReadPassword returns the next answer.
func (s *Script) ReadPassword(prompt string) (string, error) {
	return s.next(prompt)
}

// Prompts returns the prompts seen so far.
func (s *Script) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Remaining reports how many answers were not consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *Script) next(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}
