// Package console reads operator input from a terminal.
//
// Passwords are read without echo when the input is an interactive terminal.
// Piped input falls back to plain line reads so sessions can be scripted.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator for one value at a time.
type Prompter interface {
	// ReadLine prints prompt and returns the next line without its line ending.
	ReadLine(prompt string) (string, error)
	// ReadPassword prints prompt and returns the next line without echoing it.
	ReadPassword(prompt string) (string, error)
}

// test seams for the terminal calls
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Terminal is a Prompter over an input stream and an output writer.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewTerminal returns a Prompter reading from in and writing prompts to out.
// Masked input is used only when in is an *os.File attached to a terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		t.fd = int(f.Fd())
		t.tty = isTerminal(t.fd)
	}
	return t
}

// NewStdio is NewTerminal over os.Stdin and os.Stdout.
func NewStdio() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

// ReadLine prints prompt and reads a line. A final line without a trailing
// newline is still returned; io.EOF is returned only when nothing was read.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}
	return t.readLine()
}

// ReadPassword prints prompt and reads a line without echo when possible.
func (t *Terminal) ReadPassword(prompt string) (string, error) {
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}

	if !t.tty {
		return t.readLine()
	}

	pw, err := readPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
