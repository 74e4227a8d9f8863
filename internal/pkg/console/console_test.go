package console

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_ReadLine(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("alice\r\nbob\nlast"), &out)

	got, err := term.ReadLine("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	got, err = term.ReadLine("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "bob", got)

	got, err = term.ReadLine("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = term.ReadLine("Username: ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, strings.Repeat("Username: ", 4), out.String())
}

func TestTerminal_ReadPassword_NotATerminalFallsBack(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(" s3cret \n"), &out)

	got, err := term.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " s3cret ", got)
	assert.Equal(t, "Password: ", out.String())
}

func TestTerminal_ReadPassword_TTY(t *testing.T) {
	prevRead, prevIsTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = prevRead, prevIsTerm })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(); _ = w.Close() })

	isTerminal = func(int) bool { return true }
	readPassword = func(fd int) ([]byte, error) {
		assert.Equal(t, int(r.Fd()), fd)
		return []byte("hidden"), nil
	}

	var out bytes.Buffer
	term := NewTerminal(r, &out)

	got, err := term.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hidden", got)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	_, err = term.ReadPassword("Password: ")
	assert.EqualError(t, err, "tty gone")
}

func TestScript(t *testing.T) {
	var p Prompter = NewScript("1", "alice")

	got, err := p.ReadLine("Choice: ")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	got, err = p.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	_, err = p.ReadLine("Choice: ")
	assert.ErrorIs(t, err, io.EOF)

	s := p.(*Script)
	assert.Equal(t, []string{"Choice: ", "Password: ", "Choice: "}, s.Prompts())
	assert.Zero(t, s.Remaining())
}
