package termmode

import (
	"bytes"
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestEnterOnNonTTYReturnsError(t *testing.T) {
	var out bytes.Buffer
	f, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	require.NoError(t, err)
	defer f.Close()

	_, err = Enter(int(f.Fd()), &out)
	require.Error(t, err)
	assert.Empty(t, out.String(), "no escape sequence should be written on failed raw-mode acquisition")
}

func TestExitWritesInverseEscapeSequence(t *testing.T) {
	_, slave, err := pty.Open()
	require.NoError(t, err)
	defer slave.Close()

	fd := int(slave.Fd())
	oldState, err := term.GetState(fd)
	require.NoError(t, err)

	var out bytes.Buffer
	s := &Session{fd: fd, oldState: oldState, out: &out}
	s.Exit()
	assert.Equal(t, exitSequence, out.String())
}
