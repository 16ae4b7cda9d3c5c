package eventloop

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jD91mZM2/termwm/pkg/inputdecoder"
	"github.com/jD91mZM2/termwm/pkg/workspace"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	ws := workspace.New("/bin/sh", 80, 24, zap.NewNop())
	l, err := New(ws, os.Stdout, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNewRegistersStdinWithReactor(t *testing.T) {
	l := newTestLoop(t)
	require.NotNil(t, l.reactor)
	require.NotNil(t, l.stdin)
	require.NotNil(t, l.signal)
}

func TestHandleSignalWithNoPendingSignalIsANoOp(t *testing.T) {
	l := newTestLoop(t)
	require.NoError(t, l.handleSignal())
}

func TestHandleSignalResizesWorkspaceOnSIGWINCH(t *testing.T) {
	_, slave, err := pty.Open()
	require.NoError(t, err)
	defer slave.Close()
	require.NoError(t, pty.Setsize(slave, &pty.Winsize{Cols: 100, Rows: 40}))

	ws := workspace.New("/bin/sh", 80, 24, zap.NewNop())
	l, err := New(ws, slave, zap.NewNop())
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGWINCH))

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, l.handleSignal())
		width, height := ws.Size()
		if width == 100 && height == 40 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("workspace was not resized from SIGWINCH within the deadline, got %dx%d", width, height)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRegisterAndDeregisterWindowBookkeeping(t *testing.T) {
	l := newTestLoop(t)
	tok, w, err := l.ws.Add(0, 0, 20, 10)
	require.NoError(t, err)

	require.NoError(t, l.registerWindow(tok))
	require.True(t, l.registered[tok])

	l.deregisterWindow(tok, w.Fd())
	require.False(t, l.registered[tok])
}

func TestHandleDecodedEventUnsupportedForwardsToFocusedWindow(t *testing.T) {
	l := newTestLoop(t)
	_, _, err := l.ws.Add(0, 0, 20, 10)
	require.NoError(t, err)

	err = l.handleDecodedEvent(inputdecoder.Event{Kind: inputdecoder.EventUnsupported, Bytes: []byte("\x1bZ")})
	require.NoError(t, err)
}

func TestHandleDecodedEventMouseSpawnsAndRegistersWindow(t *testing.T) {
	l := newTestLoop(t)

	err := l.handleDecodedEvent(inputdecoder.Event{Kind: inputdecoder.EventMouse, M: 3, CX: 0x21, CY: 0x21})
	require.NoError(t, err)
	require.Len(t, l.registered, 1)
}
