package workspace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorkspace(t *testing.T, width, height int) *Workspace {
	t.Helper()
	return New("/bin/sh", width, height, zap.NewNop())
}

func TestAddRegistersWindowInOrder(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	tok, w, err := ws.Add(0, 0, 20, 10)
	require.NoError(t, err)
	require.NotNil(t, w)

	tokens := ws.Tokens()
	require.Equal(t, []Token{tok}, tokens)
}

func TestRemoveDeregistersWindow(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	tok, _, err := ws.Add(0, 0, 20, 10)
	require.NoError(t, err)

	require.NoError(t, ws.Remove(tok))
	_, ok := ws.Window(tok)
	require.False(t, ok)
	require.Empty(t, ws.Tokens())
}

func TestWriteWithNoWindowsDropsBytesSuccessfully(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	n, err := ws.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestClickOnEmptySpaceReleaseSpawnsCenteredWindow(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	_, spawned, err := ws.Click(3, 0x21, 0x21)
	require.NoError(t, err)
	require.True(t, spawned)
	require.Len(t, ws.Tokens(), 1)
}

func TestClickOnEmptySpacePressDoesNotSpawn(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	_, spawned, err := ws.Click(0, 0x21, 0x21)
	require.NoError(t, err)
	require.False(t, spawned)
	require.Empty(t, ws.Tokens())
}

func TestRenderPaintsHintAndWindows(t *testing.T) {
	ws := newTestWorkspace(t, 40, 10)
	_, _, err := ws.Add(0, 0, 10, 5)
	require.NoError(t, err)

	ws.Render()

	var out bytes.Buffer
	require.NoError(t, ws.Draw(&out))
	require.Contains(t, out.String(), "Click anywhere!")
}

func TestResizeClampsWindowOrigins(t *testing.T) {
	ws := newTestWorkspace(t, 80, 24)
	tok, _, err := ws.Add(70, 20, 20, 10)
	require.NoError(t, err)

	ws.Resize(40, 12)

	w, ok := ws.Window(tok)
	require.True(t, ok)
	require.True(t, w.Inside(39, 11))
}
