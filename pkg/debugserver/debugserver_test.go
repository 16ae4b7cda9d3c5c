package debugserver

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSnapshotter struct {
	windows []WindowInfo
}

func (f *fakeSnapshotter) Snapshot() []WindowInfo { return f.windows }

func TestHandleWindowsReturnsJSONSnapshot(t *testing.T) {
	fake := &fakeSnapshotter{windows: []WindowInfo{
		{ID: uuid.New(), X: 1, Y: 2, Width: 10, Height: 5},
	}}
	srv := New(fake, zap.NewNop())

	ts := httptest.NewServer(srv.mux)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/windows")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []WindowInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, fake.windows, got)
}

func TestHandleWebSocketStreamsSnapshots(t *testing.T) {
	fake := &fakeSnapshotter{windows: []WindowInfo{{X: 3, Y: 4, Width: 8, Height: 6}}}
	srv := New(fake, zap.NewNop())

	ts := httptest.NewServer(srv.mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got []WindowInfo
	require.NoError(t, json.Unmarshal(message, &got))
	require.Equal(t, fake.windows, got)
}
