package livereload

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	return conn
}

func TestReload(t *testing.T) {
	h := New()
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	a := dial(t, ts)
	defer a.Close()
	b := dial(t, ts)
	defer b.Close()
	require.Eventually(t, func() bool { return h.Clients() == 2 }, time.Second, 10*time.Millisecond)

	h.Reload()
	for _, c := range []*websocket.Conn{a, b} {
		c.SetReadDeadline(time.Now().Add(time.Second))
		kind, msg, err := c.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, kind)
		require.Equal(t, "reload", string(msg))
	}

	a.Close()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)
}

func TestReloadWithoutClients(t *testing.T) {
	h := New()
	h.Reload()
	require.Zero(t, h.Clients())
}

func TestScript(t *testing.T) {
	require.NotEmpty(t, Script())
	require.Contains(t, string(Script()), Path)

	w := httptest.NewRecorder()
	ServeScript(w, httptest.NewRequest(http.MethodGet, ScriptPath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/javascript; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, Script(), w.Body.Bytes())
}
