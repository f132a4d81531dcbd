package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SessionEdge/internal/domain/models"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/runs" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestProgressHubBroadcast(t *testing.T) {
	hub := NewProgressHub(nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	all := dial(t, srv, "")
	only := dial(t, srv, "?run_id=b")
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(models.ProgressEvent{RunID: "a", Stage: models.StageCohort, Cohort: "all", Days: 12, Done: 1, Total: 3})
	hub.Publish(models.ProgressEvent{RunID: "b", Stage: models.StageAnalyzed, Done: 3, Total: 3})

	var ev models.ProgressEvent
	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "a", ev.RunID)
	assert.Equal(t, "all", ev.Cohort)
	assert.Equal(t, 12, ev.Days)
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "b", ev.RunID)

	_ = only.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, only.ReadJSON(&ev))
	assert.Equal(t, "b", ev.RunID)
	assert.Equal(t, models.StageAnalyzed, ev.Stage)
}

func TestProgressHubDropsClosedClients(t *testing.T) {
	hub := NewProgressHub(nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(models.ProgressEvent{RunID: "x"})
}
