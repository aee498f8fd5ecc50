package websocket

import (
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// viewerServer exposes the hub on a live httptest server.
func viewerServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, zap.NewNop())
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dialViewer(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubCloseReleasesViewerPumps(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	srv := viewerServer(t, hub)

	baseline := runtime.NumGoroutine()
	conn := dialViewer(t, srv)

	// Confirm the viewer is attached before closing.
	hub.SpeakerChanged("p1")
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("viewer never received a frame: %v", err)
	}

	hub.Close()

	// The server closes the connection; drain until it does.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Both pumps and the connection handler must exit; nothing may stay
	// parked on the unregister channel after the hub loop is gone.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= baseline {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("goroutines did not return to baseline after hub close: %d > %d",
		runtime.NumGoroutine(), baseline)
}

func TestHandleWebSocketAfterHubClose(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	hub.Close()

	srv := viewerServer(t, hub)
	conn := dialViewer(t, srv)

	// The server must drop the connection promptly instead of parking a
	// registration on the dead loop.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed by the server")
	}
}
