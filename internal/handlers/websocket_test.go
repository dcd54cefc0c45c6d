package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"sensornode/internal/models"
	"sensornode/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, feed PatternFeed) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{}, feed, nil, Options{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial error: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestWebSocket_StreamsIndicatorPatterns(t *testing.T) {
	feed := newChanFeed()
	feed.ch <- models.Blinking(models.ColorBlue, 500*time.Millisecond, 500*time.Millisecond)

	conn, closeAll := dialWS(t, feed)
	defer closeAll()

	read := func() models.IndicatorPattern {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if env.Type != "indicator" {
			t.Fatalf("bad envelope: %+v", env)
		}
		var p models.IndicatorPattern
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.Fatalf("unmarshal pattern: %v", err)
		}
		return p
	}

	if p := read(); p.Color != models.ColorBlue || p.Mode != models.ModeBlinking {
		t.Fatalf("unexpected first pattern: %+v", p)
	}

	feed.ch <- models.Solid(models.ColorRed)
	if p := read(); p != models.Solid(models.ColorRed) {
		t.Fatalf("unexpected second pattern: %+v", p)
	}
}

func TestWebSocket_UnsubscribesOnClose(t *testing.T) {
	feed := newChanFeed()
	conn, closeAll := dialWS(t, feed)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	closeAll()

	deadline := time.Now().Add(2 * time.Second)
	for {
		feed.mu.Lock()
		done := feed.unsubscribed
		feed.mu.Unlock()
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription not released after client closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_NoFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{}, nil, nil, Options{})
	r.GET("/ws", h.wsConnect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d; want 503", w.Code)
	}
}
