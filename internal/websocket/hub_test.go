package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestHubBroadcastsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.ServeWs)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish("request.created", map[string]string{"request_code": "WF-000001"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	if msg.Event != "request.created" || msg.Data["request_code"] != "WF-000001" {
		t.Errorf("message = %+v", msg)
	}
}

func TestPublishWithoutRunningHub(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish("request.deleted", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a hub that is not running")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://example.com", true},
		{"http://evil.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "http://example.com/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Errorf("origin %q allowed = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestServeWsWithoutRunningHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop(), nil)
	r := gin.New()
	r.GET("/ws", hub.ServeWs)

	serve := func() int {
		code := make(chan int, 1)
		go func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))
			code <- w.Code
		}()
		select {
		case c := <-code:
			return c
		case <-time.After(2 * time.Second):
			t.Fatal("ServeWs blocked on a hub that is not running")
			return 0
		}
	}

	if got := serve(); got != 503 {
		t.Errorf("before Run: code = %d, want 503", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if got := serve(); got != 503 {
		t.Errorf("after Run stopped: code = %d, want 503", got)
	}
}
