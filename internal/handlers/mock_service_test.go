package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sensornode/internal/models"
	"sensornode/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseOperator string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseOperator, m.parseErr
}

type mockMonitoring struct {
	state service.DeviceStatus
	err   error
	calls int
}

func (m *mockMonitoring) GetState(ctx context.Context) (service.DeviceStatus, error) {
	m.calls++
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockConsole struct {
	holdErr  error
	holds    int
	releases int
}

func (m *mockConsole) Hold() error      { m.holds++; return m.holdErr }
func (m *mockConsole) Release()         { m.releases++ }
func (m *mockConsole) WindowOpen() bool { return m.holdErr == nil }
func (m *mockConsole) Held() bool       { return m.holds > m.releases }

// chanFeed hands every subscriber the same channel.
type chanFeed struct {
	mu           sync.Mutex
	ch           chan models.IndicatorPattern
	unsubscribed bool
}

func newChanFeed() *chanFeed { return &chanFeed{ch: make(chan models.IndicatorPattern, 4)} }

func (f *chanFeed) Subscribe() (<-chan models.IndicatorPattern, func()) {
	return f.ch, func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, Options{RateLimitPerSec: 1000, RateBurst: 1000})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
