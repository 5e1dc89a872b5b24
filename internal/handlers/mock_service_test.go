package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
	"tilt_cover/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID  int
	signUpErr error
	token     string
	tokenErr  error
	parseID   int
	parseErr  error

	signUps        int
	lastUsername   string
	lastPassword   string
	lastByOperator bool
	lastParsed     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string, byOperator bool) (int, error) {
	m.signUps++
	m.lastUsername, m.lastPassword, m.lastByOperator = username, password, byOperator
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.token, m.tokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParsed = token
	return m.parseID, m.parseErr
}

type mockCover struct {
	err          error
	traits       cover.Traits
	calls        []string
	lastPosition service.PositionParams
}

func (m *mockCover) record(name string) error {
	m.calls = append(m.calls, name)
	return m.err
}

func (m *mockCover) Open(ctx context.Context) error   { return m.record("open") }
func (m *mockCover) Close(ctx context.Context) error  { return m.record("close") }
func (m *mockCover) Stop(ctx context.Context) error   { return m.record("stop") }
func (m *mockCover) Toggle(ctx context.Context) error { return m.record("toggle") }
func (m *mockCover) SetPosition(ctx context.Context, p service.PositionParams) error {
	m.lastPosition = p
	return m.record("position")
}
func (m *mockCover) Traits() cover.Traits { return m.traits }

type mockMonitoring struct {
	state models.CoverState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.CoverState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp      []models.CoverEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CoverEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

// mockFeed hands out one channel and signals when it was subscribed.
type mockFeed struct {
	ch         chan models.CoverState
	subscribed chan struct{}
	once       sync.Once
}

func newMockFeed() *mockFeed {
	return &mockFeed{ch: make(chan models.CoverState, 4), subscribed: make(chan struct{})}
}

func (m *mockFeed) Subscribe() (<-chan models.CoverState, func()) {
	m.once.Do(func() { close(m.subscribed) })
	return m.ch, func() {}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
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

func withAuth(req *http.Request) *http.Request {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
