package handlers

import (
	"context"
	"net/http"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseLogin    string
	parseErr      error

	lastGenLogin    string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(login, password string) (string, error) {
	m.lastGenLogin = login
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseLogin, m.parseErr
}

type mockUsers struct {
	list      []models.UserInfo
	addErr    error
	removeErr error

	lastAdd    models.UserInfo
	lastRemove string
}

func (m *mockUsers) ListUsers() []models.UserInfo { return m.list }
func (m *mockUsers) AddUser(login, password string, isAdmin bool) error {
	m.lastAdd = models.UserInfo{Login: login, IsAdmin: isAdmin}
	return m.addErr
}
func (m *mockUsers) RemoveUser(login string) error {
	m.lastRemove = login
	return m.removeErr
}

type mockControl struct {
	pumpErr  error
	valveErr error

	lastActor string
	lastPump  uint16
	lastValve int
	lastOpen  bool
	calls     int
}

func (m *mockControl) SetPumpInput(ctx context.Context, actor string, v uint16) error {
	m.calls++
	m.lastActor = actor
	m.lastPump = v
	return m.pumpErr
}
func (m *mockControl) SetValve(ctx context.Context, actor string, valve int, open bool) error {
	m.calls++
	m.lastActor = actor
	m.lastValve = valve
	m.lastOpen = open
	return m.valveErr
}

type mockSessions struct {
	startErr    error
	stopErr     error
	running     bool
	startCalled int
	stopCalled  int
}

func (m *mockSessions) Start(ctx context.Context) error {
	m.startCalled++
	if m.startErr == nil {
		m.running = true
	}
	return m.startErr
}
func (m *mockSessions) Stop(ctx context.Context) error {
	m.stopCalled++
	if m.stopErr == nil {
		m.running = false
	}
	return m.stopErr
}
func (m *mockSessions) Running() bool { return m.running }

type mockMonitoring struct {
	state models.PlantSnapshot
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.PlantSnapshot, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp  []models.PlantEvent
	err   error
	calls int
	last  service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PlantEvent, error) {
	m.calls++
	m.last = f
	return m.resp, m.err
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
