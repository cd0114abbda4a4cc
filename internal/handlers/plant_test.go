package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

func newPlantRouter(ctl *mockControl, mon *mockMonitoring) *gin.Engine {
	return newTestRouter(&service.Service{
		Authorization: &mockAuth{parseLogin: "admin001"},
		Monitoring:    mon,
		Control:       ctl,
	})
}

func TestPlantHandlers_GetState(t *testing.T) {
	mon := &mockMonitoring{state: models.PlantSnapshot{ID: 1, State: models.PlantState{Tank1Level: 500, Valve2Open: true}, TanksOn: true}}
	r := newPlantRouter(&mockControl{}, mon)

	// requires auth → 401 without header
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plant/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/plant/state", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.PlantSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.State.Tank1Level != 500 || !st.State.Valve2Open || !st.TanksOn {
		t.Fatalf("unexpected state: %+v", st)
	}

	mon.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/plant/state", nil)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestPlantHandlers_SetPump(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		ctlErr   error
		wantCode int
		wantCall bool
	}{
		{name: "ok", body: `{"value":12000}`, wantCode: http.StatusOK, wantCall: true},
		{name: "zero is a valid input", body: `{"value":0}`, wantCode: http.StatusOK, wantCall: true},
		{name: "missing value", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "out of range", body: `{"value":70000}`, wantCode: http.StatusBadRequest},
		{name: "tanks off", body: `{"value":1}`, ctlErr: service.ErrTanksOff, wantCode: http.StatusConflict, wantCall: true},
		{name: "event store down", body: `{"value":1}`, ctlErr: errors.New("db down"), wantCode: http.StatusInternalServerError, wantCall: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctl := &mockControl{pumpErr: tc.ctlErr}
			r := newPlantRouter(ctl, &mockMonitoring{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/plant/pump", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, withAuth(req))

			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if (ctl.calls == 1) != tc.wantCall {
				t.Fatalf("control calls: %d", ctl.calls)
			}
			if tc.wantCall && ctl.lastActor != "admin001" {
				t.Fatalf("actor: got %q", ctl.lastActor)
			}
		})
	}
}

func TestPlantHandlers_SetValve(t *testing.T) {
	ctl := &mockControl{}
	r := newPlantRouter(ctl, &mockMonitoring{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plant/valve", bytes.NewBufferString(`{"valve":2,"open":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, withAuth(req))
	if w.Code != http.StatusOK {
		t.Fatalf("valve status=%d, body=%s", w.Code, w.Body.String())
	}
	if ctl.lastValve != 2 || !ctl.lastOpen {
		t.Fatalf("unexpected control call: valve=%d open=%t", ctl.lastValve, ctl.lastOpen)
	}
	var resp struct {
		Status string `json:"status"`
		Valve  int    `json:"valve"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusValveSet || resp.Valve != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	for _, body := range []string{`{"valve":3,"open":true}`, `{"valve":1}`, `{"open":false}`} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/api/v1/plant/valve", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, withAuth(req))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, w.Code)
		}
	}
	if ctl.calls != 1 {
		t.Fatalf("invalid bodies must not reach the service, calls=%d", ctl.calls)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}
