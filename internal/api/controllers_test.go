package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"qbot-core/internal/supervisor"
	"qbot-core/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSupervisor scripts supervisor responses for handler tests.
type fakeSupervisor struct {
	startErr error
	stopErr  error
	status   supervisor.Status
	started  []config.Run
}

func (f *fakeSupervisor) Start(settings config.Run) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, settings)
	return nil
}

func (f *fakeSupervisor) Stop() error               { return f.stopErr }
func (f *fakeSupervisor) Status() supervisor.Status { return f.status }

func newTestServer(t *testing.T, sup WorkerSupervisor, tradeLog string) *Server {
	t.Helper()
	return NewServer(sup, nil, nil, nil, tradeLog, "test-secret", "hunter2")
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func operatorToken(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{"password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t, &fakeSupervisor{}, "")
	w := doJSON(t, s, http.MethodPost, "/api/auth/login", "", gin.H{"password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, &fakeSupervisor{}, "")
	w := doJSON(t, s, http.MethodGet, "/api/status", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/status", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status with garbage token = %d, want 401", w.Code)
	}
}

func TestStartWorker(t *testing.T) {
	sup := &fakeSupervisor{}
	s := newTestServer(t, sup, "")
	token := operatorToken(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/start", token, gin.H{
		"payout":    85,
		"timeframe": 120,
		"account":   "practice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	if len(sup.started) != 1 {
		t.Fatalf("supervisor started %d times, want 1", len(sup.started))
	}
	got := sup.started[0]
	if got.PayoutThreshold != 85 || got.Timeframe != 120 {
		t.Fatalf("settings not forwarded: %+v", got)
	}
	// Unspecified fields keep their defaults.
	if got.PayoutRefresh != 10 || got.MaxConcurrent != 1 {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestStartWorkerConflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already running", supervisor.ErrAlreadyRunning, http.StatusConflict},
		{"missing credentials", supervisor.ErrMissingCredentials, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, &fakeSupervisor{startErr: tc.err}, "")
			token := operatorToken(t, s)
			w := doJSON(t, s, http.MethodPost, "/api/start", token, gin.H{})
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestStopWorkerNotRunning(t *testing.T) {
	s := newTestServer(t, &fakeSupervisor{stopErr: supervisor.ErrNotRunning}, "")
	token := operatorToken(t, s)
	w := doJSON(t, s, http.MethodPost, "/api/stop", token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestTradeLogsEndpoint(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	logPath := filepath.Join(t.TempDir(), "trades.log")
	content := `{"id":"a","timestamp":"` + today + `T09:00:00.000000","asset":"EURUSD_otc","status":"active","pnl":0}
{"id":"a","timestamp":"` + today + `T09:01:05.000000","asset":"EURUSD_otc","status":"won","pnl":17}
{"id":"b","timestamp":"` + today + `T09:02:00.000000","asset":"GBPUSD_otc","status":"active","pnl":0}
garbage line
`
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, &fakeSupervisor{}, logPath)
	token := operatorToken(t, s)
	w := doJSON(t, s, http.MethodGet, "/api/trade_logs", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var view tradeLogView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.ActiveTrades) != 1 || view.ActiveTrades[0].ID != "b" {
		t.Fatalf("active = %+v, want only b", view.ActiveTrades)
	}
	if len(view.TradeHistory) != 1 || view.TradeHistory[0].ID != "a" {
		t.Fatalf("history = %+v, want only a", view.TradeHistory)
	}
	if view.DailyPnL != 17 {
		t.Fatalf("daily pnl = %v, want 17", view.DailyPnL)
	}
}

func TestTradeLogsMissingFileIsEmpty(t *testing.T) {
	s := newTestServer(t, &fakeSupervisor{}, filepath.Join(t.TempDir(), "nope.log"))
	token := operatorToken(t, s)
	w := doJSON(t, s, http.MethodGet, "/api/trade_logs", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var view tradeLogView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.ActiveTrades) != 0 || len(view.TradeHistory) != 0 || view.DailyPnL != 0 {
		t.Fatalf("missing journal should read empty: %+v", view)
	}
}

func TestRefreshAssets(t *testing.T) {
	s := newTestServer(t, &fakeSupervisor{}, "")
	s.Refresh = func(ctx context.Context, payout float64) ([]string, error) {
		if payout != 90 {
			t.Fatalf("payout forwarded = %v, want 90", payout)
		}
		return []string{"EURUSD_otc"}, nil
	}
	token := operatorToken(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/refresh_assets?payout=90", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/refresh_assets?payout=250", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range payout status = %d, want 400", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	settings := config.DefaultRun()
	sup := &fakeSupervisor{status: supervisor.Status{Running: true, PID: 1234, Settings: &settings}}
	s := newTestServer(t, sup, "")
	token := operatorToken(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/status", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Running bool `json:"running"`
		PID     int  `json:"pid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Running || resp.PID != 1234 {
		t.Fatalf("resp = %+v", resp)
	}
}
