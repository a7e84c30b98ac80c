package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"caseline/internal/db"
	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/migrate"
	"caseline/internal/repo"
	"caseline/internal/roster"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, nil, zap.NewNop())
	ctx := context.Background()
	for _, m := range roster.DemoManagers() {
		cm := domain.CaseManager{Pin: m.Pin, Name: m.Name, Status: "active", CreatedAt: "2025-03-10T12:00:00Z"}
		if err := e.Repo.InsertManager(ctx, cm); err != nil {
			t.Fatalf("seed manager: %v", err)
		}
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: AuthConfig{JWTSecret: testSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func signToken(t *testing.T, pin string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   pin,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func authHeaders(t *testing.T, pin string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, pin)}
}

func TestHandleErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &engine.ValidationError{Msg: "case_pin is required"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"conflict", &engine.ConflictError{Msg: "case CASE-1 already exists"}, http.StatusConflict, "conflict"},
		{"not found", &engine.NotFoundError{Msg: "case CASE-404 not found"}, http.StatusNotFound, "not_found"},
		{"empty roster", &engine.NoAvailableManagerError{Msg: "no active case managers available"}, http.StatusServiceUnavailable, "no_available_manager"},
		{"dependency", &engine.DependencyError{Msg: "commit assignment"}, http.StatusBadGateway, "dependency_failed"},
		{"repo sentinel", repo.ErrNotFound, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			se := handleError(tc.err)
			ae, ok := se.(*apiError)
			if !ok {
				t.Fatalf("handleError returned %T", se)
			}
			if ae.status != tc.status || ae.Body.Code != tc.code {
				t.Fatalf("got %d/%s, want %d/%s", ae.status, ae.Body.Code, tc.status, tc.code)
			}
		})
	}
}

func TestHealthIsOpen(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	resp, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", resp.StatusCode, body)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	resp, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases", nil, map[string]string{"Authorization": "Bearer bogus"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d, want 401", resp.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	key := "cl_live_abc123"
	err := srv.Engine.Repo.InsertAPIKey(context.Background(), domain.APIKey{
		ID:        "key-1",
		Pin:       "CM-002691",
		KeyHash:   repo.HashAPIKey(key),
		Label:     "ci",
		CreatedAt: "2025-03-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("insert api key: %v", err)
	}
	resp, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/workspace/features", nil, map[string]string{"X-Api-Key": key})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Pin      string                   `json:"pin"`
		Features domain.WorkspaceFeatures `json:"features"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Pin != "CM-002691" || !out.Features.CanViewCases || out.Features.CanCreateCases {
		t.Fatalf("features response %+v", out)
	}
}

func TestAssignListAndBadges(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := authHeaders(t, "CM-002691")

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/assign", map[string]any{
		"case_pin":    "CASE-1",
		"lawyer_pin":  "LW-1",
		"client_name": "J. Doe",
		"case_type":   "personal-injury",
	}, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status %d: %s", resp.StatusCode, body)
	}
	var assigned struct {
		Case     domain.Case            `json:"case"`
		Assigned domain.ManagerWorkload `json:"assigned_to"`
	}
	if err := json.Unmarshal(body, &assigned); err != nil {
		t.Fatalf("decode assign: %v", err)
	}
	if assigned.Assigned.Pin == "" || assigned.Case.WorkflowStage != 1 {
		t.Fatalf("assign response %+v", assigned)
	}
	// Workload is reported as it stood before this assignment landed.
	if assigned.Assigned.ActiveCount != 0 {
		t.Fatalf("assigned_to.active_count = %d, want 0", assigned.Assigned.ActiveCount)
	}

	// Duplicate pin maps to 409 with the error envelope.
	resp, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/assign", map[string]any{
		"case_pin":    "CASE-1",
		"lawyer_pin":  "LW-2",
		"client_name": "J. Doe",
		"case_type":   "personal-injury",
	}, headers)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status %d: %s", resp.StatusCode, body)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != "conflict" {
		t.Fatalf("error code %q", envelope.Error.Code)
	}

	resp, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", resp.StatusCode, body)
	}
	var list struct {
		Cases []struct {
			CasePin   string `json:"case_pin"`
			StageName string `json:"stage_name"`
			Priority  struct {
				Level string `json:"level"`
			} `json:"priority"`
		} `json:"cases"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Cases) != 1 || list.Cases[0].StageName != "Stage 1: Case Opened" || list.Cases[0].Priority.Level != "onTrack" {
		t.Fatalf("list response %+v", list)
	}

	resp, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/badges", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("badges status %d: %s", resp.StatusCode, body)
	}
	var badges domain.BadgeCounts
	if err := json.Unmarshal(body, &badges); err != nil {
		t.Fatalf("decode badges: %v", err)
	}
	if badges.Degraded {
		t.Fatalf("badges degraded: %+v", badges)
	}

	// Activity log shows the assignment entry.
	resp, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/cases/CASE-1/activity", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activity status %d: %s", resp.StatusCode, body)
	}
	var activity struct {
		Entries []domain.ActivityEntry `json:"entries"`
	}
	if err := json.Unmarshal(body, &activity); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(activity.Entries) != 1 || activity.Entries[0].Type != "caseAssigned" {
		t.Fatalf("activity %+v", activity.Entries)
	}
}

func TestStageAndStatusEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := authHeaders(t, "CM-002691")

	doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/assign", map[string]any{
		"case_pin":    "CASE-1",
		"lawyer_pin":  "LW-1",
		"client_name": "J. Doe",
		"case_type":   "personal-injury",
	}, headers)

	resp, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/CASE-1/stage", map[string]any{"stage": 3}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stage status %d: %s", resp.StatusCode, body)
	}
	var c domain.Case
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("decode case: %v", err)
	}
	if c.WorkflowStage != 3 {
		t.Fatalf("stage %d", c.WorkflowStage)
	}

	// Backward move is a validation failure.
	resp, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/CASE-1/stage", map[string]any{"stage": 2}, headers)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("backward stage status %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/CASE-1/status", map[string]any{"status": "consentSent"}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/cases/CASE-404/stage", map[string]any{"stage": 2}, headers)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing case status %d: %s", resp.StatusCode, body)
	}
}
