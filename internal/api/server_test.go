package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"studytables/internal/parser"
	"studytables/internal/store"
	"studytables/pkg/types"
)

type stubHistory struct {
	events    []*types.ToggleEvent
	queryErr  error
	healthErr error
}

func (s *stubHistory) RecentBySession(ctx context.Context, sessionKey string, limit int) ([]*types.ToggleEvent, error) {
	return s.events, s.queryErr
}

func (s *stubHistory) HealthCheck(ctx context.Context) error {
	return s.healthErr
}

type stubGateway struct {
	connected bool
}

func (s *stubGateway) Connected() bool { return s.connected }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.NewStore(filepath.Join(t.TempDir(), "sessions.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("store load failed: %v", err)
	}
	return s
}

func seedSession(t *testing.T, s *store.Store, key string) *types.Session {
	t.Helper()
	courses := parser.Parse("MATH-101 | Prof: A. Lee\nHW1\n\nCHEM-132\nX")
	entry, _ := courses.Get("MATH-101")
	entry.AddVolunteer("U1")
	entry.AddVolunteer("U2")
	session, err := s.Create(key, "chan-1", "guild-1", "hello", courses)
	if err != nil {
		t.Fatalf("seed session failed: %v", err)
	}
	return session
}

func doRequest(t *testing.T, server *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "555")
	server := NewServer(s, nil, &stubGateway{connected: true})

	rec := doRequest(t, server, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	var resp struct {
		Status           string `json:"status"`
		Sessions         int    `json:"sessions"`
		GatewayConnected bool   `json:"gateway_connected"`
		HistoryHealthy   bool   `json:"history_healthy"`
	}
	decode(t, rec, &resp)
	if resp.Status != "healthy" || resp.Sessions != 1 || !resp.GatewayConnected || !resp.HistoryHealthy {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_DegradedOnHistoryFailure(t *testing.T) {
	server := NewServer(newTestStore(t), &stubHistory{healthErr: errors.New("db locked")}, nil)

	rec := doRequest(t, server, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status         string `json:"status"`
		HistoryHealthy bool   `json:"history_healthy"`
	}
	decode(t, rec, &resp)
	if resp.Status != "degraded" || resp.HistoryHealthy {
		t.Errorf("health = %+v", resp)
	}
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "555")
	server := NewServer(s, nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Sessions []SessionSummary `json:"sessions"`
	}
	decode(t, rec, &resp)
	if len(resp.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(resp.Sessions))
	}
	summary := resp.Sessions[0]
	if summary.Key != "555" || summary.ChannelID != "chan-1" || summary.CourseCount != 2 || summary.VolunteerCount != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestListSessions_Empty(t *testing.T) {
	server := NewServer(newTestStore(t), nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Empty list renders as [], not null.
	var raw map[string]json.RawMessage
	decode(t, rec, &raw)
	if string(raw["sessions"]) != "[]" {
		t.Errorf("sessions = %s, want []", raw["sessions"])
	}
}

func TestGetSession(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "555")
	server := NewServer(s, nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions/555")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Key     string `json:"key"`
		Session struct {
			ChannelID    string          `json:"channel_id"`
			Announcement string          `json:"announcement"`
			Courses      json.RawMessage `json:"courses"`
		} `json:"session"`
	}
	decode(t, rec, &resp)
	if resp.Key != "555" || resp.Session.ChannelID != "chan-1" || resp.Session.Announcement != "hello" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Session.Courses) == 0 {
		t.Error("courses missing from session body")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	server := NewServer(newTestStore(t), nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions/999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionHistory(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "555")
	history := &stubHistory{events: []*types.ToggleEvent{
		{ID: "e1", SessionKey: "555", CourseKey: "MATH-101", UserID: "U1", Added: true},
	}}
	server := NewServer(s, history, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions/555/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Events []*types.ToggleEvent `json:"events"`
	}
	decode(t, rec, &resp)
	if len(resp.Events) != 1 || resp.Events[0].ID != "e1" {
		t.Errorf("events = %+v", resp.Events)
	}
}

func TestSessionHistory_DisabledLogReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "555")
	server := NewServer(s, nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions/555/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var raw map[string]json.RawMessage
	decode(t, rec, &raw)
	if string(raw["events"]) != "[]" {
		t.Errorf("events = %s, want []", raw["events"])
	}
}

func TestSessionHistory_QueryFailure(t *testing.T) {
	s := newTestStore(t)
	server := NewServer(s, &stubHistory{queryErr: errors.New("db locked")}, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/sessions/555/history")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := NewServer(newTestStore(t), nil, nil)

	for _, path := range []string{"/api/sessions", "/api/sessions/555", "/health"} {
		rec := doRequest(t, server, http.MethodPost, path)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d, want 405", path, rec.Code)
		}
	}
}

func TestCORSHeaders(t *testing.T) {
	server := NewServer(newTestStore(t), nil, nil)

	rec := doRequest(t, server, http.MethodOptions, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
