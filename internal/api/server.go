// Package api exposes the read-only ops HTTP surface: health plus session
// and history inspection. No business logic lives here, only HTTP handling
// and JSON serialization.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"studytables/pkg/interfaces"
	"studytables/pkg/types"
)

// HistoryReader is the slice of the history log the API needs. Local
// interface avoids coupling to the sqlite implementation.
type HistoryReader interface {
	RecentBySession(ctx context.Context, sessionKey string, limit int) ([]*types.ToggleEvent, error)
	HealthCheck(ctx context.Context) error
}

// GatewayStatus reports the platform connection state.
type GatewayStatus interface {
	Connected() bool
}

// Server is the ops HTTP API.
type Server struct {
	store   interfaces.SessionStore
	history HistoryReader
	gateway GatewayStatus
	router  *http.ServeMux
}

// NewServer creates the API server. history and gateway may be nil.
func NewServer(store interfaces.SessionStore, history HistoryReader, gateway GatewayStatus) *Server {
	s := &Server{
		store:   store,
		history: history,
		gateway: gateway,
		router:  http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/sessions", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleSessions))))
	s.router.Handle("/api/sessions/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleSessionByKey))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleHealth))))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SessionSummary is the list-view shape of one session.
type SessionSummary struct {
	Key            string `json:"key"`
	ChannelID      string `json:"channel_id"`
	GuildID        string `json:"guild_id,omitempty"`
	CourseCount    int    `json:"course_count"`
	VolunteerCount int    `json:"volunteer_count"`
}

type listSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type sessionResponse struct {
	Session *types.Session `json:"session"`
	Key     string         `json:"key"`
}

type historyResponse struct {
	Events []*types.ToggleEvent `json:"events"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Sessions         int    `json:"sessions"`
	GatewayConnected bool   `json:"gateway_connected"`
	HistoryHealthy   bool   `json:"history_healthy"`
	Timestamp        string `json:"timestamp"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions := s.store.List()
		resp := listSessionsResponse{Sessions: []SessionSummary{}}
		for _, session := range sessions {
			summary := SessionSummary{
				Key:         session.Key,
				ChannelID:   session.ChannelID,
				GuildID:     session.GuildID,
				CourseCount: session.Courses.Len(),
			}
			for _, key := range session.Courses.Keys() {
				entry, _ := session.Courses.Get(key)
				summary.VolunteerCount += len(entry.Volunteers)
			}
			resp.Sessions = append(resp.Sessions, summary)
		}
		s.sendJSON(w, resp, http.StatusOK)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSessionByKey(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(path, "/")
	key := parts[0]
	if key == "" {
		s.sendError(w, "Session key required", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(parts) > 1 && parts[1] == "history" {
		s.getSessionHistory(w, r, key)
		return
	}

	session, err := s.store.Get(key)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			s.sendError(w, "Session not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get session %s: %v", key, err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, sessionResponse{Session: session, Key: session.Key}, http.StatusOK)
}

func (s *Server) getSessionHistory(w http.ResponseWriter, r *http.Request, key string) {
	if s.history == nil {
		s.sendJSON(w, historyResponse{Events: []*types.ToggleEvent{}}, http.StatusOK)
		return
	}
	events, err := s.history.RecentBySession(r.Context(), key, 100)
	if err != nil {
		log.Printf("Failed to query history for session %s: %v", key, err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*types.ToggleEvent{}
	}
	s.sendJSON(w, historyResponse{Events: events}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodOptions {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:         "healthy",
		Sessions:       len(s.store.List()),
		HistoryHealthy: true,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if s.gateway != nil {
		resp.GatewayConnected = s.gateway.Connected()
	}
	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.history.HealthCheck(ctx); err != nil {
			resp.HistoryHealthy = false
			resp.Status = "degraded"
		}
	}
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) sendJSON(w http.ResponseWriter, data interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, map[string]string{"error": message}, status)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
