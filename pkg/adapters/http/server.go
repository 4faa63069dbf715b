// Package http serves remodel sessions over a JSON API with server-sent snapshot
// diffs.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/service"
	"github.com/go-chi/chi/v5"
)

// Server routes requests to a service.Service.
type Server struct {
	Service *service.Service
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *service.Service, opts ...Option) http.Handler {
	server := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	svc.Observe(server.broadcast)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.CreateSession)
		r.Get("/", server.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/actions", server.RequestAction)
			r.Post("/reset", server.ResetSession)
			r.Post("/family", server.SwitchFamily)
			r.Post("/selection", server.Select)
			r.Post("/engine/events", server.EmitEvent)
			r.Get("/engine/commands", server.ListCommands)
			r.Get("/events", server.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`

	// Reason is set for rejected actions and is meant to be shown to the user.
	Reason string `json:"reason,omitempty"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Family domain.Family `json:"family"`
}

// FamilyRequest is the body of POST /sessions/{id}/family.
type FamilyRequest struct {
	Family domain.Family `json:"family"`
}

// ActionResponse is returned for accepted actions.
type ActionResponse struct {
	Result   *remodel.Result  `json:"result"`
	Snapshot *domain.Snapshot `json:"snapshot"`
}

// SwitchResponse is returned for family switch requests that reached a decision.
type SwitchResponse struct {
	Decision remodel.Decision `json:"decision"`
	Snapshot *domain.Snapshot `json:"snapshot"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if !s.decode(w, r, &body) {
		return
	}
	snap, err := s.Service.Create(r.Context(), body.Family)
	if err != nil {
		s.fail(w, "create session", err)
		return
	}
	s.respond(w, http.StatusCreated, snap)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.fail(w, "list sessions", err)
		return
	}
	s.respond(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get session", err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestAction handles POST /sessions/{id}/actions.
func (s *Server) RequestAction(w http.ResponseWriter, r *http.Request) {
	var action domain.Action
	if !s.decode(w, r, &action) {
		return
	}
	res, snap, err := s.Service.Act(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		s.fail(w, "request action", err)
		return
	}
	s.respond(w, http.StatusOK, ActionResponse{Result: res, Snapshot: snap})
}

// ResetSession handles POST /sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Service.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "reset session", err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// SwitchFamily handles POST /sessions/{id}/family.
func (s *Server) SwitchFamily(w http.ResponseWriter, r *http.Request) {
	var body FamilyRequest
	if !s.decode(w, r, &body) {
		return
	}
	d, snap, err := s.Service.Switch(r.Context(), chi.URLParam(r, "id"), body.Family)
	if err != nil {
		s.fail(w, "switch family", err)
		return
	}

	status := http.StatusOK
	switch d.Outcome {
	case domain.SwitchLocked:
		status = http.StatusLocked
	case domain.SwitchUnsupported:
		status = http.StatusUnprocessableEntity
	}
	s.respond(w, status, SwitchResponse{Decision: d, Snapshot: snap})
}

// Select handles POST /sessions/{id}/selection.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body service.SelectionRequest
	if !s.decode(w, r, &body) {
		return
	}
	snap, err := s.Service.Select(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, "select", err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// EmitEvent handles POST /sessions/{id}/engine/events.
func (s *Server) EmitEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if !s.decode(w, r, &ev) {
		return
	}
	if ev.Kind == "" {
		s.respond(w, http.StatusBadRequest, ErrorResponse{Error: "event kind is required"})
		return
	}
	snap, err := s.Service.Emit(r.Context(), chi.URLParam(r, "id"), ev)
	if err != nil {
		s.fail(w, "emit event", err)
		return
	}
	s.respond(w, http.StatusAccepted, snap)
}

// ListCommands handles GET /sessions/{id}/engine/commands.
func (s *Server) ListCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.Service.Commands(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "list commands", err)
		return
	}
	s.respond(w, http.StatusOK, cmds)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"app":     "remodel-http",
		"version": strings.TrimSpace(remodel.Version),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.respond(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// fail maps domain errors to status codes. Only unexpected failures log at Error.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: err.Error()}
	if ge, ok := domain.AsGuardError(err); ok {
		body.Reason = ge.Reason
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" refused", "status", status, "err", err)
	}
	s.respond(w, status, body)
}

func statusFor(err error) int {
	if _, ok := domain.AsGuardError(err); ok {
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownFamily),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, service.ErrNoInspection):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of open streams for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			slog.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

func (s *Server) broadcast(prev, next *domain.Snapshot) {
	diff := domain.Diff(prev, next)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(next.SessionID, string(data))
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). The optional watch
// parameter lists the diff fields the client wants: phase, visited, selection,
// corners, notice, tabs.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respond(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), sessionID); err != nil {
		s.fail(w, "subscribe", err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watched(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "phase":
			if diff.Phase != nil || diff.Family != nil {
				return true
			}
		case "visited", "history":
			if len(diff.Entered) > 0 {
				return true
			}
		case "selection":
			if diff.Selection != nil {
				return true
			}
		case "corners":
			if diff.CornerCount != nil {
				return true
			}
		case "notice":
			if diff.DebugMessage != nil || diff.Notice != nil || diff.LastGuard != nil {
				return true
			}
		case "tabs":
			if diff.TabsLocked != nil {
				return true
			}
		}
	}
	return false
}
