// Package api exposes the board over HTTP: JSON endpoints for rooms,
// reminders, people and tags, plus a websocket change feed.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javiortega/roomboard/internal/auth"
	"github.com/javiortega/roomboard/internal/lastroom"
	"github.com/javiortega/roomboard/internal/metrics"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
	"github.com/javiortega/roomboard/internal/service"
	"github.com/javiortega/roomboard/internal/session"
)

// Server provides the HTTP API.
type Server struct {
	svc      *service.Service
	auth     *auth.Manager
	feed     session.ChangeFeed
	stateDir string
	logger   *logrus.Logger
	mux      *http.ServeMux

	sessMu   sync.Mutex
	sessions map[string]*session.Session
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, authMgr *auth.Manager, feed session.ChangeFeed, stateDir string, logger *logrus.Logger) *Server {
	s := &Server{
		svc:      svc,
		auth:     authMgr,
		feed:     feed,
		stateDir: stateDir,
		logger:   logger,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*session.Session),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Close tears down every live user session.
func (s *Server) Close() {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// Auth
	s.public("POST /api/auth/register", s.handleRegister)
	s.public("POST /api/auth/login", s.handleLogin)
	s.protected("GET /api/auth/session", s.handleWhoAmI)
	s.protected("POST /api/auth/logout", s.handleLogout)

	// Rooms and the entry state machine
	s.protected("GET /api/state", s.handleState)
	s.protected("GET /api/rooms", s.handleListRooms)
	s.protected("POST /api/rooms", s.handleCreateRoom)
	s.protected("POST /api/rooms/enter", s.handleEnterRoom)
	s.protected("POST /api/rooms/access-code", s.handleAccessCode)
	s.protected("POST /api/rooms/cancel", s.handleCancelPrompt)
	s.protected("POST /api/rooms/leave", s.handleLeaveRoom)
	s.protected("POST /api/rooms/resume", s.handleResumeRoom)
	s.protected("PUT /api/rooms/privacy", s.handleSetPrivacy)
	s.protected("DELETE /api/rooms/current", s.handleDeleteRoom)
	s.protected("GET /api/rooms/invitations", s.handleListInvitations)
	s.protected("POST /api/rooms/invitations", s.handleInvite)
	s.protected("GET /api/rooms/members", s.handleListMembers)
	s.protected("POST /api/rooms/members", s.handleAddMember)

	// Reminders in the current room
	s.protected("GET /api/reminders", s.handleReminderView)
	s.protected("POST /api/reminders", s.handleCreateReminder)
	s.protected("PUT /api/reminders/{id}", s.handleUpdateReminder)
	s.protected("PATCH /api/reminders/{id}/progress", s.handleUpdateProgress)
	s.protected("DELETE /api/reminders/{id}", s.handleDeleteReminder)
	s.protected("DELETE /api/reminders", s.handleClearRoom)
	s.protected("GET /api/reminders/export", s.handleExport)
	s.protected("POST /api/reminders/import", s.handleImport)

	// Comments and tags
	s.protected("GET /api/reminders/{id}/comments", s.handleListComments)
	s.protected("POST /api/reminders/{id}/comments", s.handleAddComment)
	s.protected("PUT /api/reminders/{id}/tags/{tagID}", s.handleAssignTag)
	s.protected("DELETE /api/reminders/{id}/tags/{tagID}", s.handleUnassignTag)
	s.protected("GET /api/tags", s.handleListTags)
	s.protected("POST /api/tags", s.handleCreateTag)
	s.protected("DELETE /api/tags/{id}", s.handleDeleteTag)

	// People directory
	s.protected("GET /api/people", s.handleListPeople)
	s.protected("POST /api/people", s.handleAddPerson)
	s.protected("PUT /api/people/{id}", s.handleUpdatePerson)
	s.protected("DELETE /api/people/{id}", s.handleDeletePerson)

	// Websocket change feed. Token comes in a query parameter because
	// browsers cannot set headers on websocket dials.
	s.mux.HandleFunc("GET /api/ws", s.handleWebsocket)
}

// public registers an instrumented route without authentication.
func (s *Server) public(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, instrument(pattern, h))
}

// protected registers an instrumented route behind the bearer-token check.
func (s *Server) protected(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.auth.Middleware(instrument(pattern, h)))
}

func instrument(pattern string, h http.HandlerFunc) http.Handler {
	method, route, _ := strings.Cut(pattern, " ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		metrics.ObserveRequest(method, route, start)
	})
}

// ---------------------------------------------------------------------------
// Per-user sessions
// ---------------------------------------------------------------------------

// session returns the live session for the authenticated user, creating it
// on first use.
func (s *Server) session(r *http.Request) *session.Session {
	claims := auth.ClaimsFromContext(r.Context())
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if sess, ok := s.sessions[claims.UserID]; ok {
		return sess
	}
	store := lastroom.NewFileStore(s.stateDir, claims.UserID)
	sess := session.New(r.Context(), s.svc, s.feed, store, claims.UserID, s.logger)
	s.sessions[claims.UserID] = sess
	return sess
}

func (s *Server) dropSession(userID string) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.Close()
		delete(s.sessions, userID)
	}
}

// requireRoom resolves the session's entered room. It writes a 409 and
// returns ok=false when the user is not inside a room.
func (s *Server) requireRoom(w http.ResponseWriter, sess *session.Session) (*models.Room, bool) {
	room := sess.CurrentRoom()
	if room == nil {
		s.respondError(w, http.StatusConflict, session.ErrNotInRoom.Error())
		return nil, false
	}
	return room, true
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// respondServiceError maps a service, session or store failure onto an HTTP
// status. Store failures are classified into the stable category messages
// rather than leaking driver errors to the client.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		s.respondError(w, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, session.ErrEmptyAccessCode):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWrongAccessCode):
		metrics.AccessDenied.Inc()
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrNotOwner):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrNotInRoom), errors.Is(err, session.ErrNoPendingRoom):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrLastRoomGone):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCodeExhausted):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		kind := repository.Classify(err)
		metrics.StoreErrors.WithLabelValues(kindLabel(kind)).Inc()
		s.logger.WithError(err).Error("store operation failed")
		s.respondError(w, statusForKind(kind), repository.Describe(kind))
	}
}

func statusForKind(k repository.Kind) int {
	switch k {
	case repository.KindNotFound:
		return http.StatusNotFound
	case repository.KindConflict:
		return http.StatusConflict
	case repository.KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func kindLabel(k repository.Kind) string {
	switch k {
	case repository.KindSchema:
		return "schema"
	case repository.KindPermission:
		return "permission"
	case repository.KindNotFound:
		return "not_found"
	case repository.KindConflict:
		return "conflict"
	default:
		return "generic"
	}
}
