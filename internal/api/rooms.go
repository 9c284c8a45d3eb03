package api

import (
	"net/http"
	"strconv"

	"github.com/javiortega/roomboard/internal/auth"
	"github.com/javiortega/roomboard/internal/metrics"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/session"
)

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case auth.ErrWeakPassword:
			s.respondError(w, http.StatusBadRequest, err.Error())
		case auth.ErrEmailExists:
			s.respondError(w, http.StatusConflict, err.Error())
		default:
			s.respondServiceError(w, err)
		}
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue token")
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	s.respondJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue token")
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	s.respondJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	s.dropSession(claims.UserID)
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Rooms and the entry state machine
// ---------------------------------------------------------------------------

// stateResponse is the full session snapshot returned after every state
// transition, so clients never have to derive state locally.
type stateResponse struct {
	State       string       `json:"state"`
	CurrentRoom *models.Room `json:"current_room,omitempty"`
	PendingRoom *models.Room `json:"pending_room,omitempty"`
	LastRoom    string       `json:"last_room_code,omitempty"`
}

func (s *Server) stateSnapshot(sess *session.Session) stateResponse {
	resp := stateResponse{
		State:       sess.State().String(),
		CurrentRoom: sess.CurrentRoom(),
		PendingRoom: sess.PendingRoom(),
	}
	if code, ok := sess.LastRoomCode(); ok {
		resp.LastRoom = code
	}
	return resp
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.stateSnapshot(s.session(r)))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if parseBoolParam(r, "refresh") {
		if err := sess.RefreshRooms(r.Context()); err != nil {
			s.logger.WithError(err).Warn("room list refresh failed")
		}
	}
	rooms, message := sess.Rooms()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"rooms":   rooms,
		"message": message,
	})
}

type createRoomRequest struct {
	Name       string `json:"name"`
	AccessCode string `json:"access_code"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	room, err := s.svc.CreateRoom(r.Context(), req.Name, req.AccessCode, sess.UserID())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// The creator goes straight into the new room, access code already
	// proven by having just set it.
	if _, err := sess.SelectRoom(r.Context(), room); err != nil {
		s.logger.WithError(err).Warn("could not enter freshly created room")
	}
	if room.IsLocked {
		if err := sess.SubmitAccessCode(r.Context(), req.AccessCode); err != nil {
			s.logger.WithError(err).Warn("could not enter freshly created room")
		}
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"room":  room,
		"state": s.stateSnapshot(sess),
	})
}

type enterRoomRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleEnterRoom(w http.ResponseWriter, r *http.Request) {
	var req enterRoomRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	state, err := sess.SelectRoomByCode(r.Context(), req.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if state == session.StateInRoom {
		metrics.RoomEntries.WithLabelValues("false").Inc()
	}

	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

type accessCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleAccessCode(w http.ResponseWriter, r *http.Request) {
	var req accessCodeRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	if err := sess.SubmitAccessCode(r.Context(), req.Code); err != nil {
		s.respondServiceError(w, err)
		return
	}
	metrics.RoomEntries.WithLabelValues("true").Inc()

	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

func (s *Server) handleCancelPrompt(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.CancelAccessPrompt()
	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

type leaveRoomRequest struct {
	Forget bool `json:"forget"`
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req leaveRoomRequest
	if r.ContentLength > 0 {
		if ok, msg := s.decodeJSON(r, &req); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
	}

	sess := s.session(r)
	sess.LeaveRoom(req.Forget)
	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

func (s *Server) handleResumeRoom(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if _, err := sess.ResumeLastRoom(r.Context()); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

type privacyRequest struct {
	Lock       bool   `json:"lock"`
	AccessCode string `json:"access_code"`
}

func (s *Server) handleSetPrivacy(w http.ResponseWriter, r *http.Request) {
	var req privacyRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	if err := sess.SetPrivacy(r.Context(), req.Lock, req.AccessCode); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

type deleteRoomRequest struct {
	AccessCode string `json:"access_code"`
	Confirm    bool   `json:"confirm"`
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req deleteRoomRequest
	if r.ContentLength > 0 {
		if ok, msg := s.decodeJSON(r, &req); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
	}
	if !req.Confirm {
		s.respondError(w, http.StatusBadRequest, "room deletion requires confirm: true")
		return
	}

	sess := s.session(r)
	if err := sess.DeleteCurrentRoom(r.Context(), req.AccessCode); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, s.stateSnapshot(sess))
}

// ---------------------------------------------------------------------------
// Invitations and memberships
// ---------------------------------------------------------------------------

type inviteRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	invitation, err := s.svc.InviteToRoom(r.Context(), room.Code, req.Email)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, invitation)
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	invitations, err := s.svc.ListInvitations(r.Context(), room.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, invitations)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	members, err := s.svc.ListRoomMembers(r.Context(), room.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	membership, err := s.svc.AddRoomMember(r.Context(), room.Code, req.UserID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, membership)
}

// parseBoolParam reads an optional boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
