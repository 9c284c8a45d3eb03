package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/javiortega/roomboard/internal/metrics"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/service"
	"github.com/javiortega/roomboard/internal/session"
)

// maxImportBytes bounds the accepted import payload.
const maxImportBytes = 1 << 20

// ---------------------------------------------------------------------------
// Reminder view
// ---------------------------------------------------------------------------

// handleReminderView renders the current room's reminders through the
// filter, search and sort pipeline. The expired panel always reflects the
// full set, independent of the active filters.
func (s *Server) handleReminderView(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if _, ok := s.requireRoom(w, sess); !ok {
		return
	}
	if parseBoolParam(r, "refresh") {
		if err := sess.RefreshReminders(r.Context()); err != nil {
			s.respondServiceError(w, err)
			return
		}
	}

	q := r.URL.Query()
	query := session.Query{
		Search:   q.Get("search"),
		Category: session.Category(q.Get("category")),
		Priority: q.Get("priority"),
		Assignee: q.Get("assignee"),
		Tag:      q.Get("tag"),
		SortBy:   session.SortKey(q.Get("sort")),
		Order:    session.SortOrder(q.Get("order")),
	}

	names := make(map[string]string)
	people, err := s.svc.ListPeople(r.Context())
	if err != nil {
		s.logger.WithError(err).Warn("could not load people for search matching")
	}
	for _, p := range people {
		names[p.ID] = p.Name
	}

	view := session.BuildView(sess.Reminders(), names, query, time.Now())
	s.respondJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Reminder mutations
// ---------------------------------------------------------------------------

type reminderRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"` // RFC 3339 or YYYY-MM-DD
	Priority    string   `json:"priority"`
	Assignees   []string `json:"assignees"`
}

func (s *Server) reminderInput(w http.ResponseWriter, r *http.Request) (service.CreateReminderInput, bool) {
	var req reminderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return service.CreateReminderInput{}, false
	}

	in := service.CreateReminderInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		Assignees:   req.Assignees,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "due_date must be RFC 3339 or YYYY-MM-DD")
			return service.CreateReminderInput{}, false
		}
		in.DueDate = &due
	}
	return in, true
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	in, ok := s.reminderInput(w, r)
	if !ok {
		return
	}

	created, err := s.svc.CreateReminder(r.Context(), room.Code, in)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if _, ok := s.requireRoom(w, sess); !ok {
		return
	}

	in, ok := s.reminderInput(w, r)
	if !ok {
		return
	}

	updated, err := s.svc.UpdateReminder(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

type progressRequest struct {
	Progress int `json:"progress"`
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	progress, updatedAt, err := s.svc.UpdateProgress(r.Context(), r.PathValue("id"), req.Progress)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"progress":   progress,
		"updated_at": updatedAt,
	})
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteReminder(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearRoom(w http.ResponseWriter, r *http.Request) {
	if !parseBoolParam(r, "confirm") {
		s.respondError(w, http.StatusBadRequest, "clearing a room requires confirm=true")
		return
	}

	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	if err := s.svc.ClearRoom(r.Context(), room.Code); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Import / export
// ---------------------------------------------------------------------------

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	data, err := s.svc.ExportReminders(r.Context(), room.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reminders.json"`)
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Error("failed to write export")
	}
}

type importResponse struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not read import payload")
		return
	}

	result, err := s.svc.ImportReminders(r.Context(), room.Code, data)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	resp := importResponse{Imported: result.Imported, Skipped: skippedMessages(result.Skipped)}
	metrics.ImportedReminders.Add(float64(result.Imported))
	metrics.ImportSkipped.Add(float64(len(resp.Skipped)))

	// Imports bypass the optimistic merge path, so force a re-fetch to
	// reconcile server-assigned defaults.
	if err := sess.RefreshReminders(r.Context()); err != nil {
		s.logger.WithError(err).Warn("reminder refresh after import failed")
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func skippedMessages(err error) []string {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		msgs := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

// parseDate accepts an ISO date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ---------------------------------------------------------------------------
// Comments
// ---------------------------------------------------------------------------

type addCommentRequest struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.svc.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	comment, err := s.svc.AddComment(r.Context(), r.PathValue("id"), req.Author, req.Message)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, comment)
}

// ---------------------------------------------------------------------------
// Tags
// ---------------------------------------------------------------------------

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	tags, err := s.svc.ListTags(r.Context(), room.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	room, ok := s.requireRoom(w, sess)
	if !ok {
		return
	}

	var req createTagRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	tag, err := s.svc.CreateTag(r.Context(), room.Code, req.Name, req.Color)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAssignTag(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.AssignTag(r.Context(), r.PathValue("id"), r.PathValue("tagID")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUnassignTag(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.UnassignTag(r.Context(), r.PathValue("id"), r.PathValue("tagID")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// People
// ---------------------------------------------------------------------------

type personRequest struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Areas []string `json:"areas"`
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := s.svc.ListPeople(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, people)
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	person, err := s.svc.AddPerson(r.Context(), req.Name, req.Email, req.Areas)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, person)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	person, err := s.svc.UpdatePerson(r.Context(), &models.Person{
		ID:    r.PathValue("id"),
		Name:  req.Name,
		Email: req.Email,
		Areas: req.Areas,
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, person)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePerson(r.Context(), r.PathValue("id")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}
