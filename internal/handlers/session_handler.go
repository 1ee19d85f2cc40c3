package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"
)

// SessionHandler は学習セッションのAPI
type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(s service.SessionService) *SessionHandler {
	return &SessionHandler{service: s}
}

func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListSessions"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if sessions == nil {
		sessions = []*model.StudySession{}
	}
	logger.Debug("Sessions listed", slog.Int("count", len(sessions)))
	webutil.RespondWithJSON(w, http.StatusOK, sessions, logger)
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CreateSession"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var req model.SessionRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	session, err := h.service.CreateSession(r.Context(), studentID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, session, logger)
}

func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "UpdateSession"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, logger, "session_id")
	if !ok {
		return
	}

	var req model.SessionRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	session, err := h.service.UpdateSession(r.Context(), studentID, sessionID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, session, logger)
}

func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "DeleteSession"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, logger, "session_id")
	if !ok {
		return
	}

	if err := h.service.DeleteSession(r.Context(), studentID, sessionID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSession は完了/未完了を切り替えます
func (h *SessionHandler) ToggleSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ToggleSession"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, logger, "session_id")
	if !ok {
		return
	}

	session, err := h.service.ToggleSession(r.Context(), studentID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, session, logger)
}

// ListMentorSessions は配下の学生全員のセッションを返します (メンター用)
func (h *SessionHandler) ListMentorSessions(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListMentorSessions"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	sessions, err := h.service.ListMentorSessions(r.Context(), mentorID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if sessions == nil {
		sessions = []model.MentorSessionView{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, sessions, logger)
}
