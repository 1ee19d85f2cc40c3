package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"
)

// TestHandler はトピックの確認テストのAPI。メンター用と学生用の両方を持つ
type TestHandler struct {
	service service.TestService
}

func NewTestHandler(s service.TestService) *TestHandler {
	return &TestHandler{service: s}
}

func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CreateTest"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	var req model.TestRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	test, err := h.service.CreateTest(r.Context(), mentorID, topicID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, test, logger)
}

func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetTest"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	testID, ok := pathID(w, r, logger, "test_id")
	if !ok {
		return
	}

	test, err := h.service.GetTest(r.Context(), mentorID, testID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, test, logger)
}

// UpdateTest は設問を丸ごと置き換えます
func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "UpdateTest"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	testID, ok := pathID(w, r, logger, "test_id")
	if !ok {
		return
	}

	var req model.TestRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	test, err := h.service.UpdateTest(r.Context(), mentorID, testID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, test, logger)
}

func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "DeleteTest"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	testID, ok := pathID(w, r, logger, "test_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTest(r.Context(), mentorID, testID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStudentTest は正解を含まない形でテストを返します
func (h *TestHandler) GetStudentTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetStudentTest"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	testID, ok := pathID(w, r, logger, "test_id")
	if !ok {
		return
	}

	view, err := h.service.GetTestForStudent(r.Context(), studentID, testID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, view, logger)
}

func (h *TestHandler) SubmitTest(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "SubmitTest"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	testID, ok := pathID(w, r, logger, "test_id")
	if !ok {
		return
	}

	var req model.SubmitTestRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	result, err := h.service.SubmitTest(r.Context(), studentID, testID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
