package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"

	"github.com/google/uuid"
)

// maxCurriculumBytes は取り込むYAMLの上限
const maxCurriculumBytes = 2 << 20

// CurriculumHandler はメンターの科目・トピックのAPI
type CurriculumHandler struct {
	service service.CurriculumService
}

func NewCurriculumHandler(s service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: s}
}

func (h *CurriculumHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListSubjects"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	subjects, err := h.service.ListSubjects(r.Context(), mentorID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if subjects == nil {
		subjects = []*model.Subject{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, subjects, logger)
}

func (h *CurriculumHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CreateSubject"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var req model.SubjectRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	subject, err := h.service.CreateSubject(r.Context(), mentorID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, subject, logger)
}

func (h *CurriculumHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "UpdateSubject"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	subjectID, ok := pathID(w, r, logger, "subject_id")
	if !ok {
		return
	}

	var req model.SubjectRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	subject, err := h.service.UpdateSubject(r.Context(), mentorID, subjectID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, subject, logger)
}

func (h *CurriculumHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "DeleteSubject"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	subjectID, ok := pathID(w, r, logger, "subject_id")
	if !ok {
		return
	}

	if err := h.service.DeleteSubject(r.Context(), mentorID, subjectID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetExamDate は科目の試験日を設定します
func (h *CurriculumHandler) SetExamDate(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "SetExamDate"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	subjectID, ok := pathID(w, r, logger, "subject_id")
	if !ok {
		return
	}

	var req model.ExamDateRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	subject, err := h.service.SetExamDate(r.Context(), mentorID, subjectID, req.ExamDate)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, subject, logger)
}

func (h *CurriculumHandler) ClearExamDate(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ClearExamDate"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	subjectID, ok := pathID(w, r, logger, "subject_id")
	if !ok {
		return
	}

	subject, err := h.service.ClearExamDate(r.Context(), mentorID, subjectID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, subject, logger)
}

// ListTopics は ?subject_id= で科目を絞り込める
func (h *CurriculumHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListTopics"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var subjectID *uuid.UUID
	if raw := r.URL.Query().Get("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			webutil.HandleError(w, logger, model.NewAppError("INVALID_QUERY_PARAM", "subject_id must be a valid UUID.", "subject_id", model.ErrInvalidInput))
			return
		}
		subjectID = &id
	}

	topics, err := h.service.ListTopics(r.Context(), mentorID, subjectID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if topics == nil {
		topics = []*model.Topic{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, topics, logger)
}

func (h *CurriculumHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetTopic"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	topic, err := h.service.GetTopic(r.Context(), mentorID, topicID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, topic, logger)
}

func (h *CurriculumHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CreateTopic"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var req model.TopicRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	topic, err := h.service.CreateTopic(r.Context(), mentorID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, topic, logger)
}

func (h *CurriculumHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "UpdateTopic"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}
	topic, err := h.service.UpdateTopic(r.Context(), mentorID, topicID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, topic, logger)
}

func (h *CurriculumHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "DeleteTopic"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTopic(r.Context(), mentorID, topicID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCurriculum はボディの YAML ドキュメントを取り込みます
func (h *CurriculumHandler) ImportCurriculum(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ImportCurriculum"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxCurriculumBytes)
	defer body.Close()

	result, err := h.service.ImportYAML(r.Context(), mentorID, body)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
