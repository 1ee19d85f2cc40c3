package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"
)

// PlanHandler は学生のトピック進捗と学習プランのAPI
type PlanHandler struct {
	service service.PlanService
}

func NewPlanHandler(s service.PlanService) *PlanHandler {
	return &PlanHandler{service: s}
}

// GetPlan は未完了トピックを優先度順に返します
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetPlan"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	plan, err := h.service.GetPlan(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if plan == nil {
		plan = []model.StudyPlanEntry{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, plan, logger)
}

func (h *PlanHandler) CompletePlanEntry(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CompletePlanEntry"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	completion, err := h.service.CompletePlanEntry(r.Context(), studentID, topicID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, completion, logger)
}

func (h *PlanHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListStudentTopics"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	topics, err := h.service.ListStudentTopics(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if topics == nil {
		topics = []model.TopicProgressView{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, topics, logger)
}

func (h *PlanHandler) CompleteTopic(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "CompleteTopic"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}
	topicID, ok := pathID(w, r, logger, "topic_id")
	if !ok {
		return
	}

	if err := h.service.MarkTopicComplete(r.Context(), studentID, topicID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	respondMessage(w, logger, "Topic marked as complete.")
}
