package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler はダッシュボードと進捗レポートのAPI
type DashboardHandler struct {
	dashboards service.DashboardService
	reports    service.ReportService
}

func NewDashboardHandler(dashboards service.DashboardService, reports service.ReportService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, reports: reports}
}

func (h *DashboardHandler) StudentDashboard(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "StudentDashboard"))
	studentID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	dashboard, err := h.dashboards.StudentDashboard(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, dashboard, logger)
}

func (h *DashboardHandler) MentorDashboard(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "MentorDashboard"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	dashboard, err := h.dashboards.MentorDashboard(r.Context(), mentorID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, dashboard, logger)
}

func (h *DashboardHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ListStudents"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	students, err := h.dashboards.ListStudents(r.Context(), mentorID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if students == nil {
		students = []*model.UserResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, students, logger)
}

// ExportProgress は進捗を xlsx で返します。
// 途中で失敗したときにJSONのエラーを返せるよう、一度バッファに書き出す
func (h *DashboardHandler) ExportProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "ExportProgress"))
	mentorID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.reports.ExportProgress(r.Context(), mentorID, &buf); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	filename := fmt.Sprintf("progress-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error("Failed to write progress report", slog.Any("error", err))
	}
}
