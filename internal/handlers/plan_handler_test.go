package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schedulr/internal/handlers"
	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPlanRouter(svc *mocks.PlanService) *chi.Mux {
	h := handlers.NewPlanHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.DevUserContextMiddleware)
	r.Get("/plan", h.GetPlan)
	r.Post("/plan/{topic_id}/complete", h.CompletePlanEntry)
	r.Get("/topics", h.ListTopics)
	r.Post("/topics/{topic_id}/complete", h.CompleteTopic)
	return r
}

func TestPlanHandler_GetPlan(t *testing.T) {
	studentID := uuid.New()
	suggested := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		setupMock      func(svc *mocks.PlanService)
		expectedStatus int
		expectedLen    int
		expectedCode   string
	}{
		{
			name: "正常系: 優先度順のプラン",
			setupMock: func(svc *mocks.PlanService) {
				svc.On("GetPlan", mock.Anything, studentID).Return([]model.StudyPlanEntry{
					{TopicID: uuid.New(), PriorityScore: 113.5, Difficulty: "unknown", Reason: "Not assessed yet", SuggestedStudyTime: suggested},
					{TopicID: uuid.New(), PriorityScore: 60, Difficulty: "hard", Reason: "Last score: 40%", SuggestedStudyTime: suggested},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedLen:    2,
		},
		{
			name: "正常系: メンター未設定は空配列",
			setupMock: func(svc *mocks.PlanService) {
				svc.On("GetPlan", mock.Anything, studentID).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name: "異常系: 不整合データは500",
			setupMock: func(svc *mocks.PlanService) {
				svc.On("GetPlan", mock.Anything, studentID).Return(nil, model.NewInternalError("", assert.AnError)).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewPlanService(t)
			tc.setupMock(svc)

			rr := httptest.NewRecorder()
			setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/plan", nil, &studentID, model.RoleStudent))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedCode != "" {
				assert.Equal(t, tc.expectedCode, errorCode(t, rr))
				return
			}
			got := decodeJSON[[]model.StudyPlanEntry](t, rr)
			assert.Len(t, got, tc.expectedLen)
			if tc.expectedLen > 0 {
				assert.Equal(t, 113.5, got[0].PriorityScore)
				assert.True(t, suggested.Equal(got[0].SuggestedStudyTime))
			}
		})
	}
}

func TestPlanHandler_CompletePlanEntry(t *testing.T) {
	studentID := uuid.New()
	topicID := uuid.New()

	t.Run("正常系: 完了記録を返す", func(t *testing.T) {
		svc := mocks.NewPlanService(t)
		svc.On("CompletePlanEntry", mock.Anything, studentID, topicID).Return(&model.ScheduleCompletion{
			CompletionID: uuid.New(), StudentID: studentID, TopicID: topicID,
			SuggestedStudyTime: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), CompletedAt: time.Now().UTC(),
		}, nil).Once()

		rr := httptest.NewRecorder()
		setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/plan/"+topicID.String()+"/complete", nil, &studentID, model.RoleStudent))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, topicID, decodeJSON[model.ScheduleCompletion](t, rr).TopicID)
	})

	t.Run("異常系: 不明なトピック", func(t *testing.T) {
		svc := mocks.NewPlanService(t)
		svc.On("CompletePlanEntry", mock.Anything, studentID, topicID).
			Return(nil, model.NewAppError("TOPIC_NOT_FOUND", "Topic not found.", "", model.ErrNotFound)).Once()

		rr := httptest.NewRecorder()
		setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/plan/"+topicID.String()+"/complete", nil, &studentID, model.RoleStudent))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "TOPIC_NOT_FOUND", errorCode(t, rr))
	})
}

func TestPlanHandler_Topics(t *testing.T) {
	studentID := uuid.New()
	topicID := uuid.New()

	t.Run("正常系: トピック一覧", func(t *testing.T) {
		svc := mocks.NewPlanService(t)
		svc.On("ListStudentTopics", mock.Anything, studentID).Return([]model.TopicProgressView{
			{TopicID: topicID, SubjectName: "Math", Unit: "Algebra", Name: "Linear equations"},
		}, nil).Once()

		rr := httptest.NewRecorder()
		setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/topics", nil, &studentID, model.RoleStudent))

		assert.Equal(t, http.StatusOK, rr.Code)
		got := decodeJSON[[]model.TopicProgressView](t, rr)
		if assert.Len(t, got, 1) {
			assert.Equal(t, "Linear equations", got[0].Name)
			assert.False(t, got[0].Completed)
		}
	})

	t.Run("正常系: 完了にする", func(t *testing.T) {
		svc := mocks.NewPlanService(t)
		svc.On("MarkTopicComplete", mock.Anything, studentID, topicID).Return(nil).Once()

		rr := httptest.NewRecorder()
		setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/topics/"+topicID.String()+"/complete", nil, &studentID, model.RoleStudent))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Topic marked as complete.", decodeJSON[map[string]string](t, rr)["message"])
	})

	t.Run("異常系: 認証なし", func(t *testing.T) {
		svc := mocks.NewPlanService(t)

		rr := httptest.NewRecorder()
		setupPlanRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/topics", nil, nil, ""))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
