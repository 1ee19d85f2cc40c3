package handlers

import (
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"

	"github.com/go-chi/chi/v5"
)

// Router はAPIのハンドラ一式
type Router struct {
	Auth       *AuthHandler
	Curriculum *CurriculumHandler
	Tests      *TestHandler
	Sessions   *SessionHandler
	Plans      *PlanHandler
	Dashboard  *DashboardHandler
	Health     *HealthHandler
}

// Mount は /health と /api/v1 以下のルートを登録する。
// authn は認証ミドルウェア (本番は JWTAuthMiddleware、テストは DevUserContextMiddleware)
func (h *Router) Mount(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/health", h.Health.Check)

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Post("/auth/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.GetMe)

			r.Route("/mentor", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleMentor))

				r.Route("/subjects", func(r chi.Router) {
					r.Get("/", h.Curriculum.ListSubjects)
					r.Post("/", h.Curriculum.CreateSubject)
					r.Put("/{subject_id}", h.Curriculum.UpdateSubject)
					r.Delete("/{subject_id}", h.Curriculum.DeleteSubject)
					r.Put("/{subject_id}/exam", h.Curriculum.SetExamDate)
					r.Delete("/{subject_id}/exam", h.Curriculum.ClearExamDate)
				})
				r.Route("/topics", func(r chi.Router) {
					r.Get("/", h.Curriculum.ListTopics)
					r.Post("/", h.Curriculum.CreateTopic)
					r.Get("/{topic_id}", h.Curriculum.GetTopic)
					r.Put("/{topic_id}", h.Curriculum.UpdateTopic)
					r.Delete("/{topic_id}", h.Curriculum.DeleteTopic)
					r.Post("/{topic_id}/test", h.Tests.CreateTest)
				})
				r.Post("/curriculum/import", h.Curriculum.ImportCurriculum)
				r.Route("/tests", func(r chi.Router) {
					r.Get("/{test_id}", h.Tests.GetTest)
					r.Put("/{test_id}", h.Tests.UpdateTest)
					r.Delete("/{test_id}", h.Tests.DeleteTest)
				})
				r.Get("/dashboard", h.Dashboard.MentorDashboard)
				r.Get("/students", h.Dashboard.ListStudents)
				r.Get("/sessions", h.Sessions.ListMentorSessions)
				r.Get("/progress/export", h.Dashboard.ExportProgress)
			})

			r.Route("/student", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleStudent))

				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", h.Sessions.ListSessions)
					r.Post("/", h.Sessions.CreateSession)
					r.Put("/{session_id}", h.Sessions.UpdateSession)
					r.Delete("/{session_id}", h.Sessions.DeleteSession)
					r.Post("/{session_id}/toggle", h.Sessions.ToggleSession)
				})
				r.Get("/topics", h.Plans.ListTopics)
				r.Post("/topics/{topic_id}/complete", h.Plans.CompleteTopic)
				r.Get("/tests/{test_id}", h.Tests.GetStudentTest)
				r.Post("/tests/{test_id}/submit", h.Tests.SubmitTest)
				r.Get("/plan", h.Plans.GetPlan)
				r.Post("/plan/{topic_id}/complete", h.Plans.CompletePlanEntry)
				r.Get("/dashboard", h.Dashboard.StudentDashboard)
			})
		})
	})
}
