package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID uuid.UUID) (*model.StudentDashboard, error)
	MentorDashboard(ctx context.Context, mentorID uuid.UUID) (*model.MentorDashboard, error)
	ListStudents(ctx context.Context, mentorID uuid.UUID) ([]*model.UserResponse, error)
}

type dashboardService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	subjectRepo  repository.SubjectRepository
	sessionRepo  repository.SessionRepository
	progressRepo repository.ProgressRepository
	plans        PlanService
	now          func() time.Time
}

func NewDashboardService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	subjectRepo repository.SubjectRepository,
	sessionRepo repository.SessionRepository,
	progressRepo repository.ProgressRepository,
	plans PlanService,
) DashboardService {
	return &dashboardService{
		db:           db,
		userRepo:     userRepo,
		subjectRepo:  subjectRepo,
		sessionRepo:  sessionRepo,
		progressRepo: progressRepo,
		plans:        plans,
		now:          time.Now,
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID uuid.UUID) (*model.StudentDashboard, error) {
	student, err := s.userRepo.FindByID(ctx, s.db, studentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("USER_NOT_FOUND", "User not found.", "", model.ErrNotFound)
		}
		return nil, model.NewInternalError("", err)
	}

	sessions, err := s.sessionRepo.ListByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}

	dashboard := &model.StudentDashboard{
		Sessions:      sessions,
		UpcomingExams: []model.UpcomingExam{},
		Plan:          []model.StudyPlanEntry{},
	}
	if student.MentorID == nil {
		return dashboard, nil
	}

	subjects, err := s.subjectRepo.ListByMentor(ctx, s.db, *student.MentorID, false)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	dashboard.UpcomingExams = upcomingExams(subjects, s.now())

	plan, err := s.plans.GetPlan(ctx, studentID)
	if err != nil {
		return nil, err
	}
	dashboard.Plan = plan
	return dashboard, nil
}

// upcomingExams は今日以降の試験を日付順に返す
func upcomingExams(subjects []*model.Subject, now time.Time) []model.UpcomingExam {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exams := []model.UpcomingExam{}
	for _, sub := range subjects {
		if sub.ExamDate == nil {
			continue
		}
		d := sub.ExamDate.UTC()
		examDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if examDay.Before(today) {
			continue
		}
		exams = append(exams, model.UpcomingExam{
			SubjectID:   sub.SubjectID,
			SubjectName: sub.Name,
			ExamDate:    examDay,
			DaysLeft:    int(examDay.Sub(today).Hours() / 24),
		})
	}
	sort.SliceStable(exams, func(i, j int) bool {
		if !exams[i].ExamDate.Equal(exams[j].ExamDate) {
			return exams[i].ExamDate.Before(exams[j].ExamDate)
		}
		return exams[i].SubjectName < exams[j].SubjectName
	})
	return exams
}

func (s *dashboardService) MentorDashboard(ctx context.Context, mentorID uuid.UUID) (*model.MentorDashboard, error) {
	logger := middleware.GetLogger(ctx)

	counts, err := s.sessionRepo.CountByMentor(ctx, s.db, mentorID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	subjects, err := s.subjectRepo.ListByMentor(ctx, s.db, mentorID, true)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	students, err := s.ListStudents(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progressRepo.ListRowsByMentor(ctx, s.db, mentorID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}

	logger.Debug("Mentor dashboard loaded", "mentor_id", mentorID, "students", len(students), "subjects", len(subjects))
	return &model.MentorDashboard{
		SessionCounts: counts,
		Subjects:      subjects,
		Students:      students,
		Progress:      progress,
	}, nil
}

func (s *dashboardService) ListStudents(ctx context.Context, mentorID uuid.UUID) ([]*model.UserResponse, error) {
	users, err := s.userRepo.ListStudentsByMentor(ctx, s.db, mentorID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	students := make([]*model.UserResponse, 0, len(users))
	for _, u := range users {
		students = append(students, model.NewUserResponse(u))
	}
	return students, nil
}
