//go:generate mockery --name SessionService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService interface {
	ListSessions(ctx context.Context, studentID uuid.UUID) ([]*model.StudySession, error)
	CreateSession(ctx context.Context, studentID uuid.UUID, req *model.SessionRequest) (*model.StudySession, error)
	UpdateSession(ctx context.Context, studentID, sessionID uuid.UUID, req *model.SessionRequest) (*model.StudySession, error)
	DeleteSession(ctx context.Context, studentID, sessionID uuid.UUID) error
	// ToggleSession は完了/未完了を切り替える
	ToggleSession(ctx context.Context, studentID, sessionID uuid.UUID) (*model.StudySession, error)
	ListMentorSessions(ctx context.Context, mentorID uuid.UUID) ([]model.MentorSessionView, error)
}

type sessionService struct {
	db          *gorm.DB
	sessionRepo repository.SessionRepository
}

func NewSessionService(db *gorm.DB, sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{db: db, sessionRepo: sessionRepo}
}

var errSessionNotFound = model.NewAppError("SESSION_NOT_FOUND", "Session not found.", "", model.ErrNotFound)

// startTimeLayouts は受け付ける開始時刻の形式。タイムゾーン無しは UTC とみなす
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

func parseStartTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.NewAppError("INVALID_DATETIME", "Invalid date/time format.", "start_time", model.ErrInvalidInput)
}

func normalizeSession(req *model.SessionRequest) (subject string, start time.Time, notes string, err error) {
	subject = strings.TrimSpace(req.Subject)
	if subject == "" || strings.TrimSpace(req.StartTime) == "" {
		return "", time.Time{}, "", model.NewAppError("VALIDATION_ERROR", "Subject and start time are required.", "", model.ErrInvalidInput)
	}
	start, err = parseStartTime(req.StartTime)
	if err != nil {
		return "", time.Time{}, "", err
	}
	return subject, start, strings.TrimSpace(req.Notes), nil
}

func sessionError(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return errSessionNotFound
	}
	return model.NewInternalError("", err)
}

func (s *sessionService) ListSessions(ctx context.Context, studentID uuid.UUID) ([]*model.StudySession, error) {
	sessions, err := s.sessionRepo.ListByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	return sessions, nil
}

func (s *sessionService) CreateSession(ctx context.Context, studentID uuid.UUID, req *model.SessionRequest) (*model.StudySession, error) {
	logger := middleware.GetLogger(ctx)
	subject, start, notes, err := normalizeSession(req)
	if err != nil {
		return nil, err
	}

	session := &model.StudySession{
		SessionID: uuid.New(),
		StudentID: studentID,
		Subject:   subject,
		StartTime: start,
		Notes:     notes,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return model.NewInternalError("Failed to create the session.", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Study session created", "session_id", session.SessionID, "student_id", studentID)
	return session, nil
}

func (s *sessionService) UpdateSession(ctx context.Context, studentID, sessionID uuid.UUID, req *model.SessionRequest) (*model.StudySession, error) {
	logger := middleware.GetLogger(ctx)
	subject, start, notes, err := normalizeSession(req)
	if err != nil {
		return nil, err
	}

	var updated *model.StudySession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"subject": subject, "start_time": start, "notes": notes}
		if err := s.sessionRepo.Update(ctx, tx, studentID, sessionID, updates); err != nil {
			return sessionError(err)
		}
		session, err := s.sessionRepo.FindByID(ctx, tx, studentID, sessionID)
		if err != nil {
			return sessionError(err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Study session updated", "session_id", sessionID)
	return updated, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, studentID, sessionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Delete(ctx, tx, studentID, sessionID); err != nil {
			return sessionError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Study session deleted", "session_id", sessionID)
	return nil
}

func (s *sessionService) ToggleSession(ctx context.Context, studentID, sessionID uuid.UUID) (*model.StudySession, error) {
	logger := middleware.GetLogger(ctx)
	var toggled *model.StudySession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByID(ctx, tx, studentID, sessionID)
		if err != nil {
			return sessionError(err)
		}
		session.Completed = !session.Completed
		if err := s.sessionRepo.Update(ctx, tx, studentID, sessionID, map[string]interface{}{"completed": session.Completed}); err != nil {
			return sessionError(err)
		}
		toggled = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Study session toggled", "session_id", sessionID, "completed", toggled.Completed)
	return toggled, nil
}

func (s *sessionService) ListMentorSessions(ctx context.Context, mentorID uuid.UUID) ([]model.MentorSessionView, error) {
	views, err := s.sessionRepo.ListByMentor(ctx, s.db, mentorID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	return views, nil
}
