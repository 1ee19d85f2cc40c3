//go:generate mockery --name SessionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"schedulr/internal/middleware"
	"schedulr/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *model.StudySession) error
	FindByID(ctx context.Context, db *gorm.DB, studentID, sessionID uuid.UUID) (*model.StudySession, error)
	ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.StudySession, error)
	ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]model.MentorSessionView, error)
	CountByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) (model.SessionCounts, error)
	Update(ctx context.Context, tx *gorm.DB, studentID, sessionID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, studentID, sessionID uuid.UUID) error
}

type gormSessionRepository struct{}

func NewGormSessionRepository() SessionRepository {
	return &gormSessionRepository{}
}

func (r *gormSessionRepository) Create(ctx context.Context, tx *gorm.DB, session *model.StudySession) error {
	logger := middleware.GetLogger(ctx)
	if err := tx.WithContext(ctx).Create(session).Error; err != nil {
		logger.Error("Error creating study session in DB", "error", err, "student_id", session.StudentID.String())
		return fmt.Errorf("gormSessionRepository.Create: %w", err)
	}
	return nil
}

func (r *gormSessionRepository) FindByID(ctx context.Context, db *gorm.DB, studentID, sessionID uuid.UUID) (*model.StudySession, error) {
	logger := middleware.GetLogger(ctx)
	var session model.StudySession
	err := db.WithContext(ctx).Where("student_id = ? AND session_id = ?", studentID, sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding study session in DB", "error", err, "session_id", sessionID.String())
		return nil, fmt.Errorf("gormSessionRepository.FindByID: %w", err)
	}
	return &session, nil
}

func (r *gormSessionRepository) ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.StudySession, error) {
	logger := middleware.GetLogger(ctx)
	var sessions []*model.StudySession
	err := db.WithContext(ctx).Where("student_id = ?", studentID).Order("start_time ASC").Find(&sessions).Error
	if err != nil {
		logger.Error("Error listing study sessions in DB", "error", err, "student_id", studentID.String())
		return nil, fmt.Errorf("gormSessionRepository.ListByStudent: %w", err)
	}
	return sessions, nil
}

func (r *gormSessionRepository) ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]model.MentorSessionView, error) {
	logger := middleware.GetLogger(ctx)
	var rows []model.MentorSessionView
	err := db.WithContext(ctx).
		Table("study_sessions AS ss").
		Select("ss.*, u.username AS username").
		Joins("JOIN users AS u ON u.user_id = ss.student_id").
		Where("u.mentor_id = ?", mentorID).
		Order("ss.start_time DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Error listing mentor sessions in DB", "error", err, "mentor_id", mentorID.String())
		return nil, fmt.Errorf("gormSessionRepository.ListByMentor: %w", err)
	}
	return rows, nil
}

func (r *gormSessionRepository) CountByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) (model.SessionCounts, error) {
	var counts model.SessionCounts
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&model.StudySession{}).
			Joins("JOIN users AS u ON u.user_id = study_sessions.student_id").
			Where("u.mentor_id = ?", mentorID)
	}
	if err := base().Where("study_sessions.completed = ?", true).Count(&counts.Completed).Error; err != nil {
		middleware.GetLogger(ctx).Error("Error counting completed sessions in DB", "error", err)
		return counts, fmt.Errorf("gormSessionRepository.CountByMentor: %w", err)
	}
	if err := base().Where("study_sessions.completed = ?", false).Count(&counts.Pending).Error; err != nil {
		middleware.GetLogger(ctx).Error("Error counting pending sessions in DB", "error", err)
		return counts, fmt.Errorf("gormSessionRepository.CountByMentor: %w", err)
	}
	return counts, nil
}

func (r *gormSessionRepository) Update(ctx context.Context, tx *gorm.DB, studentID, sessionID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.StudySession{}).
		Where("student_id = ? AND session_id = ?", studentID, sessionID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating study session in DB", "error", result.Error, "session_id", sessionID.String())
		return fmt.Errorf("gormSessionRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormSessionRepository) Delete(ctx context.Context, tx *gorm.DB, studentID, sessionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("student_id = ? AND session_id = ?", studentID, sessionID).Delete(&model.StudySession{})
	if result.Error != nil {
		logger.Error("Error deleting study session in DB", "error", result.Error, "session_id", sessionID.String())
		return fmt.Errorf("gormSessionRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
