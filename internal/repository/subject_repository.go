//go:generate mockery --name SubjectRepository --output ./mocks --outpkg mocks --case=underscore
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

type SubjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, subject *model.Subject) error
	FindByID(ctx context.Context, db *gorm.DB, mentorID, subjectID uuid.UUID) (*model.Subject, error)
	FindByName(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, name string) (*model.Subject, error)
	// ListByMentor は名前順に返す。withTopics の場合はトピックも(単元・名前順で)読み込む
	ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, withTopics bool) ([]*model.Subject, error)
	Update(ctx context.Context, tx *gorm.DB, mentorID, subjectID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, mentorID, subjectID uuid.UUID) error
}

type gormSubjectRepository struct{}

func NewGormSubjectRepository() SubjectRepository {
	return &gormSubjectRepository{}
}

func (r *gormSubjectRepository) Create(ctx context.Context, tx *gorm.DB, subject *model.Subject) error {
	logger := middleware.GetLogger(ctx)
	if err := tx.WithContext(ctx).Omit("Topics").Create(subject).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("gormSubjectRepository.Create: %w", model.ErrConflict)
		}
		logger.Error("Error creating subject in DB", "error", err, "mentor_id", subject.MentorID.String(), "name", subject.Name)
		return fmt.Errorf("gormSubjectRepository.Create: %w", err)
	}
	return nil
}

func (r *gormSubjectRepository) FindByID(ctx context.Context, db *gorm.DB, mentorID, subjectID uuid.UUID) (*model.Subject, error) {
	logger := middleware.GetLogger(ctx)
	var subject model.Subject
	err := db.WithContext(ctx).Where("mentor_id = ? AND subject_id = ?", mentorID, subjectID).First(&subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding subject by ID in DB", "error", err, "subject_id", subjectID.String())
		return nil, fmt.Errorf("gormSubjectRepository.FindByID: %w", err)
	}
	return &subject, nil
}

func (r *gormSubjectRepository) FindByName(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, name string) (*model.Subject, error) {
	logger := middleware.GetLogger(ctx)
	var subject model.Subject
	err := db.WithContext(ctx).Where("mentor_id = ? AND name = ?", mentorID, name).First(&subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding subject by name in DB", "error", err, "name", name)
		return nil, fmt.Errorf("gormSubjectRepository.FindByName: %w", err)
	}
	return &subject, nil
}

func (r *gormSubjectRepository) ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, withTopics bool) ([]*model.Subject, error) {
	logger := middleware.GetLogger(ctx)
	var subjects []*model.Subject
	query := db.WithContext(ctx).Where("mentor_id = ?", mentorID).Order("name ASC")
	if withTopics {
		query = query.Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("unit ASC, name ASC")
		})
	}
	if err := query.Find(&subjects).Error; err != nil {
		logger.Error("Error listing subjects in DB", "error", err, "mentor_id", mentorID.String())
		return nil, fmt.Errorf("gormSubjectRepository.ListByMentor: %w", err)
	}
	return subjects, nil
}

func (r *gormSubjectRepository) Update(ctx context.Context, tx *gorm.DB, mentorID, subjectID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Subject{}).
		Where("mentor_id = ? AND subject_id = ?", mentorID, subjectID).
		Updates(updates)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return fmt.Errorf("gormSubjectRepository.Update: %w", model.ErrConflict)
		}
		logger.Error("Error updating subject in DB", "error", result.Error, "subject_id", subjectID.String())
		return fmt.Errorf("gormSubjectRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete は科目のみを削除します。配下のトピックは呼び出し側で先に削除すること
func (r *gormSubjectRepository) Delete(ctx context.Context, tx *gorm.DB, mentorID, subjectID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("mentor_id = ? AND subject_id = ?", mentorID, subjectID).Delete(&model.Subject{})
	if result.Error != nil {
		logger.Error("Error deleting subject in DB", "error", result.Error, "subject_id", subjectID.String())
		return fmt.Errorf("gormSubjectRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
