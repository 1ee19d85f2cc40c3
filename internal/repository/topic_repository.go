//go:generate mockery --name TopicRepository --output ./mocks --outpkg mocks --case=underscore
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

type TopicRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topic *model.Topic) error
	FindByID(ctx context.Context, db *gorm.DB, mentorID, topicID uuid.UUID) (*model.Topic, error)
	// ListByMentor は科目を Preload して単元・名前順に返す。subjectID を指定すると絞り込む
	ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, subjectID *uuid.UUID) ([]*model.Topic, error)
	ListIDsBySubject(ctx context.Context, db *gorm.DB, subjectID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, db *gorm.DB, subjectID uuid.UUID, unit, name string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, mentorID, topicID uuid.UUID, updates map[string]interface{}) error
	// DeleteCascade はトピックと、そのテスト・設問・選択肢・進捗・完了記録をまとめて削除する
	DeleteCascade(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error
}

type gormTopicRepository struct{}

func NewGormTopicRepository() TopicRepository {
	return &gormTopicRepository{}
}

func (r *gormTopicRepository) Create(ctx context.Context, tx *gorm.DB, topic *model.Topic) error {
	logger := middleware.GetLogger(ctx)
	if err := tx.WithContext(ctx).Omit("Subject").Create(topic).Error; err != nil {
		logger.Error("Error creating topic in DB", "error", err, "subject_id", topic.SubjectID.String(), "name", topic.Name)
		return fmt.Errorf("gormTopicRepository.Create: %w", err)
	}
	return nil
}

func (r *gormTopicRepository) FindByID(ctx context.Context, db *gorm.DB, mentorID, topicID uuid.UUID) (*model.Topic, error) {
	logger := middleware.GetLogger(ctx)
	var topic model.Topic
	err := db.WithContext(ctx).Preload("Subject").
		Where("mentor_id = ? AND topic_id = ?", mentorID, topicID).
		First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding topic by ID in DB", "error", err, "topic_id", topicID.String())
		return nil, fmt.Errorf("gormTopicRepository.FindByID: %w", err)
	}
	return &topic, nil
}

func (r *gormTopicRepository) ListByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID, subjectID *uuid.UUID) ([]*model.Topic, error) {
	logger := middleware.GetLogger(ctx)
	var topics []*model.Topic
	query := db.WithContext(ctx).Preload("Subject").Where("mentor_id = ?", mentorID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}
	if err := query.Order("unit ASC, name ASC").Find(&topics).Error; err != nil {
		logger.Error("Error listing topics in DB", "error", err, "mentor_id", mentorID.String())
		return nil, fmt.Errorf("gormTopicRepository.ListByMentor: %w", err)
	}
	return topics, nil
}

func (r *gormTopicRepository) ListIDsBySubject(ctx context.Context, db *gorm.DB, subjectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := db.WithContext(ctx).Model(&model.Topic{}).Where("subject_id = ?", subjectID).Pluck("topic_id", &ids).Error; err != nil {
		middleware.GetLogger(ctx).Error("Error listing topic ids in DB", "error", err, "subject_id", subjectID.String())
		return nil, fmt.Errorf("gormTopicRepository.ListIDsBySubject: %w", err)
	}
	return ids, nil
}

func (r *gormTopicRepository) Exists(ctx context.Context, db *gorm.DB, subjectID uuid.UUID, unit, name string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&model.Topic{}).
		Where("subject_id = ? AND unit = ? AND name = ?", subjectID, unit, name).
		Count(&count).Error
	if err != nil {
		middleware.GetLogger(ctx).Error("Error checking topic existence in DB", "error", err)
		return false, fmt.Errorf("gormTopicRepository.Exists: %w", err)
	}
	return count > 0, nil
}

func (r *gormTopicRepository) Update(ctx context.Context, tx *gorm.DB, mentorID, topicID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Topic{}).
		Where("mentor_id = ? AND topic_id = ?", mentorID, topicID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating topic in DB", "error", result.Error, "topic_id", topicID.String())
		return fmt.Errorf("gormTopicRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTopicRepository) DeleteCascade(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	if len(topicIDs) == 0 {
		return nil
	}
	db := tx.WithContext(ctx)

	testIDs := db.Model(&model.Test{}).Select("test_id").Where("topic_id IN ?", topicIDs)
	questionIDs := db.Model(&model.Question{}).Select("question_id").Where("test_id IN (?)", testIDs)

	// 外部キーの依存先から順に削除する
	steps := []struct {
		name string
		run  func() error
	}{
		{"options", func() error { return db.Where("question_id IN (?)", questionIDs).Delete(&model.Option{}).Error }},
		{"questions", func() error { return db.Where("test_id IN (?)", testIDs).Delete(&model.Question{}).Error }},
		{"tests", func() error { return db.Where("topic_id IN ?", topicIDs).Delete(&model.Test{}).Error }},
		{"progress", func() error { return db.Where("topic_id IN ?", topicIDs).Delete(&model.StudentProgress{}).Error }},
		{"completions", func() error { return db.Where("topic_id IN ?", topicIDs).Delete(&model.ScheduleCompletion{}).Error }},
		{"topics", func() error { return db.Where("topic_id IN ?", topicIDs).Delete(&model.Topic{}).Error }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			logger.Error("Error deleting topic dependents in DB", "error", err, "step", step.name, "topic_count", len(topicIDs))
			return fmt.Errorf("gormTopicRepository.DeleteCascade(%s): %w", step.name, err)
		}
	}
	return nil
}
