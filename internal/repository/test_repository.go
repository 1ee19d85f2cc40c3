//go:generate mockery --name TestRepository --output ./mocks --outpkg mocks --case=underscore
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

type TestRepository interface {
	// Create はテストと設問・選択肢をまとめて保存する
	Create(ctx context.Context, tx *gorm.DB, test *model.Test) error
	FindByID(ctx context.Context, db *gorm.DB, testID uuid.UUID) (*model.Test, error)
	FindByTopicID(ctx context.Context, db *gorm.DB, topicID uuid.UUID) (*model.Test, error)
	// TopicIDsWithTests は与えたトピックのうちテストを持つものを test_id 付きで返す
	TopicIDsWithTests(ctx context.Context, db *gorm.DB, topicIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	// ReplaceQuestions はタイトルを更新し、既存の設問を全て置き換える
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, testID uuid.UUID, title string, questions []model.Question) error
	Delete(ctx context.Context, tx *gorm.DB, testID uuid.UUID) error
}

type gormTestRepository struct{}

func NewGormTestRepository() TestRepository {
	return &gormTestRepository{}
}

func (r *gormTestRepository) Create(ctx context.Context, tx *gorm.DB, test *model.Test) error {
	logger := middleware.GetLogger(ctx)
	// Questions / Options は関連として一緒に作成される
	if err := tx.WithContext(ctx).Create(test).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("gormTestRepository.Create: %w", model.ErrConflict)
		}
		logger.Error("Error creating test in DB", "error", err, "topic_id", test.TopicID.String())
		return fmt.Errorf("gormTestRepository.Create: %w", err)
	}
	return nil
}

func preloadQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *gormTestRepository) FindByID(ctx context.Context, db *gorm.DB, testID uuid.UUID) (*model.Test, error) {
	return r.findOne(ctx, db, "FindByID", "test_id = ?", testID)
}

func (r *gormTestRepository) FindByTopicID(ctx context.Context, db *gorm.DB, topicID uuid.UUID) (*model.Test, error) {
	return r.findOne(ctx, db, "FindByTopicID", "topic_id = ?", topicID)
}

func (r *gormTestRepository) findOne(ctx context.Context, db *gorm.DB, op, query string, args ...interface{}) (*model.Test, error) {
	logger := middleware.GetLogger(ctx)
	var test model.Test
	if err := preloadQuestions(db.WithContext(ctx)).Where(query, args...).First(&test).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding test in DB", "error", err, "op", op)
		return nil, fmt.Errorf("gormTestRepository.%s: %w", op, err)
	}
	return &test, nil
}

func (r *gormTestRepository) TopicIDsWithTests(ctx context.Context, db *gorm.DB, topicIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	result := make(map[uuid.UUID]uuid.UUID, len(topicIDs))
	if len(topicIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		TopicID uuid.UUID
		TestID  uuid.UUID
	}
	err := db.WithContext(ctx).Model(&model.Test{}).Select("topic_id, test_id").Where("topic_id IN ?", topicIDs).Scan(&rows).Error
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing tests by topic in DB", "error", err)
		return nil, fmt.Errorf("gormTestRepository.TopicIDsWithTests: %w", err)
	}
	for _, row := range rows {
		result[row.TopicID] = row.TestID
	}
	return result, nil
}

func (r *gormTestRepository) ReplaceQuestions(ctx context.Context, tx *gorm.DB, testID uuid.UUID, title string, questions []model.Question) error {
	logger := middleware.GetLogger(ctx)
	db := tx.WithContext(ctx)

	result := db.Model(&model.Test{}).Where("test_id = ?", testID).Update("title", title)
	if result.Error != nil {
		logger.Error("Error updating test title in DB", "error", result.Error, "test_id", testID.String())
		return fmt.Errorf("gormTestRepository.ReplaceQuestions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	if err := deleteQuestions(db, testID); err != nil {
		logger.Error("Error deleting old questions in DB", "error", err, "test_id", testID.String())
		return fmt.Errorf("gormTestRepository.ReplaceQuestions: %w", err)
	}

	for i := range questions {
		questions[i].TestID = testID
	}
	if len(questions) > 0 {
		if err := db.Create(&questions).Error; err != nil {
			logger.Error("Error creating questions in DB", "error", err, "test_id", testID.String())
			return fmt.Errorf("gormTestRepository.ReplaceQuestions: %w", err)
		}
	}
	return nil
}

func (r *gormTestRepository) Delete(ctx context.Context, tx *gorm.DB, testID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	db := tx.WithContext(ctx)
	if err := deleteQuestions(db, testID); err != nil {
		logger.Error("Error deleting questions in DB", "error", err, "test_id", testID.String())
		return fmt.Errorf("gormTestRepository.Delete: %w", err)
	}
	result := db.Where("test_id = ?", testID).Delete(&model.Test{})
	if result.Error != nil {
		logger.Error("Error deleting test in DB", "error", result.Error, "test_id", testID.String())
		return fmt.Errorf("gormTestRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func deleteQuestions(db *gorm.DB, testID uuid.UUID) error {
	questionIDs := db.Model(&model.Question{}).Select("question_id").Where("test_id = ?", testID)
	if err := db.Where("question_id IN (?)", questionIDs).Delete(&model.Option{}).Error; err != nil {
		return err
	}
	return db.Where("test_id = ?", testID).Delete(&model.Question{}).Error
}
