//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.StudentProgress, error)
	FindByStudentAndTopic(ctx context.Context, db *gorm.DB, studentID, topicID uuid.UUID) (*model.StudentProgress, error)
	// MarkCompleted は進捗が無ければ作成し、completed を立てる
	MarkCompleted(ctx context.Context, tx *gorm.DB, studentID, topicID uuid.UUID) error
	// SaveTestResult は受験結果を保存し、トピックを完了扱いにする
	SaveTestResult(ctx context.Context, tx *gorm.DB, studentID, topicID uuid.UUID, score float64, difficulty string) error
	// ListRowsByMentor はメンター配下の学生全員の進捗を表示用に結合して返す
	ListRowsByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]model.StudentProgressRow, error)

	UpsertCompletion(ctx context.Context, tx *gorm.DB, completion *model.ScheduleCompletion) error
	ListCompletedTopicIDs(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (map[uuid.UUID]bool, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.StudentProgress, error) {
	logger := middleware.GetLogger(ctx)
	var rows []*model.StudentProgress
	if err := db.WithContext(ctx).Where("student_id = ?", studentID).Find(&rows).Error; err != nil {
		logger.Error("Error finding progress by student in DB", "error", err, "student_id", studentID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByStudent: %w", err)
	}
	return rows, nil
}

func (r *gormProgressRepository) FindByStudentAndTopic(ctx context.Context, db *gorm.DB, studentID, topicID uuid.UUID) (*model.StudentProgress, error) {
	logger := middleware.GetLogger(ctx)
	var progress model.StudentProgress
	err := db.WithContext(ctx).Where("student_id = ? AND topic_id = ?", studentID, topicID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding progress in DB", "error", err, "student_id", studentID.String(), "topic_id", topicID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByStudentAndTopic: %w", err)
	}
	return &progress, nil
}

var progressConflictColumns = []clause.Column{{Name: "student_id"}, {Name: "topic_id"}}

func (r *gormProgressRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, studentID, topicID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	progress := &model.StudentProgress{
		ProgressID: uuid.New(),
		StudentID:  studentID,
		TopicID:    topicID,
		Completed:  true,
	}
	err := tx.WithContext(ctx).Omit("Topic").Clauses(clause.OnConflict{
		Columns:   progressConflictColumns,
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		logger.Error("Error marking progress completed in DB", "error", err, "student_id", studentID.String(), "topic_id", topicID.String())
		return fmt.Errorf("gormProgressRepository.MarkCompleted: %w", err)
	}
	return nil
}

func (r *gormProgressRepository) SaveTestResult(ctx context.Context, tx *gorm.DB, studentID, topicID uuid.UUID, score float64, difficulty string) error {
	logger := middleware.GetLogger(ctx)
	progress := &model.StudentProgress{
		ProgressID: uuid.New(),
		StudentID:  studentID,
		TopicID:    topicID,
		Completed:  true,
		TestTaken:  true,
		TestScore:  &score,
		Difficulty: &difficulty,
	}
	err := tx.WithContext(ctx).Omit("Topic").Clauses(clause.OnConflict{
		Columns:   progressConflictColumns,
		DoUpdates: clause.AssignmentColumns([]string{"completed", "test_taken", "test_score", "difficulty", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		logger.Error("Error saving test result in DB", "error", err, "student_id", studentID.String(), "topic_id", topicID.String())
		return fmt.Errorf("gormProgressRepository.SaveTestResult: %w", err)
	}
	return nil
}

func (r *gormProgressRepository) ListRowsByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]model.StudentProgressRow, error) {
	logger := middleware.GetLogger(ctx)
	var rows []model.StudentProgressRow
	err := db.WithContext(ctx).
		Table("student_progress AS sp").
		Select(`u.user_id AS student_id, u.username AS username, s.name AS subject_name,
			t.unit AS unit, t.name AS topic_name, sp.completed AS completed, sp.test_taken AS test_taken,
			sp.test_score AS test_score, sp.difficulty AS difficulty, sp.updated_at AS updated_at`).
		Joins("JOIN users AS u ON u.user_id = sp.student_id").
		Joins("JOIN topics AS t ON t.topic_id = sp.topic_id").
		Joins("JOIN subjects AS s ON s.subject_id = t.subject_id").
		Where("u.mentor_id = ? AND t.mentor_id = ?", mentorID, mentorID).
		Order("u.username ASC, s.name ASC, t.unit ASC, t.name ASC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Error listing progress rows in DB", "error", err, "mentor_id", mentorID.String())
		return nil, fmt.Errorf("gormProgressRepository.ListRowsByMentor: %w", err)
	}
	return rows, nil
}

func (r *gormProgressRepository) UpsertCompletion(ctx context.Context, tx *gorm.DB, completion *model.ScheduleCompletion) error {
	logger := middleware.GetLogger(ctx)
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now()
	}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   progressConflictColumns,
		DoUpdates: clause.AssignmentColumns([]string{"suggested_study_time", "completed_at"}),
	}).Create(completion).Error
	if err != nil {
		logger.Error("Error saving schedule completion in DB", "error", err, "student_id", completion.StudentID.String())
		return fmt.Errorf("gormProgressRepository.UpsertCompletion: %w", err)
	}
	return nil
}

func (r *gormProgressRepository) ListCompletedTopicIDs(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&model.ScheduleCompletion{}).Where("student_id = ?", studentID).Pluck("topic_id", &ids).Error
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing schedule completions in DB", "error", err, "student_id", studentID.String())
		return nil, fmt.Errorf("gormProgressRepository.ListCompletedTopicIDs: %w", err)
	}
	result := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
