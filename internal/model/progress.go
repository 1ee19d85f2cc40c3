// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentProgress は学生ごとのトピック進捗
type StudentProgress struct {
	ProgressID uuid.UUID `gorm:"type:uuid;primaryKey" json:"progress_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_student_topic" json:"student_id"` // 複合ユニークインデックスの一部
	TopicID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_student_topic;index" json:"topic_id"`
	Completed  bool      `gorm:"not null;default:false" json:"completed"`
	TestTaken  bool      `gorm:"not null;default:false" json:"test_taken"`
	TestScore  *float64  `json:"test_score,omitempty"`
	Difficulty *string   `gorm:"type:varchar(16)" json:"difficulty,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 関連 (Preload用)。belongs-to なのでタグは付けない
	Topic *Topic `json:"-"`
}

func (StudentProgress) TableName() string {
	return "student_progress"
}

// ScheduleCompletion は学習プランの項目を学生が完了したことの記録
type ScheduleCompletion struct {
	CompletionID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"completion_id"`
	StudentID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_student_topic" json:"student_id"`
	TopicID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_student_topic;index" json:"topic_id"`
	SuggestedStudyTime time.Time `json:"suggested_study_time"`
	CompletedAt        time.Time `gorm:"not null" json:"completed_at"`
}

func (ScheduleCompletion) TableName() string {
	return "schedule_completions"
}

// TopicProgressView は学生向けトピック一覧の1行
type TopicProgressView struct {
	TopicID     uuid.UUID  `json:"topic_id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	Unit        string     `json:"unit"`
	Name        string     `json:"name"`
	ExamDate    *time.Time `json:"exam_date,omitempty"`
	HasTest     bool       `json:"has_test"`
	TestID      *uuid.UUID `json:"test_id,omitempty"`
	Completed   bool       `json:"completed"`
	TestTaken   bool       `json:"test_taken"`
	TestScore   *float64   `json:"test_score,omitempty"`
	Difficulty  *string    `json:"difficulty,omitempty"`
}

// StudentProgressRow はメンター向け進捗一覧・エクスポートの1行
type StudentProgressRow struct {
	StudentID   uuid.UUID `json:"student_id"`
	Username    string    `json:"username"`
	SubjectName string    `json:"subject_name"`
	Unit        string    `json:"unit"`
	TopicName   string    `json:"topic_name"`
	Completed   bool      `json:"completed"`
	TestTaken   bool      `json:"test_taken"`
	TestScore   *float64  `json:"test_score,omitempty"`
	Difficulty  *string   `json:"difficulty,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
