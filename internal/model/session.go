package model

import (
	"time"

	"github.com/google/uuid"
)

// StudySession は学生が自分で登録する学習セッション
type StudySession struct {
	SessionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"session_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Subject   string    `gorm:"not null" json:"subject"`
	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	Notes     string    `json:"notes"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

// SessionRequest は学習セッションの作成・更新リクエスト
type SessionRequest struct {
	Subject   string `json:"subject" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// MentorSessionView はメンターが見る学生のセッション
type MentorSessionView struct {
	StudySession
	Username string `json:"username"`
}
