package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout は試験日など日付のみを扱うフィールドの形式です
const DateLayout = "2006-01-02"

// Subject は科目。試験日は任意
type Subject struct {
	SubjectID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"subject_id"`
	MentorID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_subject_mentor_name" json:"mentor_id"`
	Name      string     `gorm:"not null;uniqueIndex:idx_subject_mentor_name" json:"name"`
	ExamDate  *time.Time `json:"exam_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Topics []Topic `gorm:"foreignKey:SubjectID;references:SubjectID" json:"topics,omitempty"`
}

func (Subject) TableName() string {
	return "subjects"
}

// Topic は単元(unit)の中の1トピック。必ず1つの科目に属する
type Topic struct {
	TopicID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"topic_id"`
	MentorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"mentor_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Unit      string    `gorm:"not null" json:"unit"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// belongs-to。タグで foreignKey を指定すると has-one と解釈され、外部キーが逆向きに作られる
	Subject *Subject `json:"subject,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

// SubjectRequest は科目の作成・更新リクエスト
type SubjectRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	ExamDate *string `json:"exam_date" validate:"omitempty,datetime=2006-01-02"`
}

// ExamDateRequest は試験日の設定リクエスト
type ExamDateRequest struct {
	ExamDate string `json:"exam_date" validate:"required,datetime=2006-01-02"`
}

// TopicRequest はトピックの作成・更新リクエスト
type TopicRequest struct {
	SubjectID uuid.UUID `json:"subject_id" validate:"required"`
	Unit      string    `json:"unit" validate:"required,max=100"`
	Name      string    `json:"name" validate:"required,max=200"`
}

// ImportResult はカリキュラム取り込みの結果
type ImportResult struct {
	SubjectsCreated int `json:"subjects_created"`
	SubjectsUpdated int `json:"subjects_updated"`
	TopicsCreated   int `json:"topics_created"`
	TopicsSkipped   int `json:"topics_skipped"`
}

// ParseDate は "2006-01-02" 形式の日付を UTC の0時として解釈します
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
