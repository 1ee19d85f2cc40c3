package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionShortAnswer QuestionType = "ShortAnswer"
)

// DefaultTestTitle はタイトル未入力時に使われる
const DefaultTestTitle = "Test"

// Test はトピックごとに最大1つ作成できる確認テスト
type Test struct {
	TestID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"test_id"`
	MentorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"mentor_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"topic_id"`
	Title     string    `gorm:"not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `gorm:"foreignKey:TestID;references:TestID" json:"questions"`
}

func (Test) TableName() string {
	return "tests"
}

type Question struct {
	QuestionID    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"question_id"`
	TestID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"-"`
	Position      int          `gorm:"not null" json:"position"`
	Text          string       `gorm:"not null" json:"text"`
	Type          QuestionType `gorm:"type:varchar(16);not null" json:"type"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"` // ShortAnswer のみ

	Options []Option `gorm:"foreignKey:QuestionID;references:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

type Option struct {
	OptionID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"option_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position   int       `gorm:"not null" json:"position"`
	Text       string    `gorm:"not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
}

func (Option) TableName() string {
	return "options"
}

// TestRequest はテスト作成・更新リクエスト。正規化はサービス層で行う
type TestRequest struct {
	Title     string            `json:"title" validate:"max=200"`
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,max=100"`
}

type QuestionRequest struct {
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	CorrectAnswer string   `json:"correct_answer"`
}

// SubmitTestRequest は question_id ごとの回答。MCQ は option_id、ShortAnswer は文字列
type SubmitTestRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// TestResult は採点結果
type TestResult struct {
	TestID     uuid.UUID `json:"test_id"`
	TopicID    uuid.UUID `json:"topic_id"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Score      float64   `json:"score"`
	Difficulty string    `json:"difficulty"`
}

// StudentTestView は学生向けのテスト表示。正解は含めない
type StudentTestView struct {
	TestID    uuid.UUID             `json:"test_id"`
	TopicID   uuid.UUID             `json:"topic_id"`
	Title     string                `json:"title"`
	Questions []StudentQuestionView `json:"questions"`
}

type StudentQuestionView struct {
	QuestionID uuid.UUID           `json:"question_id"`
	Position   int                 `json:"position"`
	Text       string              `json:"text"`
	Type       QuestionType        `json:"type"`
	Options    []StudentOptionView `json:"options,omitempty"`
}

type StudentOptionView struct {
	OptionID uuid.UUID `json:"option_id"`
	Text     string    `json:"text"`
}

func NewStudentTestView(t *Test) *StudentTestView {
	view := &StudentTestView{
		TestID:    t.TestID,
		TopicID:   t.TopicID,
		Title:     t.Title,
		Questions: make([]StudentQuestionView, 0, len(t.Questions)),
	}
	for _, q := range t.Questions {
		qv := StudentQuestionView{QuestionID: q.QuestionID, Position: q.Position, Text: q.Text, Type: q.Type}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, StudentOptionView{OptionID: o.OptionID, Text: o.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}
