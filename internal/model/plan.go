package model

import (
	"time"

	"github.com/google/uuid"
)

// StudyPlanEntry は学習プランの1行。永続化はせず、リクエストのたびに計算する
type StudyPlanEntry struct {
	TopicID            uuid.UUID  `json:"topic_id"`
	PriorityScore      float64    `json:"priority_score"`
	Difficulty         string     `json:"difficulty"`
	SubjectID          uuid.UUID  `json:"subject_id"`
	SubjectName        string     `json:"subject_name"`
	Unit               string     `json:"unit"`
	TopicName          string     `json:"topic_name"`
	LastScore          *float64   `json:"last_score,omitempty"`
	ExamDate           *time.Time `json:"exam_date,omitempty"`
	DaysUntilExam      *int       `json:"days_until_exam,omitempty"`
	Reason             string     `json:"reason"`
	SuggestedStudyTime time.Time  `json:"suggested_study_time"`
	Completed          bool       `json:"completed"`
	Acknowledged       bool       `json:"acknowledged"`
}

// UpcomingExam はダッシュボードに表示する今後の試験
type UpcomingExam struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	ExamDate    time.Time `json:"exam_date"`
	DaysLeft    int       `json:"days_left"`
}

type StudentDashboard struct {
	Sessions      []*StudySession  `json:"sessions"`
	UpcomingExams []UpcomingExam   `json:"upcoming_exams"`
	Plan          []StudyPlanEntry `json:"plan"`
}

type SessionCounts struct {
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

type MentorDashboard struct {
	SessionCounts SessionCounts        `json:"session_counts"`
	Subjects      []*Subject           `json:"subjects"`
	Students      []*UserResponse      `json:"students"`
	Progress      []StudentProgressRow `json:"progress"`
}
