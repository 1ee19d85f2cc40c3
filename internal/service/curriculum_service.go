package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CurriculumService はメンターの科目・トピックを管理します
type CurriculumService interface {
	ListSubjects(ctx context.Context, mentorID uuid.UUID) ([]*model.Subject, error)
	CreateSubject(ctx context.Context, mentorID uuid.UUID, req *model.SubjectRequest) (*model.Subject, error)
	UpdateSubject(ctx context.Context, mentorID, subjectID uuid.UUID, req *model.SubjectRequest) (*model.Subject, error)
	// DeleteSubject は配下のトピック(とその依存データ)もまとめて削除する
	DeleteSubject(ctx context.Context, mentorID, subjectID uuid.UUID) error
	SetExamDate(ctx context.Context, mentorID, subjectID uuid.UUID, examDate string) (*model.Subject, error)
	ClearExamDate(ctx context.Context, mentorID, subjectID uuid.UUID) (*model.Subject, error)

	ListTopics(ctx context.Context, mentorID uuid.UUID, subjectID *uuid.UUID) ([]*model.Topic, error)
	GetTopic(ctx context.Context, mentorID, topicID uuid.UUID) (*model.Topic, error)
	CreateTopic(ctx context.Context, mentorID uuid.UUID, req *model.TopicRequest) (*model.Topic, error)
	UpdateTopic(ctx context.Context, mentorID, topicID uuid.UUID, req *model.TopicRequest) (*model.Topic, error)
	DeleteTopic(ctx context.Context, mentorID, topicID uuid.UUID) error

	// ImportYAML は YAML のカリキュラムを取り込む。既存の科目・トピックは名前で照合する
	ImportYAML(ctx context.Context, mentorID uuid.UUID, r io.Reader) (*model.ImportResult, error)
}

type curriculumService struct {
	db          *gorm.DB
	subjectRepo repository.SubjectRepository
	topicRepo   repository.TopicRepository
}

func NewCurriculumService(db *gorm.DB, subjectRepo repository.SubjectRepository, topicRepo repository.TopicRepository) CurriculumService {
	return &curriculumService{
		db:          db,
		subjectRepo: subjectRepo,
		topicRepo:   topicRepo,
	}
}

var errSubjectNotFound = model.NewAppError("SUBJECT_NOT_FOUND", "Subject not found.", "", model.ErrNotFound)
var errTopicNotFound = model.NewAppError("TOPIC_NOT_FOUND", "Topic not found.", "", model.ErrNotFound)

// subjectError はリポジトリのエラーを AppError に変換する
func subjectError(err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return errSubjectNotFound
	case errors.Is(err, model.ErrConflict):
		return model.NewAppError("DUPLICATE_SUBJECT", "A subject with this name already exists.", "name", model.ErrConflict)
	default:
		return model.NewInternalError("", err)
	}
}

func topicError(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return errTopicNotFound
	}
	return model.NewInternalError("", err)
}

func parseExamDate(s string, field string) (*time.Time, error) {
	d, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, model.NewAppError("INVALID_DATE", "Date must be in YYYY-MM-DD format.", field, model.ErrInvalidInput)
	}
	return &d, nil
}

func (s *curriculumService) ListSubjects(ctx context.Context, mentorID uuid.UUID) ([]*model.Subject, error) {
	subjects, err := s.subjectRepo.ListByMentor(ctx, s.db, mentorID, true)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	return subjects, nil
}

func (s *curriculumService) CreateSubject(ctx context.Context, mentorID uuid.UUID, req *model.SubjectRequest) (*model.Subject, error) {
	logger := middleware.GetLogger(ctx)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "name is required.", "name", model.ErrInvalidInput)
	}

	subject := &model.Subject{
		SubjectID: uuid.New(),
		MentorID:  mentorID,
		Name:      name,
	}
	if req.ExamDate != nil && strings.TrimSpace(*req.ExamDate) != "" {
		d, err := parseExamDate(*req.ExamDate, "exam_date")
		if err != nil {
			return nil, err
		}
		subject.ExamDate = d
	}

	if err := s.subjectRepo.Create(ctx, s.db, subject); err != nil {
		return nil, subjectError(err)
	}
	logger.Info("Subject created", "subject_id", subject.SubjectID, "mentor_id", mentorID)
	return subject, nil
}

func (s *curriculumService) UpdateSubject(ctx context.Context, mentorID, subjectID uuid.UUID, req *model.SubjectRequest) (*model.Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "name is required.", "name", model.ErrInvalidInput)
	}
	updates := map[string]interface{}{"name": name}
	// exam_date: 省略 → 変更なし、空文字 → 削除
	if req.ExamDate != nil {
		if strings.TrimSpace(*req.ExamDate) == "" {
			updates["exam_date"] = nil
		} else {
			d, err := parseExamDate(*req.ExamDate, "exam_date")
			if err != nil {
				return nil, err
			}
			updates["exam_date"] = *d
		}
	}
	return s.updateSubject(ctx, mentorID, subjectID, updates)
}

func (s *curriculumService) SetExamDate(ctx context.Context, mentorID, subjectID uuid.UUID, examDate string) (*model.Subject, error) {
	d, err := parseExamDate(examDate, "exam_date")
	if err != nil {
		return nil, err
	}
	return s.updateSubject(ctx, mentorID, subjectID, map[string]interface{}{"exam_date": *d})
}

func (s *curriculumService) ClearExamDate(ctx context.Context, mentorID, subjectID uuid.UUID) (*model.Subject, error) {
	return s.updateSubject(ctx, mentorID, subjectID, map[string]interface{}{"exam_date": nil})
}

func (s *curriculumService) updateSubject(ctx context.Context, mentorID, subjectID uuid.UUID, updates map[string]interface{}) (*model.Subject, error) {
	logger := middleware.GetLogger(ctx)
	var updated *model.Subject
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.subjectRepo.Update(ctx, tx, mentorID, subjectID, updates); err != nil {
			return subjectError(err)
		}
		subject, err := s.subjectRepo.FindByID(ctx, tx, mentorID, subjectID)
		if err != nil {
			return subjectError(err)
		}
		updated = subject
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Subject updated", "subject_id", subjectID)
	return updated, nil
}

func (s *curriculumService) DeleteSubject(ctx context.Context, mentorID, subjectID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.subjectRepo.FindByID(ctx, tx, mentorID, subjectID); err != nil {
			return subjectError(err)
		}
		topicIDs, err := s.topicRepo.ListIDsBySubject(ctx, tx, subjectID)
		if err != nil {
			return model.NewInternalError("", err)
		}
		if err := s.topicRepo.DeleteCascade(ctx, tx, topicIDs); err != nil {
			return model.NewInternalError("Failed to delete topics.", err)
		}
		if err := s.subjectRepo.Delete(ctx, tx, mentorID, subjectID); err != nil {
			return subjectError(err)
		}
		logger.Info("Subject deleted", "subject_id", subjectID, "topics_deleted", len(topicIDs))
		return nil
	})
	return err
}

func (s *curriculumService) ListTopics(ctx context.Context, mentorID uuid.UUID, subjectID *uuid.UUID) ([]*model.Topic, error) {
	topics, err := s.topicRepo.ListByMentor(ctx, s.db, mentorID, subjectID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	return topics, nil
}

func (s *curriculumService) GetTopic(ctx context.Context, mentorID, topicID uuid.UUID) (*model.Topic, error) {
	topic, err := s.topicRepo.FindByID(ctx, s.db, mentorID, topicID)
	if err != nil {
		return nil, topicError(err)
	}
	return topic, nil
}

func normalizeTopicRequest(req *model.TopicRequest) (unit, name string, err error) {
	unit = strings.TrimSpace(req.Unit)
	name = strings.TrimSpace(req.Name)
	if unit == "" {
		return "", "", model.NewAppError("VALIDATION_ERROR", "unit is required.", "unit", model.ErrInvalidInput)
	}
	if name == "" {
		return "", "", model.NewAppError("VALIDATION_ERROR", "name is required.", "name", model.ErrInvalidInput)
	}
	return unit, name, nil
}

func (s *curriculumService) CreateTopic(ctx context.Context, mentorID uuid.UUID, req *model.TopicRequest) (*model.Topic, error) {
	logger := middleware.GetLogger(ctx)
	unit, name, err := normalizeTopicRequest(req)
	if err != nil {
		return nil, err
	}

	var created *model.Topic
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subject, err := s.subjectRepo.FindByID(ctx, tx, mentorID, req.SubjectID)
		if err != nil {
			return subjectError(err)
		}
		topic := &model.Topic{
			TopicID:   uuid.New(),
			MentorID:  mentorID,
			SubjectID: subject.SubjectID,
			Unit:      unit,
			Name:      name,
		}
		if err := s.topicRepo.Create(ctx, tx, topic); err != nil {
			return model.NewInternalError("Failed to create the topic.", err)
		}
		topic.Subject = subject
		created = topic
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Topic created", "topic_id", created.TopicID, "subject_id", created.SubjectID)
	return created, nil
}

func (s *curriculumService) UpdateTopic(ctx context.Context, mentorID, topicID uuid.UUID, req *model.TopicRequest) (*model.Topic, error) {
	logger := middleware.GetLogger(ctx)
	unit, name, err := normalizeTopicRequest(req)
	if err != nil {
		return nil, err
	}

	var updated *model.Topic
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 移動先の科目も自分のものでなければならない
		if _, err := s.subjectRepo.FindByID(ctx, tx, mentorID, req.SubjectID); err != nil {
			return subjectError(err)
		}
		updates := map[string]interface{}{"subject_id": req.SubjectID, "unit": unit, "name": name}
		if err := s.topicRepo.Update(ctx, tx, mentorID, topicID, updates); err != nil {
			return topicError(err)
		}
		topic, err := s.topicRepo.FindByID(ctx, tx, mentorID, topicID)
		if err != nil {
			return topicError(err)
		}
		updated = topic
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Topic updated", "topic_id", topicID)
	return updated, nil
}

func (s *curriculumService) DeleteTopic(ctx context.Context, mentorID, topicID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.topicRepo.FindByID(ctx, tx, mentorID, topicID); err != nil {
			return topicError(err)
		}
		if err := s.topicRepo.DeleteCascade(ctx, tx, []uuid.UUID{topicID}); err != nil {
			return model.NewInternalError("Failed to delete the topic.", err)
		}
		logger.Info("Topic deleted", "topic_id", topicID)
		return nil
	})
}

// --- YAML 取り込み ---

type curriculumDocument struct {
	Subjects []curriculumSubject `yaml:"subjects"`
}

type curriculumSubject struct {
	Name     string            `yaml:"name"`
	ExamDate string            `yaml:"exam_date"`
	Topics   []curriculumTopic `yaml:"topics"`
}

type curriculumTopic struct {
	Unit string `yaml:"unit"`
	Name string `yaml:"name"`
}

func (s *curriculumService) ImportYAML(ctx context.Context, mentorID uuid.UUID, r io.Reader) (*model.ImportResult, error) {
	logger := middleware.GetLogger(ctx)

	var doc curriculumDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewAppError("INVALID_CURRICULUM", "The curriculum document is empty.", "", model.ErrInvalidInput)
		}
		logger.Warn("Failed to parse curriculum YAML", "error", err)
		return nil, model.NewAppError("INVALID_CURRICULUM", "The curriculum document is not valid YAML: "+err.Error(), "", model.ErrInvalidInput)
	}
	if len(doc.Subjects) == 0 {
		return nil, model.NewAppError("INVALID_CURRICULUM", "The curriculum document has no subjects.", "subjects", model.ErrInvalidInput)
	}

	// 書き込み前に全体を検証する
	for i, sub := range doc.Subjects {
		if strings.TrimSpace(sub.Name) == "" {
			return nil, model.NewAppError("INVALID_CURRICULUM", "Subject name is required.", fmt.Sprintf("subjects[%d].name", i), model.ErrInvalidInput)
		}
		if strings.TrimSpace(sub.ExamDate) != "" {
			if _, err := parseExamDate(sub.ExamDate, fmt.Sprintf("subjects[%d].exam_date", i)); err != nil {
				return nil, err
			}
		}
		for j, topic := range sub.Topics {
			if strings.TrimSpace(topic.Unit) == "" || strings.TrimSpace(topic.Name) == "" {
				return nil, model.NewAppError("INVALID_CURRICULUM", "Topic unit and name are required.", fmt.Sprintf("subjects[%d].topics[%d]", i, j), model.ErrInvalidInput)
			}
		}
	}

	result := &model.ImportResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sub := range doc.Subjects {
			subject, err := s.importSubject(ctx, tx, mentorID, sub, result)
			if err != nil {
				return err
			}
			for _, t := range sub.Topics {
				unit, name := strings.TrimSpace(t.Unit), strings.TrimSpace(t.Name)
				exists, err := s.topicRepo.Exists(ctx, tx, subject.SubjectID, unit, name)
				if err != nil {
					return model.NewInternalError("", err)
				}
				if exists {
					result.TopicsSkipped++
					continue
				}
				topic := &model.Topic{
					TopicID:   uuid.New(),
					MentorID:  mentorID,
					SubjectID: subject.SubjectID,
					Unit:      unit,
					Name:      name,
				}
				if err := s.topicRepo.Create(ctx, tx, topic); err != nil {
					return model.NewInternalError("Failed to create a topic.", err)
				}
				result.TopicsCreated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Curriculum imported",
		"mentor_id", mentorID,
		"subjects_created", result.SubjectsCreated,
		"subjects_updated", result.SubjectsUpdated,
		"topics_created", result.TopicsCreated,
		"topics_skipped", result.TopicsSkipped,
	)
	return result, nil
}

// importSubject は名前で既存科目を探し、無ければ作成する。試験日が変わる場合は更新する
func (s *curriculumService) importSubject(ctx context.Context, tx *gorm.DB, mentorID uuid.UUID, sub curriculumSubject, result *model.ImportResult) (*model.Subject, error) {
	name := strings.TrimSpace(sub.Name)
	var examDate *time.Time
	if strings.TrimSpace(sub.ExamDate) != "" {
		examDate, _ = parseExamDate(sub.ExamDate, "exam_date") // 検証済み
	}

	subject, err := s.subjectRepo.FindByName(ctx, tx, mentorID, name)
	switch {
	case err == nil:
		if examDate != nil && (subject.ExamDate == nil || !subject.ExamDate.Equal(*examDate)) {
			if err := s.subjectRepo.Update(ctx, tx, mentorID, subject.SubjectID, map[string]interface{}{"exam_date": *examDate}); err != nil {
				return nil, subjectError(err)
			}
			subject.ExamDate = examDate
			result.SubjectsUpdated++
		}
		return subject, nil
	case errors.Is(err, model.ErrNotFound):
		subject = &model.Subject{
			SubjectID: uuid.New(),
			MentorID:  mentorID,
			Name:      name,
			ExamDate:  examDate,
		}
		if err := s.subjectRepo.Create(ctx, tx, subject); err != nil {
			return nil, subjectError(err)
		}
		result.SubjectsCreated++
		return subject, nil
	default:
		return nil, model.NewInternalError("", err)
	}
}
