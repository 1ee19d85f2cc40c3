//go:generate mockery --name PlanService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/planner"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService は学生の進捗とメンターのカリキュラムから学習プランを組み立てます
type PlanService interface {
	// GetPlan は未完了トピックを優先度順に返す
	GetPlan(ctx context.Context, studentID uuid.UUID) ([]model.StudyPlanEntry, error)
	// CompletePlanEntry はプランの項目を学生が消化したことを記録する
	CompletePlanEntry(ctx context.Context, studentID, topicID uuid.UUID) (*model.ScheduleCompletion, error)
	ListStudentTopics(ctx context.Context, studentID uuid.UUID) ([]model.TopicProgressView, error)
	MarkTopicComplete(ctx context.Context, studentID, topicID uuid.UUID) error
}

type planService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	subjectRepo  repository.SubjectRepository
	topicRepo    repository.TopicRepository
	testRepo     repository.TestRepository
	progressRepo repository.ProgressRepository
	engine       *planner.Engine
	// allEngine は完了済みも含めて計算する。完了記録の推奨時刻に使う
	allEngine *planner.Engine
	now       func() time.Time
}

func NewPlanService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	subjectRepo repository.SubjectRepository,
	topicRepo repository.TopicRepository,
	testRepo repository.TestRepository,
	progressRepo repository.ProgressRepository,
	examWeight float64,
) PlanService {
	return &planService{
		db:           db,
		userRepo:     userRepo,
		subjectRepo:  subjectRepo,
		topicRepo:    topicRepo,
		testRepo:     testRepo,
		progressRepo: progressRepo,
		engine:       planner.New(planner.Options{ExamWeight: examWeight}),
		allEngine:    planner.New(planner.Options{ExamWeight: examWeight, IncludeCompleted: true}),
		now:          time.Now,
	}
}

// topicStore は1人の学生から見たトピックの状態
type topicStore struct {
	topics   []*model.Topic
	subjects []*model.Subject
	progress map[uuid.UUID]*model.StudentProgress
	tests    map[uuid.UUID]uuid.UUID // topic_id -> test_id
}

// completed はトピックが計画上「完了」かどうか。
// 完了マーク済み、かつテストが無いか受験済みのときだけ完了とみなす。
func (st *topicStore) completed(topicID uuid.UUID) bool {
	p, ok := st.progress[topicID]
	if !ok || !p.Completed {
		return false
	}
	_, hasTest := st.tests[topicID]
	return !hasTest || p.TestTaken
}

func (st *topicStore) plannerInput(now time.Time) planner.Input {
	in := planner.Input{
		Now:      now,
		Topics:   make([]planner.TopicInput, 0, len(st.topics)),
		Subjects: make([]planner.SubjectInput, 0, len(st.subjects)),
	}
	for _, s := range st.subjects {
		in.Subjects = append(in.Subjects, planner.SubjectInput{SubjectID: s.SubjectID, ExamDate: s.ExamDate})
	}
	for _, t := range st.topics {
		ti := planner.TopicInput{
			TopicID:   t.TopicID,
			SubjectID: t.SubjectID,
			Completed: st.completed(t.TopicID),
		}
		if p, ok := st.progress[t.TopicID]; ok {
			ti.LastScore = p.TestScore
		}
		in.Topics = append(in.Topics, ti)
	}
	return in
}

// mentorOf は学生のメンターIDを返す。未連携なら nil
func (s *planService) mentorOf(ctx context.Context, studentID uuid.UUID) (*uuid.UUID, error) {
	student, err := s.userRepo.FindByID(ctx, s.db, studentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("USER_NOT_FOUND", "User not found.", "", model.ErrNotFound)
		}
		return nil, model.NewInternalError("", err)
	}
	return student.MentorID, nil
}

func (s *planService) loadStore(ctx context.Context, studentID, mentorID uuid.UUID) (*topicStore, error) {
	topics, err := s.topicRepo.ListByMentor(ctx, s.db, mentorID, nil)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	subjects, err := s.subjectRepo.ListByMentor(ctx, s.db, mentorID, false)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	progressRows, err := s.progressRepo.FindByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}
	topicIDs := make([]uuid.UUID, 0, len(topics))
	for _, t := range topics {
		topicIDs = append(topicIDs, t.TopicID)
	}
	tests, err := s.testRepo.TopicIDsWithTests(ctx, s.db, topicIDs)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}

	progress := make(map[uuid.UUID]*model.StudentProgress, len(progressRows))
	for _, p := range progressRows {
		progress[p.TopicID] = p
	}
	return &topicStore{topics: topics, subjects: subjects, progress: progress, tests: tests}, nil
}

func planError(ctx context.Context, err error) error {
	var refErr *planner.ReferentialInconsistencyError
	if errors.As(err, &refErr) {
		middleware.GetLogger(ctx).Error("Topic references a missing subject", "topic_id", refErr.TopicID, "subject_id", refErr.SubjectID)
		return model.NewAppError("REFERENTIAL_INCONSISTENCY", "The curriculum data is inconsistent.", "", errors.Join(model.ErrInternalServer, err))
	}
	return model.NewInternalError("", err)
}

func (s *planService) GetPlan(ctx context.Context, studentID uuid.UUID) ([]model.StudyPlanEntry, error) {
	logger := middleware.GetLogger(ctx)
	mentorID, err := s.mentorOf(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if mentorID == nil {
		logger.Debug("Student has no mentor linked, returning empty plan", "student_id", studentID)
		return []model.StudyPlanEntry{}, nil
	}

	store, err := s.loadStore(ctx, studentID, *mentorID)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.Plan(store.plannerInput(s.now()))
	if err != nil {
		return nil, planError(ctx, err)
	}
	acknowledged, err := s.progressRepo.ListCompletedTopicIDs(ctx, s.db, studentID)
	if err != nil {
		return nil, model.NewInternalError("", err)
	}

	topics := make(map[uuid.UUID]*model.Topic, len(store.topics))
	for _, t := range store.topics {
		topics[t.TopicID] = t
	}

	plan := make([]model.StudyPlanEntry, 0, len(entries))
	for _, e := range entries {
		pe := model.StudyPlanEntry{
			TopicID:            e.TopicID,
			PriorityScore:      e.PriorityScore,
			Difficulty:         string(e.Difficulty),
			SubjectID:          e.SubjectID,
			LastScore:          e.LastScore,
			ExamDate:           e.ExamDate,
			DaysUntilExam:      e.DaysUntilExam,
			Reason:             e.Reason,
			SuggestedStudyTime: e.SuggestedStudyTime,
			Completed:          e.Completed,
			Acknowledged:       acknowledged[e.TopicID],
		}
		if t, ok := topics[e.TopicID]; ok {
			pe.Unit = t.Unit
			pe.TopicName = t.Name
			if t.Subject != nil {
				pe.SubjectName = t.Subject.Name
			}
		}
		plan = append(plan, pe)
	}

	logger.Debug("Study plan generated", "student_id", studentID, "entries", len(plan))
	return plan, nil
}

func (s *planService) CompletePlanEntry(ctx context.Context, studentID, topicID uuid.UUID) (*model.ScheduleCompletion, error) {
	logger := middleware.GetLogger(ctx)
	mentorID, err := s.mentorOf(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if mentorID == nil {
		return nil, model.NewAppError("NO_MENTOR_LINKED", "No mentor linked.", "", model.ErrInvalidInput)
	}
	if _, err := s.topicRepo.FindByID(ctx, s.db, *mentorID, topicID); err != nil {
		return nil, topicError(err)
	}

	now := s.now()
	suggested := now
	store, err := s.loadStore(ctx, studentID, *mentorID)
	if err != nil {
		return nil, err
	}
	entries, err := s.allEngine.Plan(store.plannerInput(now))
	if err != nil {
		return nil, planError(ctx, err)
	}
	for _, e := range entries {
		if e.TopicID == topicID {
			suggested = e.SuggestedStudyTime
			break
		}
	}

	completion := &model.ScheduleCompletion{
		CompletionID:       uuid.New(),
		StudentID:          studentID,
		TopicID:            topicID,
		SuggestedStudyTime: suggested,
		CompletedAt:        now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.UpsertCompletion(ctx, tx, completion); err != nil {
			return model.NewInternalError("Failed to record the completion.", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Plan entry completed", "student_id", studentID, "topic_id", topicID)
	return completion, nil
}

func (s *planService) ListStudentTopics(ctx context.Context, studentID uuid.UUID) ([]model.TopicProgressView, error) {
	mentorID, err := s.mentorOf(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if mentorID == nil {
		return []model.TopicProgressView{}, nil
	}
	store, err := s.loadStore(ctx, studentID, *mentorID)
	if err != nil {
		return nil, err
	}

	views := make([]model.TopicProgressView, 0, len(store.topics))
	for _, t := range store.topics {
		v := model.TopicProgressView{
			TopicID:   t.TopicID,
			SubjectID: t.SubjectID,
			Unit:      t.Unit,
			Name:      t.Name,
		}
		if t.Subject != nil {
			v.SubjectName = t.Subject.Name
			v.ExamDate = t.Subject.ExamDate
		}
		if testID, ok := store.tests[t.TopicID]; ok {
			id := testID
			v.HasTest = true
			v.TestID = &id
		}
		if p, ok := store.progress[t.TopicID]; ok {
			v.Completed = p.Completed
			v.TestTaken = p.TestTaken
			v.TestScore = p.TestScore
			v.Difficulty = p.Difficulty
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *planService) MarkTopicComplete(ctx context.Context, studentID, topicID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	mentorID, err := s.mentorOf(ctx, studentID)
	if err != nil {
		return err
	}
	if mentorID == nil {
		return errTopicNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.topicRepo.FindByID(ctx, tx, *mentorID, topicID); err != nil {
			return topicError(err)
		}
		if err := s.progressRepo.MarkCompleted(ctx, tx, studentID, topicID); err != nil {
			return model.NewInternalError("Failed to update progress.", err)
		}
		logger.Info("Topic marked complete", "student_id", studentID, "topic_id", topicID)
		return nil
	})
}
