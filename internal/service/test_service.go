package service

import (
	"context"
	"errors"
	"strings"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/planner"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestService はトピックごとの確認テストの作成と採点を扱います
type TestService interface {
	CreateTest(ctx context.Context, mentorID, topicID uuid.UUID, req *model.TestRequest) (*model.Test, error)
	GetTest(ctx context.Context, mentorID, testID uuid.UUID) (*model.Test, error)
	// UpdateTest はタイトルと設問を丸ごと置き換える
	UpdateTest(ctx context.Context, mentorID, testID uuid.UUID, req *model.TestRequest) (*model.Test, error)
	DeleteTest(ctx context.Context, mentorID, testID uuid.UUID) error

	GetTestForStudent(ctx context.Context, studentID, testID uuid.UUID) (*model.StudentTestView, error)
	SubmitTest(ctx context.Context, studentID, testID uuid.UUID, req *model.SubmitTestRequest) (*model.TestResult, error)
}

type testService struct {
	db           *gorm.DB
	testRepo     repository.TestRepository
	topicRepo    repository.TopicRepository
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
}

func NewTestService(db *gorm.DB, testRepo repository.TestRepository, topicRepo repository.TopicRepository, userRepo repository.UserRepository, progressRepo repository.ProgressRepository) TestService {
	return &testService{
		db:           db,
		testRepo:     testRepo,
		topicRepo:    topicRepo,
		userRepo:     userRepo,
		progressRepo: progressRepo,
	}
}

var errTestNotFound = model.NewAppError("TEST_NOT_FOUND", "Test not found.", "", model.ErrNotFound)

// normalizeTest はリクエストを保存用の設問に整える。
// 空の設問や選択肢の無い MCQ は捨て、有効な設問が1つも無ければエラー。
func normalizeTest(req *model.TestRequest) (string, []model.Question, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = model.DefaultTestTitle
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, qr := range req.Questions {
		text := strings.TrimSpace(qr.Text)
		if text == "" {
			continue
		}
		qType := model.QuestionType(strings.TrimSpace(qr.Type))
		if qType != model.QuestionMCQ && qType != model.QuestionShortAnswer {
			qType = model.QuestionMCQ
		}

		q := model.Question{
			QuestionID: uuid.New(),
			Position:   len(questions),
			Text:       text,
			Type:       qType,
		}

		if qType == model.QuestionMCQ {
			// 最初の空の選択肢までを採用する
			var opts []string
			for _, o := range qr.Options {
				o = strings.TrimSpace(o)
				if o == "" {
					break
				}
				opts = append(opts, o)
			}
			if len(opts) == 0 {
				continue
			}
			correct := qr.CorrectOption
			if correct < 0 || correct >= len(opts) {
				correct = 0
			}
			for i, o := range opts {
				q.Options = append(q.Options, model.Option{
					OptionID:  uuid.New(),
					Position:  i,
					Text:      o,
					IsCorrect: i == correct,
				})
			}
		} else {
			answer := strings.TrimSpace(qr.CorrectAnswer)
			q.CorrectAnswer = &answer
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return "", nil, model.NewAppError("NO_VALID_QUESTIONS", "Add at least one valid question.", "questions", model.ErrInvalidInput)
	}
	return title, questions, nil
}

func (s *testService) CreateTest(ctx context.Context, mentorID, topicID uuid.UUID, req *model.TestRequest) (*model.Test, error) {
	logger := middleware.GetLogger(ctx)
	title, questions, err := normalizeTest(req)
	if err != nil {
		return nil, err
	}

	test := &model.Test{
		TestID:    uuid.New(),
		MentorID:  mentorID,
		TopicID:   topicID,
		Title:     title,
		Questions: questions,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.topicRepo.FindByID(ctx, tx, mentorID, topicID); err != nil {
			return topicError(err)
		}
		_, err := s.testRepo.FindByTopicID(ctx, tx, topicID)
		if err == nil {
			return model.NewAppError("TEST_ALREADY_EXISTS", "A test already exists for this topic.", "", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.NewInternalError("", err)
		}
		if err := s.testRepo.Create(ctx, tx, test); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("TEST_ALREADY_EXISTS", "A test already exists for this topic.", "", model.ErrConflict)
			}
			return model.NewInternalError("Failed to create the test.", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Test created", "test_id", test.TestID, "topic_id", topicID, "questions", len(questions))
	return test, nil
}

// findOwned はメンター自身のテストだけを返す
func (s *testService) findOwned(ctx context.Context, db *gorm.DB, mentorID, testID uuid.UUID) (*model.Test, error) {
	test, err := s.testRepo.FindByID(ctx, db, testID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errTestNotFound
		}
		return nil, model.NewInternalError("", err)
	}
	if test.MentorID != mentorID {
		middleware.GetLogger(ctx).Warn("Test belongs to another mentor", "test_id", testID, "mentor_id", mentorID)
		return nil, errTestNotFound
	}
	return test, nil
}

func (s *testService) GetTest(ctx context.Context, mentorID, testID uuid.UUID) (*model.Test, error) {
	return s.findOwned(ctx, s.db, mentorID, testID)
}

func (s *testService) UpdateTest(ctx context.Context, mentorID, testID uuid.UUID, req *model.TestRequest) (*model.Test, error) {
	logger := middleware.GetLogger(ctx)
	title, questions, err := normalizeTest(req)
	if err != nil {
		return nil, err
	}

	var updated *model.Test
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findOwned(ctx, tx, mentorID, testID); err != nil {
			return err
		}
		if err := s.testRepo.ReplaceQuestions(ctx, tx, testID, title, questions); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return errTestNotFound
			}
			return model.NewInternalError("Failed to update the test.", err)
		}
		test, err := s.testRepo.FindByID(ctx, tx, testID)
		if err != nil {
			return model.NewInternalError("", err)
		}
		updated = test
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Test updated", "test_id", testID, "questions", len(questions))
	return updated, nil
}

func (s *testService) DeleteTest(ctx context.Context, mentorID, testID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findOwned(ctx, tx, mentorID, testID); err != nil {
			return err
		}
		if err := s.testRepo.Delete(ctx, tx, testID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return errTestNotFound
			}
			return model.NewInternalError("Failed to delete the test.", err)
		}
		logger.Info("Test deleted", "test_id", testID)
		return nil
	})
}

// findForStudent は学生のメンターが作ったテストだけを返す
func (s *testService) findForStudent(ctx context.Context, studentID, testID uuid.UUID) (*model.Test, error) {
	student, err := s.userRepo.FindByID(ctx, s.db, studentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("USER_NOT_FOUND", "User not found.", "", model.ErrNotFound)
		}
		return nil, model.NewInternalError("", err)
	}
	if student.MentorID == nil {
		return nil, errTestNotFound
	}
	return s.findOwned(ctx, s.db, *student.MentorID, testID)
}

func (s *testService) GetTestForStudent(ctx context.Context, studentID, testID uuid.UUID) (*model.StudentTestView, error) {
	test, err := s.findForStudent(ctx, studentID, testID)
	if err != nil {
		return nil, err
	}
	return model.NewStudentTestView(test), nil
}

func (s *testService) SubmitTest(ctx context.Context, studentID, testID uuid.UUID, req *model.SubmitTestRequest) (*model.TestResult, error) {
	logger := middleware.GetLogger(ctx)
	test, err := s.findForStudent(ctx, studentID, testID)
	if err != nil {
		return nil, err
	}

	correct, total := grade(test, req.Answers)
	var score float64
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	difficulty := planner.DifficultyFor(&score)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.SaveTestResult(ctx, tx, studentID, test.TopicID, score, string(difficulty)); err != nil {
			return model.NewInternalError("Failed to save the test result.", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Test submitted", "test_id", testID, "student_id", studentID, "score", score)
	return &model.TestResult{
		TestID:     test.TestID,
		TopicID:    test.TopicID,
		Correct:    correct,
		Total:      total,
		Score:      score,
		Difficulty: string(difficulty),
	}, nil
}

// grade は回答を採点する。answers のキーは question_id
func grade(test *model.Test, answers map[string]string) (correct, total int) {
	for _, q := range test.Questions {
		total++
		ans := strings.TrimSpace(answers[q.QuestionID.String()])
		switch q.Type {
		case model.QuestionMCQ:
			for _, o := range q.Options {
				if o.IsCorrect {
					if ans == o.OptionID.String() {
						correct++
					}
					break
				}
			}
		default:
			expected := ""
			if q.CorrectAnswer != nil {
				expected = strings.ToLower(strings.TrimSpace(*q.CorrectAnswer))
			}
			if strings.ToLower(ans) == expected {
				correct++
			}
		}
	}
	return correct, total
}
