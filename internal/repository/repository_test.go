package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"schedulr/internal/config"
	"schedulr/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリ sqlite を用意します
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	mentor  *model.User
	student *model.User
	subject *model.Subject
	topic   *model.Topic
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewGormUserRepository()

	mentor := &model.User{UserID: uuid.New(), Username: "mentor-" + uuid.NewString()[:8], PasswordHash: "x", Role: model.RoleMentor, MentorCode: ptr(uuid.NewString()[:8])}
	require.NoError(t, users.Create(ctx, db, mentor))
	student := &model.User{UserID: uuid.New(), Username: "student-" + uuid.NewString()[:8], PasswordHash: "x", Role: model.RoleStudent, MentorID: &mentor.UserID}
	require.NoError(t, users.Create(ctx, db, student))

	subject := &model.Subject{SubjectID: uuid.New(), MentorID: mentor.UserID, Name: "Math"}
	require.NoError(t, NewGormSubjectRepository().Create(ctx, db, subject))
	topic := &model.Topic{TopicID: uuid.New(), MentorID: mentor.UserID, SubjectID: subject.SubjectID, Unit: "Algebra", Name: "Linear equations"}
	require.NoError(t, NewGormTopicRepository().Create(ctx, db, topic))

	return fixture{mentor: mentor, student: student, subject: subject, topic: topic}
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormUserRepository()
	f := seed(t, db)

	t.Run("正常系: ユーザー名で検索できる", func(t *testing.T) {
		got, err := repo.FindByUsername(ctx, db, f.student.Username)
		require.NoError(t, err)
		assert.Equal(t, f.student.UserID, got.UserID)
	})

	t.Run("正常系: メンターコードで検索できる", func(t *testing.T) {
		got, err := repo.FindMentorByCode(ctx, db, *f.mentor.MentorCode)
		require.NoError(t, err)
		assert.Equal(t, f.mentor.UserID, got.UserID)
	})

	t.Run("異常系: 存在しないユーザー", func(t *testing.T) {
		_, err := repo.FindByID(ctx, db, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("異常系: ユーザー名の重複", func(t *testing.T) {
		dup := &model.User{UserID: uuid.New(), Username: f.student.Username, PasswordHash: "x", Role: model.RoleStudent}
		err := repo.Create(ctx, db, dup)
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("正常系: メンター配下の学生一覧", func(t *testing.T) {
		students, err := repo.ListStudentsByMentor(ctx, db, f.mentor.UserID)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, f.student.UserID, students[0].UserID)
	})
}

func TestSubjectRepository_UniqueNamePerMentor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormSubjectRepository()
	f := seed(t, db)

	err := repo.Create(ctx, db, &model.Subject{SubjectID: uuid.New(), MentorID: f.mentor.UserID, Name: "Math"})
	assert.ErrorIs(t, err, model.ErrConflict)

	// 別メンターなら同名でも作成できる
	err = repo.Create(ctx, db, &model.Subject{SubjectID: uuid.New(), MentorID: uuid.New(), Name: "Math"})
	assert.NoError(t, err)

	subjects, err := repo.ListByMentor(ctx, db, f.mentor.UserID, true)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Len(t, subjects[0].Topics, 1)
	assert.Equal(t, f.topic.TopicID, subjects[0].Topics[0].TopicID)

	exam := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, db, f.mentor.UserID, f.subject.SubjectID, map[string]interface{}{"exam_date": exam}))
	got, err := repo.FindByID(ctx, db, f.mentor.UserID, f.subject.SubjectID)
	require.NoError(t, err)
	require.NotNil(t, got.ExamDate)
	assert.True(t, exam.Equal(*got.ExamDate))

	// 他のメンターからは更新できない
	err = repo.Update(ctx, db, uuid.New(), f.subject.SubjectID, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTopicRepository_DeleteCascade(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)

	tests := NewGormTestRepository()
	progress := NewGormProgressRepository()
	topics := NewGormTopicRepository()

	test := &model.Test{
		TestID: uuid.New(), MentorID: f.mentor.UserID, TopicID: f.topic.TopicID, Title: "Quiz",
		Questions: []model.Question{{
			QuestionID: uuid.New(), Position: 0, Text: "2+2?", Type: model.QuestionMCQ,
			Options: []model.Option{
				{OptionID: uuid.New(), Position: 0, Text: "4", IsCorrect: true},
				{OptionID: uuid.New(), Position: 1, Text: "5"},
			},
		}},
	}
	require.NoError(t, tests.Create(ctx, db, test))
	require.NoError(t, progress.SaveTestResult(ctx, db, f.student.UserID, f.topic.TopicID, 100, "easy"))
	require.NoError(t, progress.UpsertCompletion(ctx, db, &model.ScheduleCompletion{
		CompletionID: uuid.New(), StudentID: f.student.UserID, TopicID: f.topic.TopicID, SuggestedStudyTime: time.Now(),
	}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return topics.DeleteCascade(ctx, tx, []uuid.UUID{f.topic.TopicID})
	}))

	for _, m := range []interface{}{&model.Topic{}, &model.Test{}, &model.Question{}, &model.Option{}, &model.StudentProgress{}, &model.ScheduleCompletion{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count, "%T should be empty", m)
	}
}

func TestTestRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	repo := NewGormTestRepository()

	test := &model.Test{TestID: uuid.New(), MentorID: f.mentor.UserID, TopicID: f.topic.TopicID, Title: "Quiz",
		Questions: []model.Question{
			{QuestionID: uuid.New(), Position: 1, Text: "second", Type: model.QuestionShortAnswer, CorrectAnswer: ptr("b")},
			{QuestionID: uuid.New(), Position: 0, Text: "first", Type: model.QuestionShortAnswer, CorrectAnswer: ptr("a")},
		}}
	require.NoError(t, repo.Create(ctx, db, test))

	t.Run("正常系: 設問は position 順", func(t *testing.T) {
		got, err := repo.FindByTopicID(ctx, db, f.topic.TopicID)
		require.NoError(t, err)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, "first", got.Questions[0].Text)
	})

	t.Run("異常系: 1トピックに2つ目のテスト", func(t *testing.T) {
		err := repo.Create(ctx, db, &model.Test{TestID: uuid.New(), MentorID: f.mentor.UserID, TopicID: f.topic.TopicID, Title: "again"})
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("正常系: 設問の置き換え", func(t *testing.T) {
		err := repo.ReplaceQuestions(ctx, db, test.TestID, "Renamed", []model.Question{
			{QuestionID: uuid.New(), Position: 0, Text: "only", Type: model.QuestionMCQ,
				Options: []model.Option{{OptionID: uuid.New(), Position: 0, Text: "yes", IsCorrect: true}}},
		})
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, db, test.TestID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		require.Len(t, got.Questions, 1)
		require.Len(t, got.Questions[0].Options, 1)
	})

	t.Run("正常系: テストを持つトピック", func(t *testing.T) {
		m, err := repo.TopicIDsWithTests(ctx, db, []uuid.UUID{f.topic.TopicID, uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]uuid.UUID{f.topic.TopicID: test.TestID}, m)
	})

	t.Run("正常系: 削除", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, db, test.TestID))
		_, err := repo.FindByID(ctx, db, test.TestID)
		assert.True(t, errors.Is(err, model.ErrNotFound))
		assert.ErrorIs(t, repo.Delete(ctx, db, test.TestID), model.ErrNotFound)
	})
}

func TestProgressRepository_Upserts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	repo := NewGormProgressRepository()

	require.NoError(t, repo.MarkCompleted(ctx, db, f.student.UserID, f.topic.TopicID))
	got, err := repo.FindByStudentAndTopic(ctx, db, f.student.UserID, f.topic.TopicID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.False(t, got.TestTaken)

	require.NoError(t, repo.SaveTestResult(ctx, db, f.student.UserID, f.topic.TopicID, 62.5, "medium"))
	rows, err := repo.FindByStudent(ctx, db, f.student.UserID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "upsert must not create a second row")
	assert.True(t, rows[0].TestTaken)
	require.NotNil(t, rows[0].TestScore)
	assert.Equal(t, 62.5, *rows[0].TestScore)

	report, err := repo.ListRowsByMentor(ctx, db, f.mentor.UserID)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, f.student.Username, report[0].Username)
	assert.Equal(t, "Math", report[0].SubjectName)
	assert.Equal(t, "Linear equations", report[0].TopicName)

	completion := &model.ScheduleCompletion{CompletionID: uuid.New(), StudentID: f.student.UserID, TopicID: f.topic.TopicID, SuggestedStudyTime: time.Now()}
	require.NoError(t, repo.UpsertCompletion(ctx, db, completion))
	again := &model.ScheduleCompletion{CompletionID: uuid.New(), StudentID: f.student.UserID, TopicID: f.topic.TopicID, SuggestedStudyTime: time.Now()}
	require.NoError(t, repo.UpsertCompletion(ctx, db, again))

	done, err := repo.ListCompletedTopicIDs(ctx, db, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{f.topic.TopicID: true}, done)
}

func TestSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	repo := NewGormSessionRepository()

	s1 := &model.StudySession{SessionID: uuid.New(), StudentID: f.student.UserID, Subject: "Math", StartTime: time.Now().Add(time.Hour)}
	s2 := &model.StudySession{SessionID: uuid.New(), StudentID: f.student.UserID, Subject: "Art", StartTime: time.Now(), Completed: true}
	require.NoError(t, repo.Create(ctx, db, s1))
	require.NoError(t, repo.Create(ctx, db, s2))

	list, err := repo.ListByStudent(ctx, db, f.student.UserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, s2.SessionID, list[0].SessionID)

	counts, err := repo.CountByMentor(ctx, db, f.mentor.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCounts{Completed: 1, Pending: 1}, counts)

	views, err := repo.ListByMentor(ctx, db, f.mentor.UserID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, f.student.Username, views[0].Username)

	require.NoError(t, repo.Update(ctx, db, f.student.UserID, s1.SessionID, map[string]interface{}{"completed": true}))
	got, err := repo.FindByID(ctx, db, f.student.UserID, s1.SessionID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	// 他人のセッションは見えない
	_, err = repo.FindByID(ctx, db, uuid.New(), s1.SessionID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, db, uuid.New(), s1.SessionID), model.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, db, f.student.UserID, s1.SessionID))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: users.username")))
	assert.False(t, isDuplicateKey(errors.New("disk full")))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "schedulr.db?_foreign_keys=on", sqliteDSN("schedulr.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", sqliteDSN("file::memory:?cache=shared"))
	assert.Equal(t, "x.db?_foreign_keys=on", sqliteDSN("x.db?_foreign_keys=on"))
}

func TestMigrate_ForeignKeysPointToParents(t *testing.T) {
	db, err := NewDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	tableSQL := func(name string) string {
		var sql string
		require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&sql).Error)
		return sql
	}
	assert.NotContains(t, tableSQL("subjects"), "REFERENCES")
	assert.Regexp(t, "REFERENCES\\W+subjects", tableSQL("topics"))
	assert.Regexp(t, "REFERENCES\\W+topics", tableSQL("student_progress"))

	// 科目 → トピック → 進捗の順に作成できる
	f := seed(t, db)
	progress := NewGormProgressRepository()
	require.NoError(t, progress.MarkCompleted(ctx, db, f.student.UserID, f.topic.TopicID))

	t.Run("正常系: トピックから科目を Preload できる", func(t *testing.T) {
		got, err := NewGormTopicRepository().FindByID(ctx, db, f.mentor.UserID, f.topic.TopicID)
		require.NoError(t, err)
		require.NotNil(t, got.Subject)
		assert.Equal(t, "Math", got.Subject.Name)
	})

	t.Run("正常系: 進捗からトピックを Preload できる", func(t *testing.T) {
		var got model.StudentProgress
		require.NoError(t, db.Preload("Topic").Where("student_id = ?", f.student.UserID).First(&got).Error)
		require.NotNil(t, got.Topic)
		assert.Equal(t, f.topic.Name, got.Topic.Name)
	})

	t.Run("異常系: 存在しない科目のトピックは作成できない", func(t *testing.T) {
		orphan := &model.Topic{TopicID: uuid.New(), MentorID: f.mentor.UserID, SubjectID: uuid.New(), Unit: "u", Name: "orphan"}
		assert.Error(t, NewGormTopicRepository().Create(ctx, db, orphan))
	})

	t.Run("異常系: 存在しないトピックの進捗は作成できない", func(t *testing.T) {
		assert.Error(t, progress.MarkCompleted(ctx, db, f.student.UserID, uuid.New()))
	})
}
