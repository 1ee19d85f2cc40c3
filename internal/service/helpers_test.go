package service

import (
	"context"
	"testing"

	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv は実際の gorm リポジトリとインメモリ sqlite でサービスを組み立てる
type testEnv struct {
	db           *gorm.DB
	users        repository.UserRepository
	subjects     repository.SubjectRepository
	topics       repository.TopicRepository
	tests        repository.TestRepository
	progress     repository.ProgressRepository
	sessions     repository.SessionRepository
	mentor       *model.User
	student      *model.User
	curriculum   CurriculumService
	testSvc      TestService
	planSvc      *planService
	dashboardSvc *dashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 共有キャッシュのテーブルロックを避けるため接続は1本
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))

	env := &testEnv{
		db:       db,
		users:    repository.NewGormUserRepository(),
		subjects: repository.NewGormSubjectRepository(),
		topics:   repository.NewGormTopicRepository(),
		tests:    repository.NewGormTestRepository(),
		progress: repository.NewGormProgressRepository(),
		sessions: repository.NewGormSessionRepository(),
	}
	env.curriculum = NewCurriculumService(db, env.subjects, env.topics)
	env.testSvc = NewTestService(db, env.tests, env.topics, env.users, env.progress)
	env.planSvc = NewPlanService(db, env.users, env.subjects, env.topics, env.tests, env.progress, 0.5).(*planService)
	env.dashboardSvc = NewDashboardService(db, env.users, env.subjects, env.sessions, env.progress, env.planSvc).(*dashboardService)

	ctx := context.Background()
	code := "abcd1234"
	env.mentor = &model.User{UserID: uuid.New(), Username: "mentor", PasswordHash: "x", Role: model.RoleMentor, MentorCode: &code}
	require.NoError(t, env.users.Create(ctx, db, env.mentor))
	env.student = &model.User{UserID: uuid.New(), Username: "student", PasswordHash: "x", Role: model.RoleStudent, MentorID: &env.mentor.UserID}
	require.NoError(t, env.users.Create(ctx, db, env.student))
	return env
}

func (env *testEnv) subject(t *testing.T, name string, examDate *string) *model.Subject {
	t.Helper()
	s, err := env.curriculum.CreateSubject(context.Background(), env.mentor.UserID, &model.SubjectRequest{Name: name, ExamDate: examDate})
	require.NoError(t, err)
	return s
}

func (env *testEnv) topic(t *testing.T, subjectID uuid.UUID, unit, name string) *model.Topic {
	t.Helper()
	topic, err := env.curriculum.CreateTopic(context.Background(), env.mentor.UserID, &model.TopicRequest{SubjectID: subjectID, Unit: unit, Name: name})
	require.NoError(t, err)
	return topic
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
