//go:build integration

package handlers_test

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"schedulr/internal/config"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// startPostgres は postgres コンテナを起動し、マイグレーション済みの DB を返す。
// devcontainer からは TEST_DB_HOST=host.docker.internal を指定する
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not construct pool")
	pool.MaxWait = 120 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=user",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=schedulr",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL resource")
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			logger.Warn("Could not purge resource", slog.Any("error", err))
		}
	})

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := resource.GetPort("5432/tcp")
	require.NotEmpty(t, port, "Could not get mapped port for 5432/tcp")
	url := fmt.Sprintf("postgres://user:secret@%s:%s/schedulr?sslmode=disable", host, port)
	logger.Info("PostgreSQL container started", slog.String("container_id_short", resource.Container.ID[:12]), slog.String("port", port))

	// lib/pq で起動完了を待ってから gorm で接続する
	err = pool.Retry(func() error {
		sqlDB, err := sql.Open("postgres", url)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return sqlDB.Ping()
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	db, err := repository.NewDB(config.DatabaseConfig{Driver: config.DriverPostgres, URL: url}, logger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))
	return db
}

func TestIntegration_Postgres(t *testing.T) {
	db := startPostgres(t)
	env := &apiEnv{router: buildRouter(t, db), db: db}

	mentor, mentorToken := env.signupAndLogin(t, model.SignupRequest{Username: "mentor", Password: "password123", Role: model.RoleMentor})
	_, studentToken := env.signupAndLogin(t, model.SignupRequest{
		Username: "alice", Password: "password123", Role: model.RoleStudent, MentorCode: *mentor.MentorCode,
	})

	t.Run("異常系: ユーザー名の重複は409", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/v1/auth/signup", model.SignupRequest{Username: "alice", Password: "password123", Role: model.RoleMentor}, "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("正常系: 科目とトピックからプランを作る", func(t *testing.T) {
		examDate := time.Now().UTC().AddDate(0, 0, 3).Format(model.DateLayout)
		rr := env.do(t, http.MethodPost, "/api/v1/mentor/subjects", model.SubjectRequest{Name: "Chemistry", ExamDate: &examDate}, mentorToken)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		subject := decodeJSON[model.Subject](t, rr)

		rr = env.do(t, http.MethodPost, "/api/v1/mentor/subjects", model.SubjectRequest{Name: "Chemistry"}, mentorToken)
		assert.Equal(t, http.StatusConflict, rr.Code)

		rr = env.do(t, http.MethodPost, "/api/v1/mentor/topics", model.TopicRequest{SubjectID: subject.SubjectID, Unit: "Bonds", Name: "Covalent bonds"}, mentorToken)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		topic := decodeJSON[model.Topic](t, rr)

		rr = env.do(t, http.MethodGet, "/api/v1/student/plan", nil, studentToken)
		require.Equal(t, http.StatusOK, rr.Code)
		plan := decodeJSON[[]model.StudyPlanEntry](t, rr)
		require.Len(t, plan, 1)
		assert.Equal(t, topic.TopicID, plan[0].TopicID)
		assert.Equal(t, "Chemistry", plan[0].SubjectName)

		rr = env.do(t, http.MethodPost, "/api/v1/student/plan/"+topic.TopicID.String()+"/complete", nil, studentToken)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = env.do(t, http.MethodGet, "/api/v1/student/plan", nil, studentToken)
		require.Equal(t, http.StatusOK, rr.Code)
		plan = decodeJSON[[]model.StudyPlanEntry](t, rr)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Acknowledged)

		rr = env.do(t, http.MethodPost, "/api/v1/student/topics/"+topic.TopicID.String()+"/complete", nil, studentToken)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = env.do(t, http.MethodGet, "/api/v1/student/plan", nil, studentToken)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeJSON[[]model.StudyPlanEntry](t, rr))
	})
}
