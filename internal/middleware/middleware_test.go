package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"schedulr/internal/model"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims model.JWTCustomClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(userID uuid.UUID, role model.Role) model.JWTCustomClaims {
	return model.JWTCustomClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	claims := validClaims(userID, model.RoleMentor)
	good := signToken(t, jwt.SigningMethodHS256, testSecret, claims)

	expired := validClaims(userID, model.RoleStudent)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	badRole := validClaims(userID, model.Role("admin"))
	badSub := validClaims(userID, model.RoleStudent)
	badSub.Subject = "not-a-uuid"

	revoked := &fakeRevocations{revoked: map[string]bool{claims.ID: true}}

	tests := []struct {
		name       string
		header     string
		checker    RevocationChecker
		wantStatus int
		wantCode   string
	}{
		{"正常系", "Bearer " + good, nil, http.StatusOK, ""},
		{"小文字の bearer も受け付ける", "bearer " + good, &fakeRevocations{}, http.StatusOK, ""},
		{"ヘッダーなし", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"形式不正", "Token " + good, nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"署名キー違い", "Bearer " + signToken(t, jwt.SigningMethodHS256, "other", claims), nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"アルゴリズム違い", "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, claims), nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"期限切れ", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, expired), nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"ロール不正", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, badRole), nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"subject 不正", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, badSub), nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"失効済み", "Bearer " + good, revoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"失効確認エラー", "Bearer " + good, &fakeRevocations{err: errors.New("redis down")}, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser uuid.UUID
			var gotRole model.Role
			var gotToken TokenInfo
			h := JWTAuthMiddleware(testSecret, tt.checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var err error
				gotUser, err = GetUserIDFromContext(r.Context())
				require.NoError(t, err)
				gotRole, err = GetRoleFromContext(r.Context())
				require.NoError(t, err)
				gotToken, _ = GetTokenFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				assert.Contains(t, rr.Body.String(), tt.wantCode)
				return
			}
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, model.RoleMentor, gotRole)
			assert.Equal(t, claims.ID, gotToken.ID)
			assert.WithinDuration(t, claims.ExpiresAt.Time, gotToken.ExpiresAt, time.Second)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r := chi.NewRouter()
	r.Use(DevUserContextMiddleware)
	r.With(RequireRole(model.RoleMentor)).Get("/mentor", ok)
	r.With(RequireRole(model.RoleStudent, model.RoleMentor)).Get("/any", ok)

	tests := []struct {
		path, role string
		want       int
	}{
		{"/mentor", "mentor", http.StatusOK},
		{"/mentor", "student", http.StatusForbidden},
		{"/any", "student", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("X-User-ID", uuid.NewString())
		req.Header.Set("X-User-Role", tt.role)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, tt.want, rr.Code, "%s as %s", tt.path, tt.role)
	}

	// コンテキストにロールが無い場合は 401
	rr := httptest.NewRecorder()
	RequireRole(model.RoleMentor)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDevUserContextMiddleware_MissingHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	DevUserContextMiddleware(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		// ハンドラからもリクエストスコープのロガーが取れる
		GetLogger(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"hunter22"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"msg":"inside handler"`)
	assert.Contains(t, out, `"msg":"Request completed"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"req_id"`)
	assert.Contains(t, out, "[SENSITIVE]")
	assert.NotContains(t, out, "secret-token")
	assert.NotContains(t, out, "hunter22")
}

func TestGetLogger_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), GetLogger(context.Background()))
}
