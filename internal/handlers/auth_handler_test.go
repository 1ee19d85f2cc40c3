package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schedulr/internal/handlers"
	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(svc *mocks.AuthService) *chi.Mux {
	h := handlers.NewAuthHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/v1/auth/signup", h.Signup)
	r.Post("/api/v1/auth/login", h.Login)
	r.Post("/api/v1/auth/logout", h.Logout)
	r.With(middleware.DevUserContextMiddleware).Get("/api/v1/me", h.GetMe)
	return r
}

func TestAuthHandler_Signup(t *testing.T) {
	code := "abcd1234"
	validReq := model.SignupRequest{Username: "mentor", Password: "password123", Role: model.RoleMentor}
	created := &model.User{UserID: uuid.New(), Username: "mentor", Role: model.RoleMentor, MentorCode: &code, PasswordHash: "secret-hash"}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(svc *mocks.AuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "正常系: 201 とユーザー情報",
			body: validReq,
			setupMock: func(svc *mocks.AuthService) {
				svc.On("Signup", mock.Anything, &validReq).Return(created, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "異常系: パスワードが短い",
			body:           model.SignupRequest{Username: "mentor", Password: "short", Role: model.RoleMentor},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "異常系: 不正なロール",
			body:           model.SignupRequest{Username: "mentor", Password: "password123", Role: "admin"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "異常系: 不正なJSON",
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST_BODY",
		},
		{
			name: "異常系: ユーザー名の重複",
			body: validReq,
			setupMock: func(svc *mocks.AuthService) {
				svc.On("Signup", mock.Anything, &validReq).
					Return(nil, model.NewAppError("DUPLICATE_USERNAME", "Username already exists.", "username", model.ErrConflict)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "DUPLICATE_USERNAME",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewAuthService(t)
			if tc.setupMock != nil {
				tc.setupMock(svc)
			}
			rr := httptest.NewRecorder()
			setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/auth/signup", tc.body, nil, ""))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedCode != "" {
				assert.Equal(t, tc.expectedCode, errorCode(t, rr))
				return
			}
			got := decodeJSON[model.UserResponse](t, rr)
			assert.Equal(t, created.UserID, got.UserID)
			assert.Equal(t, code, *got.MentorCode)
			assert.NotContains(t, rr.Body.String(), "secret-hash")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	req := model.LoginRequest{Username: "alice", Password: "password123"}

	t.Run("正常系: トークンを返す", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		svc.On("Login", mock.Anything, &req).
			Return(&model.LoginResponse{AccessToken: "token", TokenType: "Bearer", ExpiresIn: 900, Role: model.RoleStudent}, nil).Once()

		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/auth/login", req, nil, ""))

		assert.Equal(t, http.StatusOK, rr.Code)
		got := decodeJSON[model.LoginResponse](t, rr)
		assert.Equal(t, "token", got.AccessToken)
		assert.Equal(t, model.RoleStudent, got.Role)
	})

	t.Run("異常系: 認証失敗は400", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		svc.On("Login", mock.Anything, &req).
			Return(nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid username or password.", "", model.ErrInvalidInput)).Once()

		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/auth/login", req, nil, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(t, rr))
	})

	t.Run("異常系: 未知のフィールド", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/auth/login", `{"username":"a","password":"b","otp":"1"}`, nil, ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("異常系: 検証済みトークンが無い", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodPost, "/api/v1/auth/logout", nil, nil, ""))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("正常系: トークンを失効させる", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		userID := uuid.New()
		jti := uuid.NewString()
		claims := &model.JWTCustomClaims{
			Role: model.RoleStudent,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        jti,
				Subject:   userID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		svc.On("Logout", mock.Anything, mock.MatchedBy(func(info middleware.TokenInfo) bool {
			return info.ID == jti && info.ExpiresAt.After(time.Now())
		})).Return(nil).Once()

		r := chi.NewRouter()
		r.With(middleware.JWTAuthMiddleware("test-secret", nil)).Post("/api/v1/auth/logout", handlers.NewAuthHandler(svc).Logout)

		req := newRequest(t, http.MethodPost, "/api/v1/auth/logout", nil, nil, "")
		req.Header.Set("Authorization", "Bearer "+signed)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Logged out.", decodeJSON[map[string]string](t, rr)["message"])
	})
}

func TestAuthHandler_GetMe(t *testing.T) {
	userID := uuid.New()

	t.Run("正常系", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		svc.On("GetUser", mock.Anything, userID).Return(&model.User{UserID: userID, Username: "alice", Role: model.RoleStudent}, nil).Once()

		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/api/v1/me", nil, &userID, model.RoleStudent))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", decodeJSON[model.UserResponse](t, rr).Username)
	})

	t.Run("異常系: ヘッダーなしは401", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/api/v1/me", nil, nil, ""))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("異常系: 削除済みユーザー", func(t *testing.T) {
		svc := mocks.NewAuthService(t)
		svc.On("GetUser", mock.Anything, userID).Return(nil, model.NewAppError("USER_NOT_FOUND", "User not found.", "", model.ErrNotFound)).Once()

		rr := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(rr, newRequest(t, http.MethodGet, "/api/v1/me", nil, &userID, model.RoleStudent))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
