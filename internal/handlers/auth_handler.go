package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/service"
	"schedulr/internal/webutil"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Signup は学生・メンターを登録します
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "Signup"))

	var req model.SignupRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	user, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Signup request successful", slog.String("user_id", user.UserID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.NewUserResponse(user), logger)
}

// Login はユーザーを認証し、JWTを返します
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "Login"))

	var req model.LoginRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	loginResponse, err := h.service.Login(r.Context(), &req)
	if err != nil {
		// サービス層でログは出力済み
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, loginResponse, logger)
}

// Logout は現在のトークンを失効させます
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "Logout"))

	token, ok := middleware.GetTokenFromContext(r.Context())
	if !ok {
		logger.Warn("Logout without a verified token")
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authentication information was not found.", "", model.ErrUnauthorized))
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	respondMessage(w, logger, "Logged out.")
}

// GetMe は認証済みユーザー自身の情報を返します
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With(slog.String("handler", "GetMe"))

	userID, logger, ok := currentUser(w, r, logger)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, model.NewUserResponse(user), logger)
}
