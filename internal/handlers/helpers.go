package handlers

import (
	"log/slog"
	"net/http"

	"schedulr/internal/middleware"
	"schedulr/internal/webutil"

	"github.com/google/uuid"
)

// currentUser はコンテキストから認証済みユーザーIDを取り出す。失敗時はレスポンスを書いて false を返す
func currentUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, *slog.Logger, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return uuid.Nil, logger, false
	}
	return userID, logger.With(slog.String("user_id", userID.String())), true
}

// decodeRequest はボディのデコードとバリデーションを行う
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	if appErr := webutil.DecodeAndValidate(r, dst); appErr != nil {
		logger.Warn("Invalid request body", slog.String("code", appErr.Detail.Code), slog.String("field", appErr.Detail.Field))
		webutil.HandleError(w, logger, appErr)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (uuid.UUID, bool) {
	id, appErr := webutil.URLParamUUID(r, name)
	if appErr != nil {
		logger.Warn("Invalid ID format in URL", slog.String("param", name))
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return id, true
}

func respondMessage(w http.ResponseWriter, logger *slog.Logger, msg string) {
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": msg}, logger)
}
