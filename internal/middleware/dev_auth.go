// internal/middleware/dev_auth.go
package middleware

import (
	"context"
	"net/http"

	"schedulr/internal/model"
	"schedulr/internal/webutil"

	"github.com/google/uuid"
)

// DevUserContextMiddleware は開発・テスト用のミドルウェアです。
// X-User-ID / X-User-Role ヘッダーをそのままコンテキストに設定します。トークン検証もDBでの存在確認もしません。
func DevUserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLogger(r.Context())

		rawID := r.Header.Get("X-User-ID")
		if rawID == "" {
			logger.Warn("[DEV AUTH] Failed: X-User-ID header missing")
			webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "[DEV] X-User-ID header is required.", "", model.ErrUnauthorized))
			return
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			logger.Warn("[DEV AUTH] Failed: invalid X-User-ID", "value", rawID)
			webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "[DEV] X-User-ID must be a UUID.", "", model.ErrUnauthorized))
			return
		}

		role := model.Role(r.Header.Get("X-User-Role"))
		if !role.IsValid() {
			role = model.RoleStudent
		}

		ctx := context.WithValue(r.Context(), model.UserIDKey, userID)
		ctx = context.WithValue(ctx, model.RoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
