package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"schedulr/internal/model"
	"schedulr/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RevocationChecker はログアウト済みトークン(jti)かどうかを判定します
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type tokenCtxKey struct{}

// TokenInfo は検証済みトークンから取り出した情報です
type TokenInfo struct {
	ID        string
	ExpiresAt time.Time
}

// JWTAuthMiddleware は Authorization ヘッダーの Bearer トークンを検証するミドルウェア。
// 成功するとユーザーID・ロール・トークン情報をコンテキストにセットする。
func JWTAuthMiddleware(secretKey string, revoked RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("JWT auth failed: Authorization header missing")
				webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authorization header is required.", "", model.ErrUnauthorized))
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				logger.Warn("JWT auth failed: Invalid Authorization header format")
				webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authorization header must be 'Bearer <token>'.", "", model.ErrUnauthorized))
				return
			}

			claims := &model.JWTCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(secretKey), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				logger.Warn("JWT auth failed: Invalid token", "error", err)
				msg := "The token is invalid."
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "The token has expired."
				}
				webutil.HandleError(w, logger, model.NewAppError("INVALID_TOKEN", msg, "", model.ErrUnauthorized))
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				logger.Warn("JWT auth failed: Invalid subject (sub) format", "subject", claims.Subject, "error", err)
				webutil.HandleError(w, logger, model.NewAppError("INVALID_TOKEN", "The token does not identify a user.", "", model.ErrUnauthorized))
				return
			}
			if !claims.Role.IsValid() {
				logger.Warn("JWT auth failed: Invalid role claim", "role", claims.Role)
				webutil.HandleError(w, logger, model.NewAppError("INVALID_TOKEN", "The token has an invalid role.", "", model.ErrUnauthorized))
				return
			}

			if revoked != nil && claims.ID != "" {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("JWT auth failed: revocation check failed", "error", err)
					webutil.HandleError(w, logger, model.NewInternalError("", err))
					return
				}
				if isRevoked {
					logger.Warn("JWT auth failed: token revoked", "jti", claims.ID)
					webutil.HandleError(w, logger, model.NewAppError("TOKEN_REVOKED", "The token has been revoked.", "", model.ErrUnauthorized))
					return
				}
			}

			info := TokenInfo{ID: claims.ID}
			if claims.ExpiresAt != nil {
				info.ExpiresAt = claims.ExpiresAt.Time
			}

			ctx := context.WithValue(r.Context(), model.UserIDKey, userID)
			ctx = context.WithValue(ctx, model.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, tokenCtxKey{}, info)
			ctx = WithLogger(ctx, logger.With("user_id", userID.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole は指定ロール以外のユーザーを 403 で拒否します。JWTAuthMiddleware の後に置くこと。
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())
			role, err := GetRoleFromContext(r.Context())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.Warn("Access denied for role", "role", role, "path", r.URL.Path)
			webutil.HandleError(w, logger, model.NewAppError("FORBIDDEN", "You do not have permission to access this resource.", "", model.ErrForbidden))
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, model.NewAppError("UNAUTHORIZED", "Authentication information was not found.", "", model.ErrUnauthorized)
	}
	return value, nil
}

func GetRoleFromContext(ctx context.Context) (model.Role, error) {
	value, ok := ctx.Value(model.RoleKey).(model.Role)
	if !ok {
		return "", model.NewAppError("UNAUTHORIZED", "Authentication information was not found.", "", model.ErrUnauthorized)
	}
	return value, nil
}

func GetTokenFromContext(ctx context.Context) (TokenInfo, bool) {
	info, ok := ctx.Value(tokenCtxKey{}).(TokenInfo)
	return info, ok
}
