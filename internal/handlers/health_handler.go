package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"schedulr/internal/middleware"
	"schedulr/internal/webutil"

	"gorm.io/gorm"
)

// Pinger はヘルスチェックで疎通を確認する依存 (redis など)
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db     *gorm.DB
	extras map[string]Pinger
}

// NewHealthHandler は DB と任意の追加依存を確認するハンドラを返す。extras は nil でも良い
func NewHealthHandler(db *gorm.DB, extras map[string]Pinger) *HealthHandler {
	return &HealthHandler{db: db, extras: extras}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("Health check failed: could not ping DB", slog.Any("error", err))
		status["database"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	for name, p := range h.extras {
		if err := p.HealthCheck(ctx); err != nil {
			logger.Error("Health check failed", slog.String("dependency", name), slog.Any("error", err))
			status[name] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	webutil.RespondWithJSON(w, code, status, logger)
}
