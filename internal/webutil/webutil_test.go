package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"schedulr/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("repo: %w", model.ErrNotFound), http.StatusNotFound},
		{"invalid input", model.NewAppError("X", "x", "", model.ErrInvalidInput), http.StatusBadRequest},
		{"conflict", model.NewAppError("X", "x", "", model.ErrConflict), http.StatusConflict},
		{"unauthorized", model.NewAppError("X", "x", "", model.ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", model.NewAppError("X", "x", "", model.ErrForbidden), http.StatusForbidden},
		{"internal wins over cause", model.NewInternalError("", model.ErrNotFound), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("AppError の詳細がそのまま返る", func(t *testing.T) {
		rr := httptest.NewRecorder()
		HandleError(rr, discardLogger, model.NewAppError("DUPLICATE_USERNAME", "taken", "username", model.ErrConflict))

		assert.Equal(t, http.StatusConflict, rr.Code)
		var resp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "DUPLICATE_USERNAME", resp.Error.Code)
		assert.Equal(t, "username", resp.Error.Field)
	})

	t.Run("予期しないエラーは詳細を隠す", func(t *testing.T) {
		rr := httptest.NewRecorder()
		HandleError(rr, nil, errors.New("secret db detail"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret db detail")
		assert.Contains(t, rr.Body.String(), "INTERNAL_SERVER_ERROR")
	})
}

type sampleRequest struct {
	Name string `json:"name" validate:"required,max=5"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{"正常系", `{"name":"abc","date":"2026-10-20"}`, "", ""},
		{"空ボディ", ``, "INVALID_REQUEST_BODY", ""},
		{"不正なJSON", `{"name":`, "INVALID_REQUEST_BODY", ""},
		{"未知のフィールド", `{"name":"abc","extra":1}`, "INVALID_REQUEST_BODY", ""},
		{"必須項目なし", `{"date":"2026-10-20"}`, "VALIDATION_ERROR", "name"},
		{"日付形式が不正", `{"name":"abc","date":"20/10/2026"}`, "VALIDATION_ERROR", "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sampleRequest
			appErr := DecodeAndValidate(req, &dst)
			if tt.wantCode == "" {
				require.Nil(t, appErr)
				assert.Equal(t, "abc", dst.Name)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Detail.Code)
			assert.Equal(t, tt.wantField, appErr.Detail.Field)
			assert.True(t, errors.Is(appErr, model.ErrInvalidInput))
		})
	}
}

func TestValidationMessagesAreTranslated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	var dst sampleRequest
	appErr := DecodeAndValidate(req, &dst)
	require.NotNil(t, appErr)
	assert.Equal(t, "name is required.", appErr.Detail.Message)
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	r := chi.NewRouter()
	var got uuid.UUID
	var gotErr *model.AppError
	r.Get("/items/{item_id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = URLParamUUID(r, "item_id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id.String(), nil))
	require.Nil(t, gotErr)
	assert.Equal(t, id, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
	require.NotNil(t, gotErr)
	assert.Equal(t, "item_id", gotErr.Detail.Field)
}
