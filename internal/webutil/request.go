package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"schedulr/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxBodyBytes はJSONボディの上限 (カリキュラムYAMLは別扱い)
const maxBodyBytes = 1 << 20

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is empty", model.ErrInvalidInput)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", model.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return nil
}

// DecodeAndValidate はボディをデコードしてバリデーションまで行い、失敗時はクライアント向けの AppError を返します
func DecodeAndValidate(r *http.Request, dst interface{}) *model.AppError {
	if err := DecodeJSONBody(r, dst); err != nil {
		return model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", err)
	}
	if err := Validator.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// 最初のエラーを代表としてクライアントに返す
			firstErr := validationErrors[0]
			return model.NewAppError("VALIDATION_ERROR", firstErr.Translate(Trans), firstErr.Field(), model.ErrInvalidInput)
		}
		return model.NewInternalError("", err)
	}
	return nil
}

// URLParamUUID はURLパラメータをUUIDとして取り出します
func URLParamUUID(r *http.Request, name string) (uuid.UUID, *model.AppError) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_URL_PARAM", fmt.Sprintf("%s must be a valid UUID.", name), name, model.ErrInvalidInput)
	}
	return id, nil
}
