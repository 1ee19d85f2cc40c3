package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"schedulr/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newRequest はテスト用リクエストを作る。userID が nil なら認証ヘッダーを付けない
func newRequest(t *testing.T, method, path string, body interface{}, userID *uuid.UUID, role model.Role) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
		req.Header.Set("X-User-Role", string(role))
	}
	return req
}

// decodeJSON はレスポンスボディを T にデコードする
func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// errorCode はエラーレスポンスの code を返す
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeJSON[model.APIErrorResponse](t, rr).Error.Code
}
