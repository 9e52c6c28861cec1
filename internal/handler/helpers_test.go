package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mpfit/internal/middleware"
)

// jsonBody は文字列をそのままリクエストボディにする。
func jsonBody(t *testing.T, s string) io.Reader {
	t.Helper()
	return strings.NewReader(s)
}

// encodeBody はvをJSONにしてリクエストボディにする。
func encodeBody(t *testing.T, v any) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return &buf
}

// serve はpatternでhを登録したchiルーターにリクエストを送る。
// userIDが0より大きければ認証済みのコンテキストを設定する。
func serve(method, pattern string, h http.HandlerFunc, req *http.Request, userID int64) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	if userID > 0 {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
