package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// requireUserID はセッションミドルウェアが注入したユーザーIDを返す。
// 取得できなければ401を書き込んでfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return 0, false
	}
	return userID, true
}

// pathID はURLパラメータのIDを正の整数として解析する。
// 数値でないIDは存在しない対象として扱い、notFoundを書き込む。
func pathID(w http.ResponseWriter, r *http.Request, name string, notFound *model.APIError) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusNotFound, notFound)
		return 0, false
	}
	return id, true
}

// decodeJSON はリクエストボディをvにデコードする。
// 空のボディは空のJSONオブジェクトとして扱う。失敗時は400を書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, model.ErrNumberOutOfRange) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidFieldError("number"))
		return false
	}
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
	return false
}
