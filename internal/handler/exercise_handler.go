package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// ExerciseServiceInterface は種目カタログハンドラーが必要とするサービスインターフェース。
// 書き込み操作の権限確認はサービス側で行う。
type ExerciseServiceInterface interface {
	ListExercises(ctx context.Context, search string) ([]*model.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*model.Exercise, error)
	CreateExercise(ctx context.Context, userID int64, in model.ExerciseInput) (*model.Exercise, error)
	UpdateExercise(ctx context.Context, userID, id int64, in model.ExerciseInput) (*model.Exercise, error)
	DeleteExercise(ctx context.Context, userID, id int64) error
}

// ExerciseHandler は種目カタログのHTTPハンドラー。
type ExerciseHandler struct {
	service ExerciseServiceInterface
}

// NewExerciseHandler はExerciseHandlerを生成する。
func NewExerciseHandler(service ExerciseServiceInterface) *ExerciseHandler {
	return &ExerciseHandler{service: service}
}

type exerciseRequest struct {
	Name         string `json:"name"`
	TargetMuscle string `json:"targetMuscle"`
	Equipment    string `json:"equipment"`
	ImagePath    string `json:"imagePath"`
	Description  string `json:"description"`
}

func (req exerciseRequest) input() model.ExerciseInput {
	return model.ExerciseInput(req)
}

// List は種目一覧を返す。searchクエリで名前・部位・器具を部分一致検索する。
// GET /exercises?search=xxx
func (h *ExerciseHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	exercises, err := h.service.ListExercises(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	resp := make([]exerciseResponse, 0, len(exercises))
	for _, e := range exercises {
		resp = append(resp, newExerciseResponse(e))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Get は種目を1件返す。
// GET /exercises/{id}
func (h *ExerciseHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id", model.NewExerciseNotFoundError())
	if !ok {
		return
	}

	ex, err := h.service.GetExercise(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, model.NewExerciseNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newExerciseResponse(ex))
}

// Create は種目を作成する。管理者のみ。
// POST /exercises
func (h *ExerciseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req exerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ex, err := h.service.CreateExercise(r.Context(), userID, req.input())
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newExerciseResponse(ex))
}

// Update は種目を更新する。管理者のみ。
// PUT /exercises/{id}
func (h *ExerciseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", model.NewExerciseNotFoundError())
	if !ok {
		return
	}

	var req exerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ex, err := h.service.UpdateExercise(r.Context(), userID, id, req.input())
	if err != nil {
		handleServiceError(w, r, err, model.NewExerciseNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newExerciseResponse(ex))
}

// Delete は種目を削除する。管理者のみ。
// DELETE /exercises/{id}
func (h *ExerciseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", model.NewExerciseNotFoundError())
	if !ok {
		return
	}

	if err := h.service.DeleteExercise(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err, model.NewExerciseNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
