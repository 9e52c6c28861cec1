package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// WorkoutServiceInterface はワークアウトハンドラーが必要とするサービスインターフェース。
// training.Serviceが満たす。
type WorkoutServiceInterface interface {
	UpdateWorkout(ctx context.Context, workoutID, userID int64, in model.WorkoutInput) (*model.Workout, error)
	SetWorkoutCompleted(ctx context.Context, workoutID, userID int64, completed bool) (*model.Workout, error)
	CurrentWeight(ctx context.Context, workoutID, userID int64) (*float64, error)
	SetCurrentWeight(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error)
	DeleteWorkout(ctx context.Context, workoutID, userID int64) error
	AddLog(ctx context.Context, workoutID, userID int64, in model.LogInput) (*model.Log, error)
	ListLogs(ctx context.Context, workoutID, userID int64) ([]*model.Log, error)
}

// WorkoutHandler はワークアウトと記録のHTTPハンドラー。
type WorkoutHandler struct {
	service WorkoutServiceInterface
}

// NewWorkoutHandler はWorkoutHandlerを生成する。
func NewWorkoutHandler(service WorkoutServiceInterface) *WorkoutHandler {
	return &WorkoutHandler{service: service}
}

// completeWorkoutRequest は完了フラグ更新リクエストのボディ。completedは必須。
type completeWorkoutRequest struct {
	Completed *bool `json:"completed"`
}

// currentWeightRequest は現在の重量更新リクエストのボディ。weightが省略されたらクリアする。
type currentWeightRequest struct {
	Weight *model.FlexFloat `json:"weight"`
}

// logRequest は記録追加リクエストのボディ。weightは必須。
type logRequest struct {
	Series model.FlexInt    `json:"series"`
	Reps   model.FlexInt    `json:"reps"`
	Weight *model.FlexFloat `json:"weight"`
	Date   *time.Time       `json:"date"`
}

// UpdateWorkout はワークアウトを更新する。
// PATCH /workouts/{id}, PUT /workouts/{id}
func (h *WorkoutHandler) UpdateWorkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	var req workoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workout, err := h.service.UpdateWorkout(r.Context(), workoutID, userID, req.input())
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newWorkoutResponse(workout))
}

// DeleteWorkout はワークアウトを削除する。
// DELETE /workouts/{id}
func (h *WorkoutHandler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	if err := h.service.DeleteWorkout(r.Context(), workoutID, userID); err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// Complete はワークアウトの完了フラグを更新する。
// POST /workouts/{id}/complete
func (h *WorkoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	var req completeWorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("completed"))
		return
	}

	workout, err := h.service.SetWorkoutCompleted(r.Context(), workoutID, userID, *req.Completed)
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newWorkoutResponse(workout))
}

// GetCurrentWeight は現在の重量を返す。
// GET /workouts/{id}/current
func (h *WorkoutHandler) GetCurrentWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	weight, err := h.service.CurrentWeight(r.Context(), workoutID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]*float64{"currentWeight": weight})
}

// SetCurrentWeight は現在の重量を更新する。
// POST /workouts/{id}/current
func (h *WorkoutHandler) SetCurrentWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	var req currentWeightRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var weight *float64
	if req.Weight != nil {
		v := float64(*req.Weight)
		weight = &v
	}

	workout, err := h.service.SetCurrentWeight(r.Context(), workoutID, userID, weight)
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newWorkoutResponse(workout))
}

// ListLogs はワークアウトの記録を新しい順で返す。
// GET /workouts/{id}/weights
func (h *WorkoutHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	logs, err := h.service.ListLogs(r.Context(), workoutID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	resp := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, newLogResponse(l))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// AddLog はワークアウトに記録を追加する。
// POST /workouts/{id}/weights
func (h *WorkoutHandler) AddLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := pathID(w, r, "id", model.NewWorkoutNotFoundError())
	if !ok {
		return
	}

	var req logRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Weight == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("weight"))
		return
	}

	l, err := h.service.AddLog(r.Context(), workoutID, userID, model.LogInput{
		Series: int(req.Series),
		Reps:   int(req.Reps),
		Weight: float64(*req.Weight),
		Date:   req.Date,
	})
	if err != nil {
		handleServiceError(w, r, err, model.NewWorkoutNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newLogResponse(l))
}
