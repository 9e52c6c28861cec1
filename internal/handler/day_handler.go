package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// DayServiceInterface はトレーニング日ハンドラーが必要とするサービスインターフェース。
// training.Serviceが満たす。
type DayServiceInterface interface {
	ListDays(ctx context.Context, userID int64) ([]*model.Day, error)
	CreateDay(ctx context.Context, userID int64, name, subtitle string) (*model.Day, error)
	DeleteDay(ctx context.Context, dayID, userID int64) error
	ListWorkouts(ctx context.Context, dayID, userID int64) ([]*model.Workout, error)
	AddWorkout(ctx context.Context, dayID, userID int64, in model.WorkoutInput) (*model.Workout, error)
	ReorderWorkouts(ctx context.Context, dayID, userID int64, orderedIDs []int64) error
}

// SessionTimerInterface はセッションタイマーの操作。timer.Engineが満たす。
type SessionTimerInterface interface {
	Start(ctx context.Context, dayID, userID int64) (*model.Day, error)
	Cancel(ctx context.Context, dayID, userID int64) (*model.Day, error)
	Complete(ctx context.Context, dayID, userID int64) (*model.Day, error)
}

// DaySharerInterface はDayの共有コード操作。share.Engineが満たす。
type DaySharerInterface interface {
	Share(ctx context.Context, dayID, userID int64) (string, error)
	Revoke(ctx context.Context, dayID, userID int64) (bool, error)
}

// DayHandler はトレーニング日のHTTPハンドラー。
type DayHandler struct {
	service DayServiceInterface
	timer   SessionTimerInterface
	sharer  DaySharerInterface
}

// NewDayHandler はDayHandlerを生成する。
func NewDayHandler(service DayServiceInterface, timer SessionTimerInterface, sharer DaySharerInterface) *DayHandler {
	return &DayHandler{
		service: service,
		timer:   timer,
		sharer:  sharer,
	}
}

// createDayRequest はトレーニング日作成リクエストのボディ。
type createDayRequest struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
}

// startDayRequest はセッション開始リクエストのボディ。cancelがtrueなら取り消す。
type startDayRequest struct {
	Cancel bool `json:"cancel"`
}

// workoutRequest はワークアウト作成・更新リクエストのボディ。
// 数値は文字列や空文字列も受け付ける。
type workoutRequest struct {
	Name        string        `json:"name"`
	PlannedSets model.FlexInt `json:"plannedSets"`
	PlannedReps model.FlexInt `json:"plannedReps"`
	Youtube     *string       `json:"youtube"`
}

func (req workoutRequest) input() model.WorkoutInput {
	return model.WorkoutInput{
		Name:        req.Name,
		PlannedSets: int(req.PlannedSets),
		PlannedReps: int(req.PlannedReps),
		Youtube:     req.Youtube,
	}
}

// reorderRequest は並べ替えリクエストのボディ。
type reorderRequest struct {
	OrderedIDs *[]model.FlexInt `json:"orderedIds"`
}

// ListDays はユーザーのトレーニング日一覧を返す。
// GET /days
func (h *DayHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	days, err := h.service.ListDays(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newDayResponses(days))
}

// CreateDay はトレーニング日を作成する。
// POST /days
func (h *DayHandler) CreateDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	day, err := h.service.CreateDay(r.Context(), userID, req.Name, req.Subtitle)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newDayResponse(day))
}

// DeleteDay はトレーニング日を削除する。
// DELETE /days/{id}
func (h *DayHandler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	if err := h.service.DeleteDay(r.Context(), dayID, userID); err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Start はセッションを開始する。ボディが{"cancel": true}なら開始を取り消す。
// POST /days/{id}/start
func (h *DayHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	var req startDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		day *model.Day
		err error
	)
	if req.Cancel {
		day, err = h.timer.Cancel(r.Context(), dayID, userID)
	} else {
		day, err = h.timer.Start(r.Context(), dayID, userID)
	}
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newDayResponse(day))
}

// Complete はセッションを完了する。
// POST /days/{id}/complete
func (h *DayHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	day, err := h.timer.Complete(r.Context(), dayID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newDayResponse(day))
}

// Share は共有コードを発行する。
// POST /days/{id}/share
func (h *DayHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	code, err := h.sharer.Share(r.Context(), dayID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"shareCode": code})
}

// Unshare は共有コードを取り消す。
// DELETE /days/{id}/share
func (h *DayHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	revoked, err := h.sharer.Revoke(r.Context(), dayID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}
	if !revoked {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

// ListWorkouts はDayのワークアウトを並び順で返す。
// GET /days/{id}/workouts
func (h *DayHandler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	workouts, err := h.service.ListWorkouts(r.Context(), dayID, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newWorkoutResponses(workouts))
}

// AddWorkout はDayの末尾にワークアウトを追加する。
// POST /days/{id}/workouts
func (h *DayHandler) AddWorkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	var req workoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workout, err := h.service.AddWorkout(r.Context(), dayID, userID, req.input())
	if err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newWorkoutResponse(workout))
}

// ReorderWorkouts はワークアウトの並び順を更新する。
// POST /days/{id}/workouts/reorder
func (h *DayHandler) ReorderWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dayID, ok := pathID(w, r, "id", model.NewDayNotFoundError())
	if !ok {
		return
	}

	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderedIDs == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("orderedIds"))
		return
	}

	ids := make([]int64, 0, len(*req.OrderedIDs))
	for _, id := range *req.OrderedIDs {
		ids = append(ids, int64(id))
	}

	if err := h.service.ReorderWorkouts(r.Context(), dayID, userID, ids); err != nil {
		handleServiceError(w, r, err, model.NewDayNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
