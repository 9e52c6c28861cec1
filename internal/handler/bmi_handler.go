package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// BMIServiceInterface はBMIハンドラーが必要とするサービスインターフェース。
type BMIServiceInterface interface {
	AddBMI(ctx context.Context, userID int64, in model.BMIInput) (*model.BMIRecord, error)
	ListBMI(ctx context.Context, userID int64) ([]*model.BMIRecord, error)
	DeleteBMI(ctx context.Context, id, userID int64) error
	ClearBMI(ctx context.Context, userID int64) error
}

// BMIHandler はBMI記録のHTTPハンドラー。
type BMIHandler struct {
	service BMIServiceInterface
}

// NewBMIHandler はBMIHandlerを生成する。
func NewBMIHandler(service BMIServiceInterface) *BMIHandler {
	return &BMIHandler{service: service}
}

// bmiRequest はBMI記録追加リクエストのボディ。
type bmiRequest struct {
	Weight model.FlexFloat `json:"weight"`
	Height model.FlexFloat `json:"height"`
	BMI    model.FlexFloat `json:"bmi"`
	Date   *time.Time      `json:"date"`
}

// List はBMI記録を新しい順で返す。
// GET /imc
func (h *BMIHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListBMI(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	resp := make([]bmiResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, newBMIResponse(rec))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Add はBMI記録を追加する。
// POST /imc
func (h *BMIHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req bmiRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.service.AddBMI(r.Context(), userID, model.BMIInput{
		Weight: float64(req.Weight),
		Height: float64(req.Height),
		BMI:    float64(req.BMI),
		Date:   req.Date,
	})
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newBMIResponse(rec))
}

// Clear はユーザーのBMI記録をすべて削除する。
// DELETE /imc
func (h *BMIHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearBMI(r.Context(), userID); err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

// Delete はBMI記録を1件削除する。
// DELETE /imc/{id}
func (h *BMIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", model.NewRecordNotFoundError())
	if !ok {
		return
	}

	if err := h.service.DeleteBMI(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err, model.NewRecordNotFoundError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}
