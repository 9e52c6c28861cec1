package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/training"
)

// AssistantServiceInterface はアシスタントによるDay生成の操作。
type AssistantServiceInterface interface {
	GenerateDay(ctx context.Context, userID int64, in training.GenerateInput) (*training.GeneratedDay, error)
}

// AssistantHandler はワークアウト自動生成のHTTPハンドラー。
type AssistantHandler struct {
	service AssistantServiceInterface
}

// NewAssistantHandler はAssistantHandlerを生成する。
func NewAssistantHandler(service AssistantServiceInterface) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// generateRequest は体重(kg)、身長(cm)、対象部位。
type generateRequest struct {
	Weight model.FlexFloat `json:"weight"`
	Height model.FlexFloat `json:"height"`
	Muscle string          `json:"muscle"`
}

type generatedDayResponse struct {
	Day      dayResponse       `json:"day"`
	Workouts []workoutResponse `json:"workouts"`
}

// Generate は対象部位の種目から新しいDayを作成する。
// POST /assistant/generate
func (h *AssistantHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	got, err := h.service.GenerateDay(r.Context(), userID, training.GenerateInput{
		Weight: float64(req.Weight),
		Height: float64(req.Height),
		Muscle: req.Muscle,
	})
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, generatedDayResponse{
		Day:      newDayResponse(got.Day),
		Workouts: newWorkoutResponses(got.Workouts),
	})
}
