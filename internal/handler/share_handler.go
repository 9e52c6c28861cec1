package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/share"
)

// TemplateServiceInterface は共有コードからの参照・複製の操作。share.Engineが満たす。
type TemplateServiceInterface interface {
	Preview(ctx context.Context, code string) (*share.Template, error)
	Clone(ctx context.Context, code string, targetUserID int64) (*model.Day, error)
}

// ShareHandler は共有コードのHTTPハンドラー。
type ShareHandler struct {
	service TemplateServiceInterface
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(service TemplateServiceInterface) *ShareHandler {
	return &ShareHandler{service: service}
}

type templateWorkoutResponse struct {
	Name        string `json:"name"`
	PlannedSets int    `json:"plannedSets"`
	PlannedReps int    `json:"plannedReps"`
}

type templateResponse struct {
	Code      string                    `json:"code"`
	Name      string                    `json:"name"`
	Subtitle  string                    `json:"subtitle"`
	OwnerName string                    `json:"ownerName"`
	Workouts  []templateWorkoutResponse `json:"workouts"`
}

// Preview は共有コードのDay内容を返す。
// GET /share/{code}
func (h *ShareHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	code := shareCodeParam(r)

	tmpl, err := h.service.Preview(r.Context(), code)
	if err != nil {
		handleServiceError(w, r, err, model.NewShareCodeNotFoundError(code))
		return
	}

	resp := templateResponse{
		Code:      tmpl.Code,
		Name:      tmpl.Name,
		Subtitle:  tmpl.Subtitle,
		OwnerName: tmpl.OwnerName,
		Workouts:  make([]templateWorkoutResponse, 0, len(tmpl.Workouts)),
	}
	for _, tw := range tmpl.Workouts {
		resp.Workouts = append(resp.Workouts, templateWorkoutResponse{
			Name:        tw.Name,
			PlannedSets: tw.PlannedSets,
			PlannedReps: tw.PlannedReps,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Clone は共有コードのDayを呼び出しユーザーのDayとして複製する。
// POST /share/{code}/clone
func (h *ShareHandler) Clone(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	code := shareCodeParam(r)

	day, err := h.service.Clone(r.Context(), code, userID)
	if err != nil {
		handleServiceError(w, r, err, model.NewShareCodeNotFoundError(code))
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newDayResponse(day))
}

// shareCodeParam はURLの共有コードを大文字に揃えて返す。
func shareCodeParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
}
