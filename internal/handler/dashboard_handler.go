package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mpfit/internal/dashboard"
	"github.com/hitoshi/mpfit/internal/middleware"
)

// DashboardServiceInterface はダッシュボード集計の操作。dashboard.Serviceが満たす。
type DashboardServiceInterface interface {
	Summary(ctx context.Context, userID int64) (*dashboard.Summary, error)
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

type weeklyPointResponse struct {
	Date     string  `json:"date"`
	Volume   float64 `json:"volume"`
	Sessions int     `json:"sessions"`
}

type recentDayResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Subtitle  string `json:"subtitle"`
	Completed bool   `json:"completed"`
}

type summaryResponse struct {
	TotalDays          int                   `json:"totalDays"`
	CompletedDays      int                   `json:"completedDays"`
	TotalWorkouts      int                   `json:"totalWorkouts"`
	TotalVolume        float64               `json:"totalVolume"`
	LastWorkoutDate    *time.Time            `json:"lastWorkoutDate"`
	Weekly             []weeklyPointResponse `json:"weekly"`
	RecentDays         []recentDayResponse   `json:"recentDays"`
	AvgDurationSeconds *int                  `json:"avgDurationSeconds"`
}

// Summary はユーザーのトレーニング集計を返す。
// GET /dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	s, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	resp := summaryResponse{
		TotalDays:          s.TotalDays,
		CompletedDays:      s.CompletedDays,
		TotalWorkouts:      s.TotalWorkouts,
		TotalVolume:        s.TotalVolume,
		LastWorkoutDate:    s.LastWorkoutDate,
		Weekly:             make([]weeklyPointResponse, 0, len(s.Weekly)),
		RecentDays:         make([]recentDayResponse, 0, len(s.RecentDays)),
		AvgDurationSeconds: s.AvgDurationSeconds,
	}
	for _, p := range s.Weekly {
		resp.Weekly = append(resp.Weekly, weeklyPointResponse(p))
	}
	for _, d := range s.RecentDays {
		resp.RecentDays = append(resp.RecentDays, recentDayResponse(d))
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
