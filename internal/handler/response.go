package handler

import (
	"time"

	"github.com/hitoshi/mpfit/internal/model"
)

// dayResponse はトレーニング日のAPIレスポンス。
type dayResponse struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	Name            string     `json:"name"`
	Subtitle        string     `json:"subtitle"`
	Completed       bool       `json:"completed"`
	StartedAt       *time.Time `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt"`
	DurationSeconds *int       `json:"durationSeconds"`
	ShareCode       *string    `json:"shareCode"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func newDayResponse(d *model.Day) dayResponse {
	return dayResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		Name:            d.Name,
		Subtitle:        d.Subtitle,
		Completed:       d.Completed,
		StartedAt:       d.StartedAt,
		FinishedAt:      d.FinishedAt,
		DurationSeconds: d.DurationSeconds,
		ShareCode:       d.ShareCode,
		CreatedAt:       d.CreatedAt,
	}
}

func newDayResponses(days []*model.Day) []dayResponse {
	resp := make([]dayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, newDayResponse(d))
	}
	return resp
}

// workoutResponse はワークアウトのAPIレスポンス。
type workoutResponse struct {
	ID            int64    `json:"id"`
	DayID         int64    `json:"dayId"`
	UserID        int64    `json:"userId"`
	Name          string   `json:"name"`
	PlannedSets   int      `json:"plannedSets"`
	PlannedReps   int      `json:"plannedReps"`
	Youtube       *string  `json:"youtube"`
	CurrentWeight *float64 `json:"currentWeight"`
	Completed     bool     `json:"completed"`
	Position      int      `json:"position"`
}

func newWorkoutResponse(w *model.Workout) workoutResponse {
	return workoutResponse{
		ID:            w.ID,
		DayID:         w.DayID,
		UserID:        w.UserID,
		Name:          w.Name,
		PlannedSets:   w.PlannedSets,
		PlannedReps:   w.PlannedReps,
		Youtube:       w.Youtube,
		CurrentWeight: w.CurrentWeight,
		Completed:     w.Completed,
		Position:      w.Position,
	}
}

func newWorkoutResponses(workouts []*model.Workout) []workoutResponse {
	resp := make([]workoutResponse, 0, len(workouts))
	for _, w := range workouts {
		resp = append(resp, newWorkoutResponse(w))
	}
	return resp
}

// logResponse は記録のAPIレスポンス。
type logResponse struct {
	ID        int64     `json:"id"`
	WorkoutID int64     `json:"workoutId"`
	Series    int       `json:"series"`
	Reps      int       `json:"reps"`
	Weight    float64   `json:"weight"`
	Date      time.Time `json:"date"`
}

func newLogResponse(l *model.Log) logResponse {
	return logResponse{
		ID:        l.ID,
		WorkoutID: l.WorkoutID,
		Series:    l.Series,
		Reps:      l.Reps,
		Weight:    l.Weight,
		Date:      l.Date,
	}
}

// bmiResponse はBMI記録のAPIレスポンス。
type bmiResponse struct {
	ID     int64     `json:"id"`
	Weight float64   `json:"weight"`
	Height float64   `json:"height"`
	BMI    float64   `json:"bmi"`
	Date   time.Time `json:"date"`
}

func newBMIResponse(rec *model.BMIRecord) bmiResponse {
	return bmiResponse{
		ID:     rec.ID,
		Weight: rec.Weight,
		Height: rec.Height,
		BMI:    rec.BMI,
		Date:   rec.Date,
	}
}

// exerciseResponse は種目のAPIレスポンス。
type exerciseResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	TargetMuscle string    `json:"targetMuscle"`
	Equipment    string    `json:"equipment"`
	ImagePath    string    `json:"imagePath"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newExerciseResponse(e *model.Exercise) exerciseResponse {
	return exerciseResponse{
		ID:           e.ID,
		Name:         e.Name,
		TargetMuscle: e.TargetMuscle,
		Equipment:    e.Equipment,
		ImagePath:    e.ImagePath,
		Description:  e.Description,
		CreatedAt:    e.CreatedAt,
	}
}

// userResponse はログインユーザーのAPIレスポンス。名前が未設定ならnull。
type userResponse struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Admin bool    `json:"admin"`
}

func newUserResponse(u *model.User) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email, Admin: u.Admin}
	if u.Name != "" {
		name := u.Name
		resp.Name = &name
	}
	return resp
}

// okResponse は本文を持たない成功レスポンス。
type okResponse struct {
	OK bool `json:"ok"`
}

// successResponse は旧クライアント互換の成功レスポンス。
type successResponse struct {
	Success bool `json:"success"`
}
