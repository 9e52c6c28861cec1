package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
)

// mockWorkoutService はWorkoutServiceInterfaceのモック実装。
type mockWorkoutService struct {
	updateWorkoutFn       func(ctx context.Context, workoutID, userID int64, in model.WorkoutInput) (*model.Workout, error)
	setWorkoutCompletedFn func(ctx context.Context, workoutID, userID int64, completed bool) (*model.Workout, error)
	currentWeightFn       func(ctx context.Context, workoutID, userID int64) (*float64, error)
	setCurrentWeightFn    func(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error)
	deleteWorkoutFn       func(ctx context.Context, workoutID, userID int64) error
	addLogFn              func(ctx context.Context, workoutID, userID int64, in model.LogInput) (*model.Log, error)
	listLogsFn            func(ctx context.Context, workoutID, userID int64) ([]*model.Log, error)
}

func (m *mockWorkoutService) UpdateWorkout(ctx context.Context, workoutID, userID int64, in model.WorkoutInput) (*model.Workout, error) {
	if m.updateWorkoutFn != nil {
		return m.updateWorkoutFn(ctx, workoutID, userID, in)
	}
	return nil, model.ErrNotFound
}

func (m *mockWorkoutService) SetWorkoutCompleted(ctx context.Context, workoutID, userID int64, completed bool) (*model.Workout, error) {
	if m.setWorkoutCompletedFn != nil {
		return m.setWorkoutCompletedFn(ctx, workoutID, userID, completed)
	}
	return nil, model.ErrNotFound
}

func (m *mockWorkoutService) CurrentWeight(ctx context.Context, workoutID, userID int64) (*float64, error) {
	if m.currentWeightFn != nil {
		return m.currentWeightFn(ctx, workoutID, userID)
	}
	return nil, model.ErrNotFound
}

func (m *mockWorkoutService) SetCurrentWeight(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error) {
	if m.setCurrentWeightFn != nil {
		return m.setCurrentWeightFn(ctx, workoutID, userID, weight)
	}
	return nil, model.ErrNotFound
}

func (m *mockWorkoutService) DeleteWorkout(ctx context.Context, workoutID, userID int64) error {
	if m.deleteWorkoutFn != nil {
		return m.deleteWorkoutFn(ctx, workoutID, userID)
	}
	return model.ErrNotFound
}

func (m *mockWorkoutService) AddLog(ctx context.Context, workoutID, userID int64, in model.LogInput) (*model.Log, error) {
	if m.addLogFn != nil {
		return m.addLogFn(ctx, workoutID, userID, in)
	}
	return nil, model.ErrNotFound
}

func (m *mockWorkoutService) ListLogs(ctx context.Context, workoutID, userID int64) ([]*model.Log, error) {
	if m.listLogsFn != nil {
		return m.listLogsFn(ctx, workoutID, userID)
	}
	return nil, model.ErrNotFound
}

var _ WorkoutServiceInterface = (*mockWorkoutService)(nil)

func TestWorkoutHandler_Complete_RequiresFlag(t *testing.T) {
	called := false
	svc := &mockWorkoutService{
		setWorkoutCompletedFn: func(ctx context.Context, workoutID, userID int64, completed bool) (*model.Workout, error) {
			called = true
			return &model.Workout{ID: workoutID, Completed: completed}, nil
		},
	}
	h := NewWorkoutHandler(svc)

	w := serve(http.MethodPost, "/workouts/{id}/complete", h.Complete,
		httptest.NewRequest(http.MethodPost, "/workouts/2/complete", jsonBody(t, `{}`)), 1)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called without completed")
	}

	// falseも有効な値として扱う
	w = serve(http.MethodPost, "/workouts/{id}/complete", h.Complete,
		httptest.NewRequest(http.MethodPost, "/workouts/2/complete", jsonBody(t, `{"completed":false}`)), 1)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestWorkoutHandler_UpdateWorkout_NotFound(t *testing.T) {
	h := NewWorkoutHandler(&mockWorkoutService{})

	w := serve(http.MethodPatch, "/workouts/{id}", h.UpdateWorkout,
		httptest.NewRequest(http.MethodPatch, "/workouts/2", jsonBody(t, `{"name":"x"}`)), 1)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := decodeError(t, w); body.Error != "workout not found" {
		t.Errorf("error = %q, want %q", body.Error, "workout not found")
	}
}

func TestWorkoutHandler_CurrentWeight(t *testing.T) {
	t.Run("未設定はnull", func(t *testing.T) {
		svc := &mockWorkoutService{
			currentWeightFn: func(ctx context.Context, workoutID, userID int64) (*float64, error) {
				return nil, nil
			},
		}
		w := serve(http.MethodGet, "/workouts/{id}/current", NewWorkoutHandler(svc).GetCurrentWeight,
			httptest.NewRequest(http.MethodGet, "/workouts/2/current", nil), 1)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if v, ok := body["currentWeight"]; !ok || v != nil {
			t.Errorf("currentWeight = %v (present=%v), want null", v, ok)
		}
	})

	t.Run("weight省略でクリア", func(t *testing.T) {
		var got *float64
		set := false
		svc := &mockWorkoutService{
			setCurrentWeightFn: func(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error) {
				got, set = weight, true
				return &model.Workout{ID: workoutID, CurrentWeight: weight}, nil
			},
		}
		w := serve(http.MethodPost, "/workouts/{id}/current", NewWorkoutHandler(svc).SetCurrentWeight,
			httptest.NewRequest(http.MethodPost, "/workouts/2/current", jsonBody(t, `{}`)), 1)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !set || got != nil {
			t.Errorf("weight = %v, want nil", got)
		}
	})

	t.Run("文字列の重量", func(t *testing.T) {
		var got *float64
		svc := &mockWorkoutService{
			setCurrentWeightFn: func(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error) {
				got = weight
				return &model.Workout{ID: workoutID, CurrentWeight: weight}, nil
			},
		}
		serve(http.MethodPost, "/workouts/{id}/current", NewWorkoutHandler(svc).SetCurrentWeight,
			httptest.NewRequest(http.MethodPost, "/workouts/2/current", jsonBody(t, `{"weight":"62.5"}`)), 1)
		if got == nil || *got != 62.5 {
			t.Errorf("weight = %v, want 62.5", got)
		}
	})
}

func TestWorkoutHandler_AddLog(t *testing.T) {
	t.Run("weightは必須", func(t *testing.T) {
		h := NewWorkoutHandler(&mockWorkoutService{})
		w := serve(http.MethodPost, "/workouts/{id}/weights", h.AddLog,
			httptest.NewRequest(http.MethodPost, "/workouts/2/weights", jsonBody(t, `{"series":1,"reps":10}`)), 1)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("成功", func(t *testing.T) {
		date := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
		var got model.LogInput
		svc := &mockWorkoutService{
			addLogFn: func(ctx context.Context, workoutID, userID int64, in model.LogInput) (*model.Log, error) {
				got = in
				return &model.Log{ID: 1, WorkoutID: workoutID, Series: in.Series, Reps: in.Reps, Weight: in.Weight, Date: *in.Date}, nil
			},
		}
		h := NewWorkoutHandler(svc)
		w := serve(http.MethodPost, "/workouts/{id}/weights", h.AddLog,
			httptest.NewRequest(http.MethodPost, "/workouts/2/weights",
				jsonBody(t, `{"series":"2","reps":8,"weight":60,"date":"2024-05-10T10:00:00Z"}`)), 1)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
		}
		if got.Series != 2 || got.Reps != 8 || got.Weight != 60 || got.Date == nil || !got.Date.Equal(date) {
			t.Errorf("input = %+v", got)
		}
	})
}

func TestWorkoutHandler_ListLogs_ForeignWorkout(t *testing.T) {
	h := NewWorkoutHandler(&mockWorkoutService{})
	w := serve(http.MethodGet, "/workouts/{id}/weights", h.ListLogs,
		httptest.NewRequest(http.MethodGet, "/workouts/2/weights", nil), 1)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
