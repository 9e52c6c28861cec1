package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

// tickingClock は呼び出しごとに1分進む時計を返す。
func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func at(day, hour, minute int) *time.Time {
	t := time.Date(2024, 5, day, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestService_Summary(t *testing.T) {
	store := memory.New()
	store.SetClock(tickingClock(base.Add(-48 * time.Hour)))
	ctx := context.Background()

	user, err := store.Users().Create(ctx, "Ana", "ana@example.com", "hash")
	require.NoError(t, err)
	other, err := store.Users().Create(ctx, "Bia", "bia@example.com", "hash")
	require.NoError(t, err)

	d1, err := store.Days().Create(ctx, "Segunda", "Pernas", user.ID, nil)
	require.NoError(t, err)
	d2, err := store.Days().Create(ctx, "Terça", "Costas", user.ID, nil)
	require.NoError(t, err)
	_, err = store.Days().Create(ctx, "Quarta", "Peito", user.ID, nil)
	require.NoError(t, err)

	w1, err := store.Workouts().Add(ctx, d1.ID, model.WorkoutInput{Name: "Squat"}, user.ID)
	require.NoError(t, err)
	_, err = store.Workouts().Add(ctx, d1.ID, model.WorkoutInput{Name: "Lunge"}, user.ID)
	require.NoError(t, err)
	_, err = store.Workouts().Add(ctx, d2.ID, model.WorkoutInput{Name: "Row"}, user.ID)
	require.NoError(t, err)

	_, err = store.Days().Start(ctx, d1.ID, user.ID, *at(10, 10, 0))
	require.NoError(t, err)
	_, err = store.Days().Complete(ctx, d1.ID, user.ID, *at(10, 10, 30))
	require.NoError(t, err)
	_, err = store.Days().Start(ctx, d2.ID, user.ID, *at(9, 11, 0))
	require.NoError(t, err)
	_, err = store.Days().Complete(ctx, d2.ID, user.ID, *at(9, 11, 10))
	require.NoError(t, err)

	for _, in := range []model.LogInput{
		{Series: 1, Reps: 8, Weight: 60, Date: at(10, 10, 5)},
		{Series: 1, Reps: 5, Weight: 70, Date: at(9, 11, 5)},
		{Series: 1, Reps: 1, Weight: 100, Date: func() *time.Time { t := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC); return &t }()},
	} {
		_, err := store.Logs().Add(ctx, w1.ID, in, user.ID)
		require.NoError(t, err)
	}

	// 他ユーザーのデータは集計に含まれない
	od, err := store.Days().Create(ctx, "Other", "x", other.ID, nil)
	require.NoError(t, err)
	ow, err := store.Workouts().Add(ctx, od.ID, model.WorkoutInput{Name: "Deadlift"}, other.ID)
	require.NoError(t, err)
	_, err = store.Logs().Add(ctx, ow.ID, model.LogInput{Series: 1, Reps: 5, Weight: 200, Date: at(10, 9, 0)}, other.ID)
	require.NoError(t, err)

	svc := NewService(store, WithClock(func() time.Time { return base }))
	summary, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalDays)
	assert.Equal(t, 2, summary.CompletedDays)
	assert.Equal(t, 3, summary.TotalWorkouts)
	assert.Equal(t, 930.0, summary.TotalVolume)
	require.NotNil(t, summary.LastWorkoutDate)
	assert.True(t, summary.LastWorkoutDate.Equal(*at(10, 10, 5)))

	require.Len(t, summary.Weekly, 7)
	assert.Equal(t, "2024-05-04", summary.Weekly[0].Date)
	assert.Equal(t, WeeklyPoint{Date: "2024-05-09", Volume: 350, Sessions: 1}, summary.Weekly[5])
	assert.Equal(t, WeeklyPoint{Date: "2024-05-10", Volume: 480, Sessions: 1}, summary.Weekly[6])
	assert.Zero(t, summary.Weekly[1].Sessions)

	require.NotNil(t, summary.AvgDurationSeconds)
	assert.Equal(t, 1200, *summary.AvgDurationSeconds)

	require.Len(t, summary.RecentDays, 3)
	assert.Equal(t, "Quarta", summary.RecentDays[0].Name)
}

func TestService_Summary_Empty(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user, err := store.Users().Create(ctx, "", "empty@example.com", "hash")
	require.NoError(t, err)

	summary, err := NewService(store, WithClock(func() time.Time { return base })).Summary(ctx, user.ID)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalDays)
	assert.Zero(t, summary.TotalVolume)
	assert.Nil(t, summary.LastWorkoutDate)
	assert.Nil(t, summary.AvgDurationSeconds)
	assert.Len(t, summary.Weekly, 7)
	assert.Empty(t, summary.RecentDays)
}

func TestService_Summary_RecentDaysLimit(t *testing.T) {
	store := memory.New()
	store.SetClock(tickingClock(base))
	ctx := context.Background()
	user, err := store.Users().Create(ctx, "", "many@example.com", "hash")
	require.NoError(t, err)

	for i := 1; i <= 8; i++ {
		_, err := store.Days().Create(ctx, fmt.Sprintf("Day %d", i), "s", user.ID, nil)
		require.NoError(t, err)
	}

	summary, err := NewService(store).Summary(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summary.RecentDays, 6)
	assert.Equal(t, "Day 8", summary.RecentDays[0].Name)
	assert.Equal(t, "Day 3", summary.RecentDays[5].Name)
}

func TestService_Summary_WeeklyUsesLocation(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user, err := store.Users().Create(ctx, "", "tz@example.com", "hash")
	require.NoError(t, err)
	day, err := store.Days().Create(ctx, "A", "a", user.ID, nil)
	require.NoError(t, err)
	w, err := store.Workouts().Add(ctx, day.ID, model.WorkoutInput{Name: "Squat"}, user.ID)
	require.NoError(t, err)

	// UTCでは5/10 01:00、UTC-3では5/9 22:00
	_, err = store.Logs().Add(ctx, w.ID, model.LogInput{Series: 1, Reps: 10, Weight: 10, Date: at(10, 1, 0)}, user.ID)
	require.NoError(t, err)

	loc := time.FixedZone("BRT", -3*60*60)
	summary, err := NewService(store, WithClock(func() time.Time { return base }), WithLocation(loc)).Summary(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-10", summary.Weekly[6].Date)
	assert.Zero(t, summary.Weekly[6].Sessions)
	assert.Equal(t, WeeklyPoint{Date: "2024-05-09", Volume: 100, Sessions: 1}, summary.Weekly[5])
}
