// Package training はトレーニング日・ワークアウト・記録・BMI・種目カタログのユースケースを提供する。
//
// すべての操作は呼び出しユーザーの所有物だけを対象とし、
// 所有していない対象はmodel.ErrNotFoundとして扱う。
package training

import (
	"context"
	"fmt"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
	"github.com/hitoshi/mpfit/internal/security"
)

// Service はトレーニング管理のサービス層。
type Service struct {
	users     repository.UserRepository
	days      repository.DayRepository
	workouts  repository.WorkoutRepository
	logs      repository.LogRepository
	bmi       repository.BMIRepository
	exercises repository.ExerciseRepository
	sanitizer *security.TextSanitizer
	urlGuard  *security.URLGuard
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store repository.Store, sanitizer *security.TextSanitizer, urlGuard *security.URLGuard) *Service {
	return &Service{
		users:     store.Users(),
		days:      store.Days(),
		workouts:  store.Workouts(),
		logs:      store.Logs(),
		bmi:       store.BMI(),
		exercises: store.Exercises(),
		sanitizer: sanitizer,
		urlGuard:  urlGuard,
	}
}

// --- Day ---

// ListDays はユーザーのトレーニング日をID順で返す。
func (s *Service) ListDays(ctx context.Context, userID int64) ([]*model.Day, error) {
	days, err := s.days.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("トレーニング日一覧の取得に失敗しました: %w", err)
	}
	return days, nil
}

// CreateDay はトレーニング日を作成する。名前とサブタイトルは必須。
func (s *Service) CreateDay(ctx context.Context, userID int64, name, subtitle string) (*model.Day, error) {
	name = s.sanitizer.Clean(name)
	if name == "" {
		return nil, model.NewValidationError("name")
	}
	subtitle = s.sanitizer.Clean(subtitle)
	if subtitle == "" {
		return nil, model.NewValidationError("subtitle")
	}

	day, err := s.days.Create(ctx, name, subtitle, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("トレーニング日の作成に失敗しました: %w", err)
	}
	return day, nil
}

// DeleteDay はトレーニング日を削除する。ワークアウトと記録も削除される。
func (s *Service) DeleteDay(ctx context.Context, dayID, userID int64) error {
	ok, err := s.days.Delete(ctx, dayID, userID)
	if err != nil {
		return fmt.Errorf("トレーニング日の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// --- Workout ---

// ListWorkouts はDayのワークアウトを並び順で返す。
func (s *Service) ListWorkouts(ctx context.Context, dayID, userID int64) ([]*model.Workout, error) {
	if err := s.requireDay(ctx, dayID, userID); err != nil {
		return nil, err
	}
	workouts, err := s.workouts.ListByDay(ctx, dayID, &userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}
	return workouts, nil
}

// AddWorkout はDayの末尾にワークアウトを追加する。
func (s *Service) AddWorkout(ctx context.Context, dayID, userID int64, in model.WorkoutInput) (*model.Workout, error) {
	in, err := s.cleanWorkoutInput(in)
	if err != nil {
		return nil, err
	}
	w, err := s.workouts.Add(ctx, dayID, in, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの追加に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// UpdateWorkout はワークアウトの名前・計画値・動画リンクを置き換える。
func (s *Service) UpdateWorkout(ctx context.Context, workoutID, userID int64, in model.WorkoutInput) (*model.Workout, error) {
	in, err := s.cleanWorkoutInput(in)
	if err != nil {
		return nil, err
	}
	w, err := s.workouts.Update(ctx, workoutID, in, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの更新に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// SetWorkoutCompleted はワークアウトの完了フラグを更新する。
func (s *Service) SetWorkoutCompleted(ctx context.Context, workoutID, userID int64, completed bool) (*model.Workout, error) {
	w, err := s.workouts.SetCompleted(ctx, workoutID, completed, userID)
	if err != nil {
		return nil, fmt.Errorf("完了状態の更新に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// CurrentWeight はワークアウトの現在の重量を返す。未設定ならnil。
func (s *Service) CurrentWeight(ctx context.Context, workoutID, userID int64) (*float64, error) {
	w, err := s.workouts.FindByID(ctx, workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w.CurrentWeight, nil
}

// SetCurrentWeight は現在の重量を更新する。nilでクリアする。
func (s *Service) SetCurrentWeight(ctx context.Context, workoutID, userID int64, weight *float64) (*model.Workout, error) {
	w, err := s.workouts.SetCurrentWeight(ctx, workoutID, weight, userID)
	if err != nil {
		return nil, fmt.Errorf("現在の重量の更新に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// DeleteWorkout はワークアウトを削除する。残りの並び順は詰め直される。
func (s *Service) DeleteWorkout(ctx context.Context, workoutID, userID int64) error {
	ok, err := s.workouts.Delete(ctx, workoutID, userID)
	if err != nil {
		return fmt.Errorf("ワークアウトの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// ReorderWorkouts はorderedIDsの順にワークアウトを並べ替える。
// 1件も該当しなかった場合はNO_CHANGESエラーを返す。
func (s *Service) ReorderWorkouts(ctx context.Context, dayID, userID int64, orderedIDs []int64) error {
	ok, err := s.workouts.Reorder(ctx, dayID, orderedIDs, userID)
	if err != nil {
		return fmt.Errorf("並べ替えに失敗しました: %w", err)
	}
	if !ok {
		return model.NewNoChangesError()
	}
	return nil
}

func (s *Service) cleanWorkoutInput(in model.WorkoutInput) (model.WorkoutInput, error) {
	in.Name = s.sanitizer.Clean(in.Name)
	if in.Name == "" {
		return in, model.NewValidationError("name")
	}
	if in.PlannedSets < 0 {
		return in, model.NewInvalidFieldError("plannedSets")
	}
	if in.PlannedReps < 0 {
		return in, model.NewInvalidFieldError("plannedReps")
	}
	in.Youtube = s.sanitizer.CleanPtr(in.Youtube)
	if in.Youtube != nil {
		if err := s.urlGuard.ValidateURL(*in.Youtube); err != nil {
			return in, model.NewInvalidFieldError("youtube")
		}
	}
	return in, nil
}

func (s *Service) requireDay(ctx context.Context, dayID, userID int64) error {
	day, err := s.days.FindByIDForUser(ctx, dayID, userID)
	if err != nil {
		return fmt.Errorf("トレーニング日の取得に失敗しました: %w", err)
	}
	if day == nil {
		return model.ErrNotFound
	}
	return nil
}

// --- Log ---

// AddLog はワークアウトに1セット分の記録を追加する。
func (s *Service) AddLog(ctx context.Context, workoutID, userID int64, in model.LogInput) (*model.Log, error) {
	if in.Series < 0 {
		return nil, model.NewInvalidFieldError("series")
	}
	if in.Reps < 0 {
		return nil, model.NewInvalidFieldError("reps")
	}
	l, err := s.logs.Add(ctx, workoutID, in, userID)
	if err != nil {
		return nil, fmt.Errorf("記録の追加に失敗しました: %w", err)
	}
	if l == nil {
		return nil, model.ErrNotFound
	}
	return l, nil
}

// ListLogs はワークアウトの記録を新しい順で返す。
func (s *Service) ListLogs(ctx context.Context, workoutID, userID int64) ([]*model.Log, error) {
	w, err := s.workouts.FindByID(ctx, workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	logs, err := s.logs.ListByWorkout(ctx, workoutID, &userID)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	return logs, nil
}

// --- BMI ---

// AddBMI はBMI記録を追加する。体重・身長・BMIはすべて正の値が必要。
func (s *Service) AddBMI(ctx context.Context, userID int64, in model.BMIInput) (*model.BMIRecord, error) {
	if in.Weight <= 0 || in.Height <= 0 || in.BMI <= 0 {
		return nil, model.NewValidationError("weight,height,bmi")
	}
	rec, err := s.bmi.Add(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("BMI記録の追加に失敗しました: %w", err)
	}
	return rec, nil
}

// ListBMI はユーザーのBMI記録を新しい順で返す。
func (s *Service) ListBMI(ctx context.Context, userID int64) ([]*model.BMIRecord, error) {
	records, err := s.bmi.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("BMI記録一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// DeleteBMI はBMI記録を1件削除する。
func (s *Service) DeleteBMI(ctx context.Context, id, userID int64) error {
	ok, err := s.bmi.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("BMI記録の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// ClearBMI はユーザーのBMI記録をすべて削除する。
func (s *Service) ClearBMI(ctx context.Context, userID int64) error {
	if err := s.bmi.Clear(ctx, userID); err != nil {
		return fmt.Errorf("BMI記録の削除に失敗しました: %w", err)
	}
	return nil
}
