package training

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/mpfit/internal/model"
)

// ListExercises は種目カタログを名前順で返す。
func (s *Service) ListExercises(ctx context.Context, search string) ([]*model.Exercise, error) {
	exercises, err := s.exercises.List(ctx, s.sanitizer.Clean(search))
	if err != nil {
		return nil, fmt.Errorf("種目一覧の取得に失敗しました: %w", err)
	}
	return exercises, nil
}

// GetExercise は種目を1件返す。
func (s *Service) GetExercise(ctx context.Context, id int64) (*model.Exercise, error) {
	ex, err := s.exercises.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("種目の取得に失敗しました: %w", err)
	}
	if ex == nil {
		return nil, model.ErrNotFound
	}
	return ex, nil
}

// CreateExercise は種目を作成する。管理者のみ実行できる。
func (s *Service) CreateExercise(ctx context.Context, userID int64, in model.ExerciseInput) (*model.Exercise, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return nil, err
	}
	in, err := s.cleanExerciseInput(in)
	if err != nil {
		return nil, err
	}
	ex, err := s.exercises.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("種目の作成に失敗しました: %w", err)
	}
	return ex, nil
}

// UpdateExercise は種目を更新する。管理者のみ実行できる。
func (s *Service) UpdateExercise(ctx context.Context, userID, id int64, in model.ExerciseInput) (*model.Exercise, error) {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return nil, err
	}
	in, err := s.cleanExerciseInput(in)
	if err != nil {
		return nil, err
	}
	ex, err := s.exercises.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("種目の更新に失敗しました: %w", err)
	}
	if ex == nil {
		return nil, model.ErrNotFound
	}
	return ex, nil
}

// DeleteExercise は種目を削除する。管理者のみ実行できる。
func (s *Service) DeleteExercise(ctx context.Context, userID, id int64) error {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}
	ok, err := s.exercises.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("種目の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, userID int64) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil || !user.Admin {
		return model.ErrForbidden
	}
	return nil
}

func (s *Service) cleanExerciseInput(in model.ExerciseInput) (model.ExerciseInput, error) {
	in.Name = s.sanitizer.Clean(in.Name)
	if in.Name == "" {
		return in, model.NewValidationError("name")
	}
	in.TargetMuscle = s.sanitizer.Clean(in.TargetMuscle)
	in.Equipment = s.sanitizer.Clean(in.Equipment)
	in.Description = s.sanitizer.Clean(in.Description)
	in.ImagePath = strings.TrimSpace(in.ImagePath)
	if err := s.urlGuard.ValidateImagePath(in.ImagePath); err != nil {
		return in, model.NewInvalidFieldError("imagePath")
	}
	return in, nil
}
