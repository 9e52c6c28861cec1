package training

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/mpfit/internal/model"
)

const (
	// GeneratedDayName はアシスタントが作成するDayの名前。
	GeneratedDayName = "Exercicio Personalizado"
	// generatedSubtitleNoBMI は体重・身長が無い場合のサブタイトル。
	generatedSubtitleNoBMI = "Gerado pelo assistente"
	maxGeneratedWorkouts   = 10
)

// GenerateInput はアシスタントによるDay生成の入力。
// WeightはkgでHeightはcm。どちらかが0ならBMIは計算しない。
type GenerateInput struct {
	Weight float64
	Height float64
	Muscle string
}

// GeneratedDay は生成したDayとそのワークアウト。
type GeneratedDay struct {
	Day      *model.Day
	Workouts []*model.Workout
}

// GenerateDay は対象部位の種目から最大10件を選び、新しいDayとして作成する。
//
// 部位は種目カタログに存在するtarget_muscleのいずれかと大文字小文字を無視して一致する必要がある。
// セット数はBMIが30以上なら2、それ以外は3。部位名に"perna"を含む場合のレップ数は6、それ以外は10。
func (s *Service) GenerateDay(ctx context.Context, userID int64, in GenerateInput) (*GeneratedDay, error) {
	muscle := strings.ToLower(s.sanitizer.Clean(in.Muscle))
	if muscle == "" {
		return nil, model.NewValidationError("muscle")
	}
	if in.Weight < 0 {
		return nil, model.NewInvalidFieldError("weight")
	}
	if in.Height < 0 {
		return nil, model.NewInvalidFieldError("height")
	}

	catalog, err := s.exercises.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("種目一覧の取得に失敗しました: %w", err)
	}
	known := false
	var chosen []*model.Exercise
	for _, ex := range catalog {
		target := strings.ToLower(ex.TargetMuscle)
		if target == "" {
			continue
		}
		if target == muscle {
			known = true
		}
		if strings.Contains(target, muscle) && len(chosen) < maxGeneratedWorkouts {
			chosen = append(chosen, ex)
		}
	}
	if !known {
		return nil, model.NewInvalidFieldError("muscle")
	}

	sets, reps := 3, 10
	subtitle := generatedSubtitleNoBMI
	if bmi, ok := computeBMI(in.Weight, in.Height); ok {
		subtitle = fmt.Sprintf("IMC %.1f", bmi)
		if bmi >= 30 {
			sets = 2
		}
	}
	if strings.Contains(muscle, "perna") {
		reps = 6
	}

	day, err := s.days.Create(ctx, GeneratedDayName, subtitle, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("トレーニング日の作成に失敗しました: %w", err)
	}
	for _, ex := range chosen {
		wi := model.WorkoutInput{Name: ex.Name, PlannedSets: sets, PlannedReps: reps}
		if _, err := s.workouts.Add(ctx, day.ID, wi, userID); err != nil {
			if _, derr := s.days.Delete(context.WithoutCancel(ctx), day.ID, userID); derr != nil {
				return nil, fmt.Errorf("ワークアウトの追加に失敗しました: %w (Dayの削除にも失敗しました: %v)", err, derr)
			}
			return nil, fmt.Errorf("ワークアウトの追加に失敗しました: %w", err)
		}
	}

	workouts, err := s.workouts.ListByDay(ctx, day.ID, &userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}
	return &GeneratedDay{Day: day, Workouts: workouts}, nil
}

// computeBMI は体重(kg)と身長(cm)からBMIを計算する。
func computeBMI(weightKg, heightCm float64) (float64, bool) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, false
	}
	m := heightCm / 100
	return weightKg / (m * m), true
}
