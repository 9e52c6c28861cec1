package model

import "time"

// BMIRecord はBMI計算結果の履歴1件を表す。
type BMIRecord struct {
	ID     int64
	UserID int64
	Weight float64
	Height float64
	BMI    float64
	Date   time.Time
}

// BMIInput はBMI記録追加時の入力。
type BMIInput struct {
	Weight float64
	Height float64
	BMI    float64
	Date   *time.Time
}

// Exercise は種目カタログの1件を表す。全ユーザー共通のデータ。
// ImagePathは解決済みのURLまたはサイト相対パス。
type Exercise struct {
	ID           int64
	Name         string
	TargetMuscle string
	Equipment    string
	ImagePath    string
	Description  string
	CreatedAt    time.Time
}

// ExerciseInput は種目の作成・更新時の入力。
type ExerciseInput struct {
	Name         string
	TargetMuscle string
	Equipment    string
	ImagePath    string
	Description  string
}
