package model

import "time"

// Day はトレーニング日（ワークアウトをまとめたセッション）を表す。
//
// StartedAtが設定されている間はセッション実行中であり、Completedはfalseとなる。
// 完了時にStartedAtはクリアされ、Completedがtrueになる。
type Day struct {
	ID              int64
	UserID          int64
	Name            string
	Subtitle        string
	Completed       bool
	StartedAt       *time.Time
	FinishedAt      *time.Time
	DurationSeconds *int
	ShareCode       *string
	CreatedAt       time.Time
}

// Running はタイマーが動作中かどうかを返す。
func (d *Day) Running() bool {
	return d != nil && d.StartedAt != nil
}

// Workout はDay内の1種目を表す。
// Positionは同一Day内で1始まりの連番となる。
type Workout struct {
	ID            int64
	DayID         int64
	UserID        int64
	Name          string
	PlannedSets   int
	PlannedReps   int
	Youtube       *string
	CurrentWeight *float64
	Completed     bool
	Position      int
}

// WorkoutInput はワークアウトの作成・更新時に受け付ける記述的フィールド。
type WorkoutInput struct {
	Name        string
	PlannedSets int
	PlannedReps int
	Youtube     *string
}

// Log は1セット分の記録を表す。作成後に変更されない。
type Log struct {
	ID        int64
	WorkoutID int64
	UserID    int64
	Series    int
	Reps      int
	Weight    float64
	Date      time.Time
}

// LogInput は記録追加時の入力。Dateがnilの場合はサーバー時刻が使われる。
type LogInput struct {
	Series int
	Reps   int
	Weight float64
	Date   *time.Time
}
