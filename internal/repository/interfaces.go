// Package repository はデータ永続化のインターフェースを定義する。
//
// 所有ユーザーIDを受け取るメソッドはすべて、そのユーザーが所有する行だけを
// 対象とする。対象が存在しない（または他ユーザーの所有である）場合は
// エラーではなくnil/falseを返し、想定外のストアエラーのみをerrorで返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
)

// UserRepository はユーザーアカウントの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレスは小文字に正規化して保存する。
	// 登録済みの場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, name, email, passwordHash string) (*model.User, error)

	// FindByEmail は正規化したメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// SetAdmin はメールアドレスで指定したユーザーの管理者フラグを更新する。見つからない場合はnilを返す。
	SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error)
}

// DayRepository はトレーニング日の永続化インターフェース。
type DayRepository interface {
	// ListByUser はユーザーのトレーニング日をID昇順で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.Day, error)

	// FindByID は所有者を問わず指定IDのトレーニング日を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Day, error)

	// FindByIDForUser はユーザーが所有する指定IDのトレーニング日を取得する。
	FindByIDForUser(ctx context.Context, id, userID int64) (*model.Day, error)

	// Create はトレーニング日を作成する。completedはfalse、タイマー項目はnullで初期化される。
	Create(ctx context.Context, name, subtitle string, userID int64, shareCode *string) (*model.Day, error)

	// Delete は所有者が一致する場合のみ削除する。
	// workouts、logsはCASCADE削除される。
	Delete(ctx context.Context, id, userID int64) (bool, error)

	// SetShareCode は共有コードを設定またはクリア（nil）する。
	// 一意制約違反の場合はmodel.ErrShareCodeTakenを返す。
	SetShareCode(ctx context.Context, dayID int64, code *string, userID int64) (*model.Day, error)

	// FindByShareCode は所有者を問わず共有コードでトレーニング日を取得する。
	FindByShareCode(ctx context.Context, code string) (*model.Day, error)

	// Start はセッションを開始する。
	// started_at=now、finished_at/duration_secondsをクリア、completed=falseとし、
	// 同一トランザクションでDay内の全ワークアウトのcompletedをfalseに戻す。
	Start(ctx context.Context, dayID, userID int64, now time.Time) (*model.Day, error)

	// CancelStart はstarted_atのみをクリアする。
	CancelStart(ctx context.Context, dayID, userID int64) (*model.Day, error)

	// Complete はセッションを完了する。
	// started_atが設定されていればduration_secondsを計算し、finished_at=now、
	// started_at=null、completed=trueとし、Day内の全ワークアウトをcompleted=trueにする。
	// started_atがnullの場合duration_secondsは変更しない。
	Complete(ctx context.Context, dayID, userID int64, now time.Time) (*model.Day, error)
}

// WorkoutRepository はDay内のワークアウトの永続化インターフェース。
type WorkoutRepository interface {
	// ListByDay はDayのワークアウトをposition昇順（NULLは末尾）、id昇順で返す。
	// userIDが指定された場合はその所有者の行のみに絞り込む。
	ListByDay(ctx context.Context, dayID int64, userID *int64) ([]*model.Workout, error)

	// FindByID はユーザーが所有する指定IDのワークアウトを取得する。
	FindByID(ctx context.Context, id, userID int64) (*model.Workout, error)

	// Add はワークアウトを追加する。positionは既存の最大値+1（存在しなければ1）。
	Add(ctx context.Context, dayID int64, in model.WorkoutInput, userID int64) (*model.Workout, error)

	// Update は記述的フィールド（name, planned_sets, planned_reps, youtube）を置き換える。
	Update(ctx context.Context, id int64, in model.WorkoutInput, userID int64) (*model.Workout, error)

	// SetCompleted は完了フラグを更新する。
	SetCompleted(ctx context.Context, id int64, completed bool, userID int64) (*model.Workout, error)

	// SetCurrentWeight は現在の重量スナップショットを更新する。nilでクリアする。
	SetCurrentWeight(ctx context.Context, id int64, weight *float64, userID int64) (*model.Workout, error)

	// Delete はワークアウトを削除し、残りのpositionを詰め直す。logsはCASCADE削除される。
	Delete(ctx context.Context, id, userID int64) (bool, error)

	// Reorder はorderedIDsの順にposition=index+1を割り当てる。
	// Dayまたは所有者が一致しないIDは無視する。1件も更新されなければfalseを返す。
	Reorder(ctx context.Context, dayID int64, orderedIDs []int64, userID int64) (bool, error)
}

// LogRepository はワークアウトの記録（追記のみの時系列）の永続化インターフェース。
type LogRepository interface {
	// Add は記録を追加する。in.Dateがnilの場合は現在時刻を使う。
	Add(ctx context.Context, workoutID int64, in model.LogInput, userID int64) (*model.Log, error)

	// ListByWorkout はワークアウトの記録をdate降順で返す。
	// userIDが指定された場合はその所有者の行のみに絞り込む。
	ListByWorkout(ctx context.Context, workoutID int64, userID *int64) ([]*model.Log, error)

	// ListByUser はユーザーの全記録をdate降順で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.Log, error)
}

// BMIRepository はBMI記録の永続化インターフェース。
type BMIRepository interface {
	// Add はBMI記録を追加する。
	Add(ctx context.Context, userID int64, in model.BMIInput) (*model.BMIRecord, error)
	// ListByUser はユーザーのBMI記録を新しい順で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.BMIRecord, error)
	// Delete はユーザーのBMI記録を1件削除する。
	Delete(ctx context.Context, id, userID int64) (bool, error)
	// Clear はユーザーのBMI記録をすべて削除する。
	Clear(ctx context.Context, userID int64) error
}

// ExerciseRepository は種目カタログの永続化インターフェース。
type ExerciseRepository interface {
	// List は種目を名前順で返す。searchが空でなければ名前・部位・器具で部分一致検索する。
	List(ctx context.Context, search string) ([]*model.Exercise, error)
	// FindByID は指定IDの種目を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Exercise, error)
	// Create は種目を作成する。
	Create(ctx context.Context, in model.ExerciseInput) (*model.Exercise, error)
	// Update は種目を更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, id int64, in model.ExerciseInput) (*model.Exercise, error)
	// Delete は種目を削除する。
	Delete(ctx context.Context, id int64) (bool, error)
}

// Store は全リポジトリをまとめたもの。
// Postgres実装とインメモリ実装の両方がこれを満たす。
type Store interface {
	Users() UserRepository
	Days() DayRepository
	Workouts() WorkoutRepository
	Logs() LogRepository
	BMI() BMIRepository
	Exercises() ExerciseRepository
}

// DurationSeconds はセッション開始から完了までの経過秒数を返す。
// 秒単位に四捨五入し、負の値は0にする。
func DurationSeconds(startedAt, now time.Time) int {
	d := now.Sub(startedAt).Round(time.Second)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
