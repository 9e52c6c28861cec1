package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

// logRow はlogsテーブルの1行。
type logRow struct {
	ID        int64     `db:"id"`
	WorkoutID int64     `db:"workout_id"`
	UserID    int64     `db:"user_id"`
	Series    int       `db:"series"`
	Reps      int       `db:"reps"`
	Weight    float64   `db:"weight"`
	Date      time.Time `db:"date"`
}

func (r logRow) toModel() *model.Log {
	return &model.Log{
		ID:        r.ID,
		WorkoutID: r.WorkoutID,
		UserID:    r.UserID,
		Series:    r.Series,
		Reps:      r.Reps,
		Weight:    r.Weight,
		Date:      r.Date,
	}
}

const logColumns = `id, workout_id, user_id, series, reps, weight, date`

// PostgresLogRepo はPostgreSQLを使用した記録リポジトリ。
type PostgresLogRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresLogRepo はPostgresLogRepoを生成する。
func NewPostgresLogRepo(db *sqlx.DB) *PostgresLogRepo {
	return &PostgresLogRepo{db: db, now: time.Now}
}

// Add は記録を追加する。ワークアウトが存在しないか所有者が異なる場合はnilを返す。
func (r *PostgresLogRepo) Add(ctx context.Context, workoutID int64, in model.LogInput, userID int64) (*model.Log, error) {
	date := r.now().UTC()
	if in.Date != nil {
		date = *in.Date
	}

	var row logRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO logs (workout_id, user_id, series, reps, weight, date)
		 SELECT w.id, w.user_id, $3, $4, $5, $6
		 FROM workouts w WHERE w.id = $1 AND w.user_id = $2
		 RETURNING `+logColumns,
		workoutID, userID, in.Series, in.Reps, in.Weight, date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to insert log", err)
	}
	return row.toModel(), nil
}

// ListByWorkout はワークアウトの記録を新しい順で返す。
func (r *PostgresLogRepo) ListByWorkout(ctx context.Context, workoutID int64, userID *int64) ([]*model.Log, error) {
	query := `SELECT ` + logColumns + ` FROM logs WHERE workout_id = $1`
	args := []interface{}{workoutID}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}
	query += ` ORDER BY date DESC, id DESC`

	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStoreError("failed to list logs", err)
	}
	return logsFromRows(rows), nil
}

// ListByUser はユーザーの全記録を新しい順で返す。
func (r *PostgresLogRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Log, error) {
	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+logColumns+` FROM logs WHERE user_id = $1 ORDER BY date DESC, id DESC`,
		userID,
	); err != nil {
		return nil, wrapStoreError("failed to list user logs", err)
	}
	return logsFromRows(rows), nil
}

func logsFromRows(rows []logRow) []*model.Log {
	logs := make([]*model.Log, len(rows))
	for i, row := range rows {
		logs[i] = row.toModel()
	}
	return logs
}

// compile-time interface check
var _ LogRepository = (*PostgresLogRepo)(nil)
