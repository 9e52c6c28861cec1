package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

// workoutRow はworkoutsテーブルの1行。
type workoutRow struct {
	ID            int64           `db:"id"`
	DayID         int64           `db:"day_id"`
	UserID        int64           `db:"user_id"`
	Name          string          `db:"name"`
	PlannedSets   int             `db:"planned_sets"`
	PlannedReps   int             `db:"planned_reps"`
	Youtube       sql.NullString  `db:"youtube"`
	CurrentWeight sql.NullFloat64 `db:"current_weight"`
	Completed     bool            `db:"completed"`
	Position      sql.NullInt64   `db:"position"`
}

func (r workoutRow) toModel() *model.Workout {
	w := &model.Workout{
		ID:          r.ID,
		DayID:       r.DayID,
		UserID:      r.UserID,
		Name:        r.Name,
		PlannedSets: r.PlannedSets,
		PlannedReps: r.PlannedReps,
		Completed:   r.Completed,
		Position:    int(r.Position.Int64),
	}
	if r.Youtube.Valid {
		y := r.Youtube.String
		w.Youtube = &y
	}
	if r.CurrentWeight.Valid {
		cw := r.CurrentWeight.Float64
		w.CurrentWeight = &cw
	}
	return w
}

const workoutColumns = `id, day_id, user_id, name, planned_sets, planned_reps, youtube, current_weight, completed, position`

const workoutOrder = ` ORDER BY position ASC NULLS LAST, id ASC`

// PostgresWorkoutRepo はPostgreSQLを使用したワークアウトリポジトリ。
type PostgresWorkoutRepo struct {
	db *sqlx.DB
}

// NewPostgresWorkoutRepo はPostgresWorkoutRepoを生成する。
func NewPostgresWorkoutRepo(db *sqlx.DB) *PostgresWorkoutRepo {
	return &PostgresWorkoutRepo{db: db}
}

// ListByDay はDayのワークアウトを並び順で返す。
func (r *PostgresWorkoutRepo) ListByDay(ctx context.Context, dayID int64, userID *int64) ([]*model.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE day_id = $1`
	args := []interface{}{dayID}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}
	query += workoutOrder

	var rows []workoutRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStoreError("failed to list workouts", err)
	}
	return workoutsFromRows(rows), nil
}

// FindByID はユーザーが所有する指定IDのワークアウトを取得する。
func (r *PostgresWorkoutRepo) FindByID(ctx context.Context, id, userID int64) (*model.Workout, error) {
	return r.getOne(ctx, r.db, "failed to find workout",
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID)
}

// Add はワークアウトを末尾に追加する。
// 親Day行をロックしてから最大positionを求めるため、同時追加でも番号は重複しない。
// Dayが存在しないか所有者が異なる場合はnilを返す。
func (r *PostgresWorkoutRepo) Add(ctx context.Context, dayID int64, in model.WorkoutInput, userID int64) (*model.Workout, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.GetContext(ctx, &lockedID,
		`SELECT id FROM days WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		dayID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to lock day", err)
	}

	w, err := r.getOne(ctx, tx, "failed to insert workout",
		`INSERT INTO workouts (day_id, user_id, name, planned_sets, planned_reps, youtube, position)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM workouts WHERE day_id = $1))
		 RETURNING `+workoutColumns,
		dayID, userID, in.Name, in.PlannedSets, in.PlannedReps, in.Youtube)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreError("failed to commit transaction", err)
	}
	return w, nil
}

// Update は記述的フィールドを置き換える。
func (r *PostgresWorkoutRepo) Update(ctx context.Context, id int64, in model.WorkoutInput, userID int64) (*model.Workout, error) {
	return r.getOne(ctx, r.db, "failed to update workout",
		`UPDATE workouts
		 SET name = $3, planned_sets = $4, planned_reps = $5, youtube = $6
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+workoutColumns,
		id, userID, in.Name, in.PlannedSets, in.PlannedReps, in.Youtube)
}

// SetCompleted は完了フラグを更新する。
func (r *PostgresWorkoutRepo) SetCompleted(ctx context.Context, id int64, completed bool, userID int64) (*model.Workout, error) {
	return r.getOne(ctx, r.db, "failed to update workout completion",
		`UPDATE workouts SET completed = $3 WHERE id = $1 AND user_id = $2 RETURNING `+workoutColumns,
		id, userID, completed)
}

// SetCurrentWeight は現在の重量を更新する。
func (r *PostgresWorkoutRepo) SetCurrentWeight(ctx context.Context, id int64, weight *float64, userID int64) (*model.Workout, error) {
	return r.getOne(ctx, r.db, "failed to update current weight",
		`UPDATE workouts SET current_weight = $3 WHERE id = $1 AND user_id = $2 RETURNING `+workoutColumns,
		id, userID, weight)
}

// Delete はワークアウトを削除し、同じDayの残りを1から振り直す。
func (r *PostgresWorkoutRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, wrapStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// 振り直し中に同じDayへの追加が最大positionを読まないよう、Addと同じく親Day行を先にロックする
	var dayID int64
	err = tx.GetContext(ctx, &dayID,
		`SELECT id FROM days
		 WHERE id = (SELECT day_id FROM workouts WHERE id = $1 AND user_id = $2)
		 FOR UPDATE`,
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapStoreError("failed to lock day", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, wrapStoreError("failed to delete workout", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapStoreError("failed to delete workout", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workouts AS w
		 SET position = ranked.rn
		 FROM (
		     SELECT id, ROW_NUMBER() OVER (ORDER BY position ASC NULLS LAST, id ASC) AS rn
		     FROM workouts WHERE day_id = $1
		 ) AS ranked
		 WHERE w.id = ranked.id AND w.position IS DISTINCT FROM ranked.rn`,
		dayID,
	); err != nil {
		return false, wrapStoreError("failed to renumber workouts", err)
	}

	if err := tx.Commit(); err != nil {
		return false, wrapStoreError("failed to commit transaction", err)
	}
	return true, nil
}

// Reorder はorderedIDsの順にpositionを振り直す。
// Dayに属さないIDは無視し、言及されなかったIDは現在の順で後ろに続ける。
// 1件も一致しなければfalseを返す。
func (r *PostgresWorkoutRepo) Reorder(ctx context.Context, dayID int64, orderedIDs []int64, userID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, wrapStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.GetContext(ctx, &lockedID,
		`SELECT id FROM days WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		dayID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapStoreError("failed to lock day", err)
	}

	var current []int64
	if err := tx.SelectContext(ctx, &current,
		`SELECT id FROM workouts WHERE day_id = $1 AND user_id = $2`+workoutOrder+` FOR UPDATE`,
		dayID, userID,
	); err != nil {
		return false, wrapStoreError("failed to lock workouts", err)
	}

	final, matched := MergeOrder(current, orderedIDs)
	if matched == 0 {
		return false, nil
	}

	// (day_id, position)の一意制約はDEFERRABLEのため、途中で番号が重なってもよい
	stmt, err := tx.PreparexContext(ctx,
		`UPDATE workouts SET position = $1 WHERE id = $2 AND day_id = $3 AND user_id = $4`)
	if err != nil {
		return false, wrapStoreError("failed to prepare reorder", err)
	}
	defer stmt.Close()

	for i, id := range final {
		if _, err := stmt.ExecContext(ctx, i+1, id, dayID, userID); err != nil {
			return false, wrapStoreError("failed to update position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, wrapStoreError("failed to commit transaction", err)
	}
	return true, nil
}

func (r *PostgresWorkoutRepo) getOne(ctx context.Context, q sqlx.QueryerContext, op, query string, args ...interface{}) (*model.Workout, error) {
	var row workoutRow
	err := sqlx.GetContext(ctx, q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError(op, err)
	}
	return row.toModel(), nil
}

func workoutsFromRows(rows []workoutRow) []*model.Workout {
	workouts := make([]*model.Workout, len(rows))
	for i, row := range rows {
		workouts[i] = row.toModel()
	}
	return workouts
}

// compile-time interface check
var _ WorkoutRepository = (*PostgresWorkoutRepo)(nil)
