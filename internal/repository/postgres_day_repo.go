package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

// dayRow はdaysテーブルの1行。
type dayRow struct {
	ID              int64          `db:"id"`
	UserID          int64          `db:"user_id"`
	Name            string         `db:"name"`
	Subtitle        sql.NullString `db:"subtitle"`
	Completed       bool           `db:"completed"`
	StartedAt       sql.NullTime   `db:"started_at"`
	FinishedAt      sql.NullTime   `db:"finished_at"`
	DurationSeconds sql.NullInt64  `db:"duration_seconds"`
	ShareCode       sql.NullString `db:"share_code"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r dayRow) toModel() *model.Day {
	d := &model.Day{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Subtitle:  r.Subtitle.String,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
	}
	if r.StartedAt.Valid {
		t := r.StartedAt.Time
		d.StartedAt = &t
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		d.FinishedAt = &t
	}
	if r.DurationSeconds.Valid {
		s := int(r.DurationSeconds.Int64)
		d.DurationSeconds = &s
	}
	if r.ShareCode.Valid {
		c := r.ShareCode.String
		d.ShareCode = &c
	}
	return d
}

const dayColumns = `id, user_id, name, subtitle, completed, started_at, finished_at, duration_seconds, share_code, created_at`

// PostgresDayRepo はPostgreSQLを使用したトレーニング日リポジトリ。
type PostgresDayRepo struct {
	db *sqlx.DB
}

// NewPostgresDayRepo はPostgresDayRepoを生成する。
func NewPostgresDayRepo(db *sqlx.DB) *PostgresDayRepo {
	return &PostgresDayRepo{db: db}
}

// ListByUser はユーザーのトレーニング日をID昇順で返す。
func (r *PostgresDayRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Day, error) {
	var rows []dayRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+dayColumns+` FROM days WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	); err != nil {
		return nil, wrapStoreError("failed to list days", err)
	}

	days := make([]*model.Day, len(rows))
	for i, row := range rows {
		days[i] = row.toModel()
	}
	return days, nil
}

// FindByID は所有者を問わず指定IDのトレーニング日を取得する。
func (r *PostgresDayRepo) FindByID(ctx context.Context, id int64) (*model.Day, error) {
	return r.getOne(ctx, "failed to find day",
		`SELECT `+dayColumns+` FROM days WHERE id = $1`, id)
}

// FindByIDForUser はユーザーが所有する指定IDのトレーニング日を取得する。
func (r *PostgresDayRepo) FindByIDForUser(ctx context.Context, id, userID int64) (*model.Day, error) {
	return r.getOne(ctx, "failed to find day",
		`SELECT `+dayColumns+` FROM days WHERE id = $1 AND user_id = $2`, id, userID)
}

// Create はトレーニング日を作成する。
func (r *PostgresDayRepo) Create(ctx context.Context, name, subtitle string, userID int64, shareCode *string) (*model.Day, error) {
	var row dayRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO days (user_id, name, subtitle, share_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+dayColumns,
		userID, name, subtitle, shareCode,
	)
	if isUniqueViolation(err, constraintDaysShareCode) {
		return nil, model.ErrShareCodeTaken
	}
	if err != nil {
		return nil, wrapStoreError("failed to insert day", err)
	}
	return row.toModel(), nil
}

// Delete は所有者が一致する場合のみ削除する。
func (r *PostgresDayRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM days WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, wrapStoreError("failed to delete day", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, wrapStoreError("failed to get rows affected", err)
	}
	return n > 0, nil
}

// SetShareCode は共有コードを設定またはクリアする。
func (r *PostgresDayRepo) SetShareCode(ctx context.Context, dayID int64, code *string, userID int64) (*model.Day, error) {
	day, err := r.getOne(ctx, "failed to update share code",
		`UPDATE days SET share_code = $3 WHERE id = $1 AND user_id = $2 RETURNING `+dayColumns,
		dayID, userID, code)
	if isUniqueViolation(err, constraintDaysShareCode) {
		return nil, model.ErrShareCodeTaken
	}
	return day, err
}

// FindByShareCode は所有者を問わず共有コードでトレーニング日を取得する。
func (r *PostgresDayRepo) FindByShareCode(ctx context.Context, code string) (*model.Day, error) {
	return r.getOne(ctx, "failed to find day by share code",
		`SELECT `+dayColumns+` FROM days WHERE share_code = $1`, code)
}

// Start はセッションを開始し、Day内の全ワークアウトを未完了に戻す。
func (r *PostgresDayRepo) Start(ctx context.Context, dayID, userID int64, now time.Time) (*model.Day, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var row dayRow
	err = tx.GetContext(ctx, &row,
		`UPDATE days
		 SET started_at = $3, finished_at = NULL, duration_seconds = NULL, completed = false
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+dayColumns,
		dayID, userID, now,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to start day", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workouts SET completed = false WHERE day_id = $1 AND user_id = $2`,
		dayID, userID,
	); err != nil {
		return nil, wrapStoreError("failed to reset workouts", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreError("failed to commit transaction", err)
	}
	return row.toModel(), nil
}

// CancelStart はstarted_atのみをクリアする。
func (r *PostgresDayRepo) CancelStart(ctx context.Context, dayID, userID int64) (*model.Day, error) {
	return r.getOne(ctx, "failed to cancel day",
		`UPDATE days SET started_at = NULL WHERE id = $1 AND user_id = $2 RETURNING `+dayColumns,
		dayID, userID)
}

// Complete はセッションを完了し、Day内の全ワークアウトを完了にする。
// 経過秒数の計算に使う現在時刻は呼び出し側から受け取る。
func (r *PostgresDayRepo) Complete(ctx context.Context, dayID, userID int64, now time.Time) (*model.Day, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapStoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var current dayRow
	err = tx.GetContext(ctx, &current,
		`SELECT `+dayColumns+` FROM days WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		dayID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to lock day", err)
	}

	duration := current.DurationSeconds
	if current.StartedAt.Valid {
		duration = sql.NullInt64{Int64: int64(DurationSeconds(current.StartedAt.Time, now)), Valid: true}
	}

	var row dayRow
	if err := tx.GetContext(ctx, &row,
		`UPDATE days
		 SET completed = true, started_at = NULL, finished_at = $3, duration_seconds = $4
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+dayColumns,
		dayID, userID, now, duration,
	); err != nil {
		return nil, wrapStoreError("failed to complete day", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workouts SET completed = true WHERE day_id = $1 AND user_id = $2`,
		dayID, userID,
	); err != nil {
		return nil, wrapStoreError("failed to complete workouts", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreError("failed to commit transaction", err)
	}
	return row.toModel(), nil
}

// getOne は1行を返すクエリを実行する。該当行がなければnilを返す。
func (r *PostgresDayRepo) getOne(ctx context.Context, op, query string, args ...interface{}) (*model.Day, error) {
	var row dayRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, err
		}
		return nil, wrapStoreError(op, err)
	}
	return row.toModel(), nil
}

// compile-time interface check
var _ DayRepository = (*PostgresDayRepo)(nil)
