package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

type bmiRow struct {
	ID     int64     `db:"id"`
	UserID int64     `db:"user_id"`
	Weight float64   `db:"weight"`
	Height float64   `db:"height"`
	BMI    float64   `db:"bmi"`
	Date   time.Time `db:"date"`
}

func (r bmiRow) toModel() *model.BMIRecord {
	return &model.BMIRecord{
		ID:     r.ID,
		UserID: r.UserID,
		Weight: r.Weight,
		Height: r.Height,
		BMI:    r.BMI,
		Date:   r.Date,
	}
}

const bmiColumns = `id, user_id, weight, height, bmi, date`

// PostgresBMIRepo はPostgreSQLを使用したBMI記録リポジトリ。
type PostgresBMIRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresBMIRepo はPostgresBMIRepoを生成する。
func NewPostgresBMIRepo(db *sqlx.DB) *PostgresBMIRepo {
	return &PostgresBMIRepo{db: db, now: time.Now}
}

// Add はBMI記録を追加する。
func (r *PostgresBMIRepo) Add(ctx context.Context, userID int64, in model.BMIInput) (*model.BMIRecord, error) {
	date := r.now().UTC()
	if in.Date != nil {
		date = *in.Date
	}

	var row bmiRow
	if err := r.db.GetContext(ctx, &row,
		`INSERT INTO imc_records (user_id, weight, height, bmi, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+bmiColumns,
		userID, in.Weight, in.Height, in.BMI, date,
	); err != nil {
		return nil, wrapStoreError("failed to insert bmi record", err)
	}
	return row.toModel(), nil
}

// ListByUser はユーザーのBMI記録を新しい順で返す。
func (r *PostgresBMIRepo) ListByUser(ctx context.Context, userID int64) ([]*model.BMIRecord, error) {
	var rows []bmiRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+bmiColumns+` FROM imc_records WHERE user_id = $1 ORDER BY date DESC, id DESC`,
		userID,
	); err != nil {
		return nil, wrapStoreError("failed to list bmi records", err)
	}

	records := make([]*model.BMIRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toModel()
	}
	return records, nil
}

// Delete はユーザーのBMI記録を1件削除する。
func (r *PostgresBMIRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM imc_records WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, wrapStoreError("failed to delete bmi record", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, wrapStoreError("failed to get rows affected", err)
	}
	return n > 0, nil
}

// Clear はユーザーのBMI記録をすべて削除する。
func (r *PostgresBMIRepo) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM imc_records WHERE user_id = $1`,
		userID,
	); err != nil {
		return wrapStoreError("failed to clear bmi records", err)
	}
	return nil
}

// compile-time interface check
var _ BMIRepository = (*PostgresBMIRepo)(nil)
