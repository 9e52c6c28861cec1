package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

type exerciseRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	TargetMuscle sql.NullString `db:"target_muscle"`
	Equipment    sql.NullString `db:"equipment"`
	ImagePath    sql.NullString `db:"image_path"`
	Description  sql.NullString `db:"description"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r exerciseRow) toModel() *model.Exercise {
	return &model.Exercise{
		ID:           r.ID,
		Name:         r.Name,
		TargetMuscle: r.TargetMuscle.String,
		Equipment:    r.Equipment.String,
		ImagePath:    r.ImagePath.String,
		Description:  r.Description.String,
		CreatedAt:    r.CreatedAt,
	}
}

const exerciseColumns = `id, name, target_muscle, equipment, image_path, description, created_at`

// PostgresExerciseRepo はPostgreSQLを使用した種目カタログリポジトリ。
type PostgresExerciseRepo struct {
	db *sqlx.DB
}

// NewPostgresExerciseRepo はPostgresExerciseRepoを生成する。
func NewPostgresExerciseRepo(db *sqlx.DB) *PostgresExerciseRepo {
	return &PostgresExerciseRepo{db: db}
}

// List は種目を名前順で返す。searchが空でなければ名前・部位・器具の部分一致で絞り込む。
func (r *PostgresExerciseRepo) List(ctx context.Context, search string) ([]*model.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises`
	var args []interface{}
	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE name ILIKE $1 OR target_muscle ILIKE $1 OR equipment ILIKE $1`
		args = append(args, "%"+escapeLike(s)+"%")
	}
	query += ` ORDER BY name ASC, id ASC`

	var rows []exerciseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStoreError("failed to list exercises", err)
	}

	exercises := make([]*model.Exercise, len(rows))
	for i, row := range rows {
		exercises[i] = row.toModel()
	}
	return exercises, nil
}

// FindByID は指定IDの種目を取得する。見つからない場合はnilを返す。
func (r *PostgresExerciseRepo) FindByID(ctx context.Context, id int64) (*model.Exercise, error) {
	return r.getOne(ctx, "failed to find exercise",
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
}

// Create は種目を作成する。
func (r *PostgresExerciseRepo) Create(ctx context.Context, in model.ExerciseInput) (*model.Exercise, error) {
	return r.getOne(ctx, "failed to insert exercise",
		`INSERT INTO exercises (name, target_muscle, equipment, image_path, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+exerciseColumns,
		in.Name, nullString(in.TargetMuscle), nullString(in.Equipment),
		nullString(in.ImagePath), nullString(in.Description))
}

// Update は種目を更新する。見つからない場合はnilを返す。
func (r *PostgresExerciseRepo) Update(ctx context.Context, id int64, in model.ExerciseInput) (*model.Exercise, error) {
	return r.getOne(ctx, "failed to update exercise",
		`UPDATE exercises
		 SET name = $2, target_muscle = $3, equipment = $4, image_path = $5, description = $6
		 WHERE id = $1
		 RETURNING `+exerciseColumns,
		id, in.Name, nullString(in.TargetMuscle), nullString(in.Equipment),
		nullString(in.ImagePath), nullString(in.Description))
}

// Delete は種目を削除する。
func (r *PostgresExerciseRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return false, wrapStoreError("failed to delete exercise", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, wrapStoreError("failed to get rows affected", err)
	}
	return n > 0, nil
}

func (r *PostgresExerciseRepo) getOne(ctx context.Context, op, query string, args ...interface{}) (*model.Exercise, error) {
	var row exerciseRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError(op, err)
	}
	return row.toModel(), nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// compile-time interface check
var _ ExerciseRepository = (*PostgresExerciseRepo)(nil)
