package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/jmoiron/sqlx"
)

// userRow はusersテーブルの1行。
type userRow struct {
	ID           int64          `db:"id"`
	Name         sql.NullString `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Admin        bool           `db:"admin"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Admin:        r.Admin,
		CreatedAt:    r.CreatedAt,
	}
}

const userColumns = `id, name, email, password_hash, admin, created_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sqlx.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sqlx.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成する。
// lower(email)の一意インデックス違反はmodel.ErrDuplicateEmailとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		nullString(name), model.NormalizeEmail(email), passwordHash,
	)
	if isUniqueViolation(err, constraintUsersEmail) {
		return nil, model.ErrDuplicateEmail
	}
	if err != nil {
		return nil, wrapStoreError("failed to insert user", err)
	}
	return row.toModel(), nil
}

// FindByEmail は正規化したメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`,
		model.NormalizeEmail(email),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to find user by email", err)
	}
	return row.toModel(), nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError(fmt.Sprintf("failed to find user %d", id), err)
	}
	return row.toModel(), nil
}

// SetAdmin は管理者フラグを更新する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE users SET admin = $2 WHERE lower(email) = $1 RETURNING `+userColumns,
		model.NormalizeEmail(email), admin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreError("failed to update admin flag", err)
	}
	return row.toModel(), nil
}

// nullString は空文字列をNULLとして扱う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
