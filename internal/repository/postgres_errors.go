package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/lib/pq"
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation = pq.ErrorCode("23505")
	// 08xx: connection exception
	pqConnectionClass = pq.ErrorClass("08")
)

// 一意制約・インデックス名（マイグレーションと一致させること）
const (
	constraintUsersEmail    = "users_email_lower_idx"
	constraintDaysShareCode = "days_share_code_key"
)

// isUniqueViolation はerrが指定した制約の一意制約違反かどうかを判定する。
// constraintが空の場合は制約名を問わない。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint || strings.Contains(pqErr.Message, constraint)
}

// isConnectionError は接続レベルの障害かどうかを判定する。
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == pqConnectionClass
	}
	return false
}

// wrapStoreError は操作名を付けてストアエラーをラップする。
// 接続障害の場合はmodel.ErrStoreUnavailableでもerrors.Isできるようにする。
func wrapStoreError(op string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
