// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// Emailは常に小文字に正規化された値を保持する。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}

// DisplayName は共有コード生成などに使う表示名を返す。
// 名前が未設定の場合はメールアドレスのローカル部を返す。
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// NormalizeEmail はメールアドレスを比較・保存用に正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
