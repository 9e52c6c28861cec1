// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザー入力のテキストからマークアップを除去する。
// Day名やワークアウト名などはプレーンテキストとして保存し、
// 共有コード経由で他ユーザーに表示されてもHTMLとして解釈されないようにする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能を提供する。
// bluemondayのポリシーはスレッドセーフであり、1つのインスタンスを共有してよい。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はすべてのタグを除去するStrictPolicyでTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はタグを除去し、前後の空白を取り除いたテキストを返す。
// StrictPolicyが行うエンティティのエスケープは元に戻し、"&"などはそのまま保存する。
// 同一入力に対して常に同一出力を返す。
func (s *TextSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// CleanPtr はnilを保ったままCleanを適用する。空になった場合はnilを返す。
func (s *TextSanitizer) CleanPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	cleaned := s.Clean(*raw)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
