// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NoteSanitizerService はセッション記録・カルテメモの本文をサニタイズし、
// 格納データ経由のXSSからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 臨床記録に必要な最小限の整形タグのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NoteSanitizerService は臨床記録本文のサニタイズ機能のインターフェースを定義する。
// セッションメモ・詳細レポート・カルテメモの保存前に使用される。
type NoteSanitizerService interface {
	// Sanitize は記録本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, style, a, imgタグおよびon*イベント属性を除去する。
	// 臨床記録に外部リンクや埋め込み画像は不要なため許可しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// noteSanitizer はNoteSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type noteSanitizer struct {
	policy *bluemonday.Policy
}

// NewNoteSanitizer はNoteSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em（整形のみ）
//   - 禁止タグ: script, iframe, style, a, img および全てのon*イベント属性
//
// 記録はフォームのテキスト入力由来であり、リンクや画像を許可する理由がない。
func NewNoteSanitizer() *noteSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)
	return &noteSanitizer{
		policy: p,
	}
}

// Sanitize は記録本文をサニタイズして安全なHTMLを返す。
// サニタイズ後の前後空白は取り除く。
func (s *noteSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
