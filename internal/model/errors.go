// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 機械可読なコードとHTTP互換のステータス番号を含み、
// 実バックエンドクライアントのエラー形状と互換性を持つ。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
	Status  int    // HTTP互換ステータス番号
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDuplicatePatient   = "DUPLICATE_PATIENT"
	ErrCodeDuplicateRequest   = "DUPLICATE_REQUEST"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeForbidden          = "FORBIDDEN"
)

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "この操作には心理士アカウントが必要です。",
		Status:  403,
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "メールアドレスまたはパスワードが正しくありません。",
		Status:  401,
	}
}

// NewNotFoundError は対象リソース未検出エラーを生成する。
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("指定された%sが見つかりません: %s", resource, id),
		Status:  404,
	}
}

// NewDuplicatePatientError は患者の重複登録エラーを生成する。
// 同一担当心理士の下で同じメールアドレスの患者は登録できない。
func NewDuplicatePatientError(email string) *APIError {
	return &APIError{
		Code:    ErrCodeDuplicatePatient,
		Message: fmt.Sprintf("このメールアドレスの患者は既に登録されています: %s", email),
		Status:  400,
	}
}

// NewDuplicateRequestError は依頼の重複登録エラーを生成する。
// 同じ心理士に対する保留中の依頼が既に存在する場合に返す。
func NewDuplicateRequestError() *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateRequest,
		Message: "この心理士に対する保留中の依頼が既に存在します。",
		Status:  400,
	}
}

// NewDuplicateUserError はユーザーの重複登録エラーを生成する。
func NewDuplicateUserError(email string) *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateUser,
		Message: fmt.Sprintf("このメールアドレスは既に使用されています: %s", email),
		Status:  400,
	}
}

// NewInvalidTransitionError は不正なステータス遷移エラーを生成する。
func NewInvalidTransitionError(from, to string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("ステータスを %s から %s へ変更することはできません。", from, to),
		Status:  409,
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf("リクエストが不正です: %s", reason),
		Status:  400,
	}
}
