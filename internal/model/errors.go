package model

import "fmt"

// ValidationError は書き込み時のスキーマ検証エラーを表す。
// 作成と更新で同一の検証規則を適用する。
type ValidationError struct {
	Field  string // 対象フィールド名
	Reason string // 検証に失敗した理由
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewRequiredFieldError は必須フィールド未入力のエラーを生成する。
func NewRequiredFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field is empty"}
}

// NewInvalidStatusError は定義外のステータス値のエラーを生成する。
func NewInvalidStatusError(status string) *ValidationError {
	return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status value: %q", status)}
}
