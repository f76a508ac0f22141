// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// プロフィール項目は初回Googleログイン時にプロバイダープロフィールから
// コピーされ、以降更新されない。
type User struct {
	ID          string
	ProviderID  string // Google OAuthのsubject（sub）。find-or-createのキー。
	DisplayName string
	FirstName   string
	LastName    string
	ImageURL    string
	CreatedAt   time.Time
}

// Session はユーザーのログインセッションを表す。
// セッションにはユーザーIDのみを保持し、ユーザー情報は
// リクエストごとにDBから再取得する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
