package model

import "time"

// StoryStatus はストーリーの公開状態を表す。
type StoryStatus string

const (
	// StatusPublic は全ログインユーザーに公開されるストーリーを示す。
	StatusPublic StoryStatus = "public"
	// StatusPrivate は所有者本人のみ閲覧できるストーリーを示す。
	StatusPrivate StoryStatus = "private"
)

// IsValid はステータスが定義済みの値かどうかを判定する。
func (s StoryStatus) IsValid() bool {
	return s == StatusPublic || s == StatusPrivate
}

// Story はユーザーが投稿するテキスト記事を表す。
// UserIDは作成時にセッションから設定され、以降移転されない。
type Story struct {
	ID        string
	Title     string
	Body      string
	Status    StoryStatus
	UserID    string
	CreatedAt time.Time
}

// StoryWithOwner はストーリーと所有者情報をJOINした構造体。
// 公開一覧と詳細表示で使用する。
type StoryWithOwner struct {
	Story
	Owner User
}
