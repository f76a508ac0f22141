// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/storybook/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByProviderID はプロバイダーIDでユーザーを検索する。見つからない場合はnilを返す。
	// ログイン時のfind-or-createの検索手段。
	FindByProviderID(ctx context.Context, providerID string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// StoryRepository はストーリーデータの永続化インターフェース。
type StoryRepository interface {
	// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Story, error)

	// FindByIDWithOwner は指定IDのストーリーを所有者情報とJOINして取得する。
	// 見つからない場合はnilを返す。
	FindByIDWithOwner(ctx context.Context, id string) (*model.StoryWithOwner, error)

	// ListByUserID は指定ユーザーの全ストーリー（公開・非公開問わず）を
	// created_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Story, error)

	// ListPublic は公開ストーリーを所有者情報とJOINしてcreated_at降順で返す。
	ListPublic(ctx context.Context) ([]*model.StoryWithOwner, error)

	// ListPublicByUserID は指定ユーザーの公開ストーリーを所有者情報とJOINして
	// created_at降順で返す。
	ListPublicByUserID(ctx context.Context, userID string) ([]*model.StoryWithOwner, error)

	// Create はストーリーを作成する。
	Create(ctx context.Context, story *model.Story) error

	// Update はタイトル・本文・ステータスを上書き更新する。
	// user_idとcreated_atは更新しない。
	Update(ctx context.Context, story *model.Story) error

	// DeleteByID は指定IDのストーリーを削除する。
	DeleteByID(ctx context.Context, id string) error
}
