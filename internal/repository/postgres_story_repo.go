package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storybook/internal/model"
)

// PostgresStoryRepo はPostgreSQLを使用したストーリーリポジトリ。
type PostgresStoryRepo struct {
	db *sql.DB
}

// NewPostgresStoryRepo はPostgresStoryRepoを生成する。
func NewPostgresStoryRepo(db *sql.DB) *PostgresStoryRepo {
	return &PostgresStoryRepo{db: db}
}

// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
func (r *PostgresStoryRepo) FindByID(ctx context.Context, id string) (*model.Story, error) {
	story := &model.Story{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, body, status, user_id, created_at
		 FROM stories WHERE id = $1`,
		id,
	).Scan(&story.ID, &story.Title, &story.Body, &story.Status, &story.UserID, &story.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find story by ID: %w", err)
	}

	return story, nil
}

// FindByIDWithOwner は指定IDのストーリーを所有者情報とJOINして取得する。
// 見つからない場合はnilを返す。
func (r *PostgresStoryRepo) FindByIDWithOwner(ctx context.Context, id string) (*model.StoryWithOwner, error) {
	sw := &model.StoryWithOwner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.title, s.body, s.status, s.user_id, s.created_at,
		        u.id, u.provider_id, u.display_name, u.first_name, u.last_name, u.image_url, u.created_at
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = $1`,
		id,
	).Scan(
		&sw.ID, &sw.Title, &sw.Body, &sw.Status, &sw.UserID, &sw.CreatedAt,
		&sw.Owner.ID, &sw.Owner.ProviderID, &sw.Owner.DisplayName, &sw.Owner.FirstName, &sw.Owner.LastName, &sw.Owner.ImageURL, &sw.Owner.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find story with owner: %w", err)
	}

	return sw, nil
}

// ListByUserID は指定ユーザーの全ストーリーをcreated_at降順で返す。
func (r *PostgresStoryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, body, status, user_id, created_at
		 FROM stories
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories by user: %w", err)
	}
	defer rows.Close()

	var stories []*model.Story
	for rows.Next() {
		story := &model.Story{}
		if err := rows.Scan(&story.ID, &story.Title, &story.Body, &story.Status, &story.UserID, &story.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return stories, nil
}

// ListPublic は公開ストーリーを所有者情報とJOINしてcreated_at降順で返す。
func (r *PostgresStoryRepo) ListPublic(ctx context.Context) ([]*model.StoryWithOwner, error) {
	return r.listPublicWithOwner(ctx,
		`SELECT s.id, s.title, s.body, s.status, s.user_id, s.created_at,
		        u.id, u.provider_id, u.display_name, u.first_name, u.last_name, u.image_url, u.created_at
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.status = 'public'
		 ORDER BY s.created_at DESC`,
	)
}

// ListPublicByUserID は指定ユーザーの公開ストーリーを所有者情報とJOINして
// created_at降順で返す。
func (r *PostgresStoryRepo) ListPublicByUserID(ctx context.Context, userID string) ([]*model.StoryWithOwner, error) {
	return r.listPublicWithOwner(ctx,
		`SELECT s.id, s.title, s.body, s.status, s.user_id, s.created_at,
		        u.id, u.provider_id, u.display_name, u.first_name, u.last_name, u.image_url, u.created_at
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.status = 'public' AND s.user_id = $1
		 ORDER BY s.created_at DESC`,
		userID,
	)
}

// listPublicWithOwner は所有者JOIN付き一覧クエリの共通実装。
func (r *PostgresStoryRepo) listPublicWithOwner(ctx context.Context, query string, args ...any) ([]*model.StoryWithOwner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	defer rows.Close()

	var stories []*model.StoryWithOwner
	for rows.Next() {
		sw := &model.StoryWithOwner{}
		if err := rows.Scan(
			&sw.ID, &sw.Title, &sw.Body, &sw.Status, &sw.UserID, &sw.CreatedAt,
			&sw.Owner.ID, &sw.Owner.ProviderID, &sw.Owner.DisplayName, &sw.Owner.FirstName, &sw.Owner.LastName, &sw.Owner.ImageURL, &sw.Owner.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story with owner: %w", err)
		}
		stories = append(stories, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return stories, nil
}

// Create はストーリーを作成する。
func (r *PostgresStoryRepo) Create(ctx context.Context, story *model.Story) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stories (id, title, body, status, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		story.ID, story.Title, story.Body, story.Status, story.UserID, story.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

// Update はタイトル・本文・ステータスを上書き更新する。
// user_idとcreated_atは更新しない。
func (r *PostgresStoryRepo) Update(ctx context.Context, story *model.Story) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE stories SET title = $1, body = $2, status = $3 WHERE id = $4`,
		story.Title, story.Body, story.Status, story.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("story not found: %s", story.ID)
	}
	return nil
}

// DeleteByID は指定IDのストーリーを削除する。
func (r *PostgresStoryRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM stories WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StoryRepository = (*PostgresStoryRepo)(nil)
