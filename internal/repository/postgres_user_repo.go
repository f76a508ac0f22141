package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storybook/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider_id, display_name, first_name, last_name, image_url, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.ProviderID, &user.DisplayName, &user.FirstName, &user.LastName, &user.ImageURL, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByProviderID はプロバイダーIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider_id, display_name, first_name, last_name, image_url, created_at
		 FROM users WHERE provider_id = $1`,
		providerID,
	).Scan(&user.ID, &user.ProviderID, &user.DisplayName, &user.FirstName, &user.LastName, &user.ImageURL, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by provider ID: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, provider_id, display_name, first_name, last_name, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.ProviderID, user.DisplayName, user.FirstName, user.LastName, user.ImageURL, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
