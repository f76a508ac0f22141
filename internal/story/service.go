// Package story はストーリーのCRUDに関するビジネスロジックを提供する。
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/repository"
	"github.com/hitoshi/storybook/internal/security"
)

var (
	// ErrNotFound は指定IDのストーリーが存在しないことを示す。
	ErrNotFound = errors.New("story not found")
	// ErrNotOwner は所有者以外がストーリーを変更しようとしたことを示す。
	ErrNotOwner = errors.New("story is not owned by the requesting user")
)

// Input はストーリー作成・更新のフォーム入力を表す。
// 所有者はクライアント入力からは受け付けず、サーバー側でセッションから設定する。
type Input struct {
	Title  string
	Body   string
	Status string
}

// Service はストーリーに関するビジネスロジックを提供する。
type Service struct {
	storyRepo repository.StoryRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(storyRepo repository.StoryRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		storyRepo: storyRepo,
		sanitizer: sanitizer,
	}
}

// validate は作成と更新で共通のスキーマ検証を行い、正規化済みの値を返す。
// タイトルは前後の空白を除去する。ステータスは未指定の場合publicになる。
func validate(in Input) (title, body string, status model.StoryStatus, err error) {
	title = strings.TrimSpace(in.Title)
	if title == "" {
		return "", "", "", model.NewRequiredFieldError("title")
	}

	body = in.Body
	if body == "" {
		return "", "", "", model.NewRequiredFieldError("body")
	}

	status = model.StoryStatus(in.Status)
	if in.Status == "" {
		status = model.StatusPublic
	}
	if !status.IsValid() {
		return "", "", "", model.NewInvalidStatusError(in.Status)
	}

	return title, body, status, nil
}

// Create は新規ストーリーを作成する。
// 所有者は認証済みセッションのユーザーIDから設定され、以降移転されない。
// 本文は保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*model.Story, error) {
	title, body, status, err := validate(in)
	if err != nil {
		return nil, err
	}

	story := &model.Story{
		ID:        uuid.New().String(),
		Title:     title,
		Body:      s.sanitizer.Sanitize(body),
		Status:    status,
		UserID:    ownerID,
		CreatedAt: time.Now(),
	}

	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	slog.Info("story created",
		slog.String("story_id", story.ID),
		slog.String("user_id", ownerID),
		slog.String("status", string(story.Status)),
	)

	return story, nil
}

// ListByOwner は指定ユーザーの全ストーリー（公開・非公開問わず）を返す。
// ダッシュボード表示用。
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*model.Story, error) {
	stories, err := s.storyRepo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// ListPublic は公開ストーリーを所有者情報付きで新しい順に返す。
func (s *Service) ListPublic(ctx context.Context) ([]*model.StoryWithOwner, error) {
	stories, err := s.storyRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	return stories, nil
}

// ListPublicByUser は指定ユーザーの公開ストーリーを所有者情報付きで返す。
func (s *Service) ListPublicByUser(ctx context.Context, userID string) ([]*model.StoryWithOwner, error) {
	stories, err := s.storyRepo.ListPublicByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user stories: %w", err)
	}
	return stories, nil
}

// Get は指定IDのストーリーを取得する。見つからない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// GetWithOwner は指定IDのストーリーを所有者情報付きで取得する。
// 見つからない場合はnilを返す。
func (s *Service) GetWithOwner(ctx context.Context, id string) (*model.StoryWithOwner, error) {
	story, err := s.storyRepo.FindByIDWithOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story with owner: %w", err)
	}
	return story, nil
}

// Update はストーリーを更新する。作成時と同一の検証規則を適用する。
// viewerIDが所有者と一致しない場合はErrNotOwnerを返し、状態を変更しない。
// 所有者とcreated_atは変更されない。
func (s *Service) Update(ctx context.Context, id, viewerID string, in Input) (*model.Story, error) {
	existing, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find story: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.UserID != viewerID {
		return nil, ErrNotOwner
	}

	title, body, status, err := validate(in)
	if err != nil {
		return nil, err
	}

	existing.Title = title
	existing.Body = s.sanitizer.Sanitize(body)
	existing.Status = status

	if err := s.storyRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}

	slog.Info("story updated",
		slog.String("story_id", id),
		slog.String("user_id", viewerID),
	)

	return existing, nil
}

// Delete はストーリーを削除する。
// 他の変更系操作と同様に所有者チェックを行い、所有者以外にはErrNotOwnerを返す。
func (s *Service) Delete(ctx context.Context, id, viewerID string) error {
	existing, err := s.storyRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find story: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}
	if existing.UserID != viewerID {
		return ErrNotOwner
	}

	if err := s.storyRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	slog.Info("story deleted",
		slog.String("story_id", id),
		slog.String("user_id", viewerID),
	)

	return nil
}
