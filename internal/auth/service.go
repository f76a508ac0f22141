// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/repository"
)

// ProviderProfile はOAuthプロバイダーから取得したプロフィールを表す。
type ProviderProfile struct {
	ProviderID  string
	DisplayName string
	FirstName   string
	LastName    string
	ImageURL    string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*ProviderProfile, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// provider_idでユーザーを検索し、未登録の場合はプロフィールからユーザーを自動作成する。
// プロフィール項目は初回ログイン時のみ保存され、以降のログインで更新されない。
// 戻り値のuserCreatedは初回ログインでユーザーが作成されたかどうかを示す。
// 永続化エラーの場合は認証を完了せずエラーを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (session *model.Session, userCreated bool, err error) {
	// 1. 認可コードをトークンに交換し、プロフィールを取得
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. provider_idで既存ユーザーを検索（find-or-create）
	user, err := s.userRepo.FindByProviderID(ctx, profile.ProviderID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	if user != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
		)
	} else {
		// 新規ユーザー: プロフィールからユーザーを作成
		user = &model.User{
			ID:          uuid.New().String(),
			ProviderID:  profile.ProviderID,
			DisplayName: profile.DisplayName,
			FirstName:   profile.FirstName,
			LastName:    profile.LastName,
			ImageURL:    profile.ImageURL,
			CreatedAt:   time.Now(),
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		userCreated = true

		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("display_name", user.DisplayName),
		)
	}

	// 3. セッションを発行
	session, err = s.createSession(ctx, user.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	return session, userCreated, nil
}

// Logout はセッションを破棄する。
// セッションが有効な場合は同一ユーザーの全セッションをまとめて失効させ、
// 全デバイスからのサインアウトとする。期限切れ等で解決できない場合は
// 提示されたセッション行のみ削除する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}

	if session != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, session.UserID); err != nil {
			return fmt.Errorf("failed to delete user sessions: %w", err)
		}
		slog.Info("user logged out",
			slog.String("session_id", sessionID),
			slog.String("user_id", session.UserID),
		)
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションにはユーザーIDのみを保持するため、ユーザー情報はDBから再取得する。
// セッションが存在しない・期限切れの場合はnilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
