package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/hitoshi/storybook/internal/metrics"
	"github.com/hitoshi/storybook/internal/middleware"
	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/story"
	"github.com/hitoshi/storybook/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, bool, error)
	logoutFn         func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn == nil {
		return "https://accounts.google.com/o/oauth2/auth?state=" + state
	}
	return m.getLoginURLFn(state)
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, bool, error) {
	return m.handleCallbackFn(ctx, code)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn == nil {
		return nil
	}
	return m.logoutFn(ctx, sessionID)
}

// mockStoryService はStoryServiceInterfaceのモック実装。
type mockStoryService struct {
	createFn           func(ctx context.Context, ownerID string, in story.Input) (*model.Story, error)
	listByOwnerFn      func(ctx context.Context, ownerID string) ([]*model.Story, error)
	listPublicFn       func(ctx context.Context) ([]*model.StoryWithOwner, error)
	listPublicByUserFn func(ctx context.Context, userID string) ([]*model.StoryWithOwner, error)
	getFn              func(ctx context.Context, id string) (*model.Story, error)
	getWithOwnerFn     func(ctx context.Context, id string) (*model.StoryWithOwner, error)
	updateFn           func(ctx context.Context, id, viewerID string, in story.Input) (*model.Story, error)
	deleteFn           func(ctx context.Context, id, viewerID string) error
}

func (m *mockStoryService) Create(ctx context.Context, ownerID string, in story.Input) (*model.Story, error) {
	return m.createFn(ctx, ownerID, in)
}

func (m *mockStoryService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Story, error) {
	if m.listByOwnerFn == nil {
		return nil, nil
	}
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockStoryService) ListPublic(ctx context.Context) ([]*model.StoryWithOwner, error) {
	if m.listPublicFn == nil {
		return nil, nil
	}
	return m.listPublicFn(ctx)
}

func (m *mockStoryService) ListPublicByUser(ctx context.Context, userID string) ([]*model.StoryWithOwner, error) {
	return m.listPublicByUserFn(ctx, userID)
}

func (m *mockStoryService) Get(ctx context.Context, id string) (*model.Story, error) {
	return m.getFn(ctx, id)
}

func (m *mockStoryService) GetWithOwner(ctx context.Context, id string) (*model.StoryWithOwner, error) {
	return m.getWithOwnerFn(ctx, id)
}

func (m *mockStoryService) Update(ctx context.Context, id, viewerID string, in story.Input) (*model.Story, error) {
	return m.updateFn(ctx, id, viewerID, in)
}

func (m *mockStoryService) Delete(ctx context.Context, id, viewerID string) error {
	return m.deleteFn(ctx, id, viewerID)
}

// mockUserLoader はセッションIDとユーザーの対応表によるCurrentUserLoader。
type mockUserLoader struct {
	users map[string]*model.User
}

func (m *mockUserLoader) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	return m.users[sessionID], nil
}

// alwaysPinger は常に成功するPinger。
type alwaysPinger struct{}

func (alwaysPinger) PingContext(ctx context.Context) error { return nil }

// testRenderer はテスト用の実レンダラーを返す。
func testRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}

// routerDeps はテスト用のRouterDepsを組み立てる。
// sessionsはセッションID→ユーザーの対応表。
func routerDeps(t *testing.T, authSvc AuthServiceInterface, storySvc StoryServiceInterface, sessions map[string]*model.User) (*RouterDeps, *middleware.RateLimiter) {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return &RouterDeps{
		Logger:         slog.New(slog.DiscardHandler),
		UserLoader:     &mockUserLoader{users: sessions},
		RateLimiter:    rl,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		AuthService:    authSvc,
		AuthConfig:     AuthHandlerConfig{SessionMaxAge: 86400},
		StoryService:   storySvc,
		Renderer:       testRenderer(t),
		DB:             alwaysPinger{},
	}, rl
}

// sessionCookie はテスト用のセッションCookieを返す。
func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{Name: "session_id", Value: id}
}
