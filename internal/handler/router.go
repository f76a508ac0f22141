package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storybook/internal/metrics"
	"github.com/hitoshi/storybook/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger      *slog.Logger
	UserLoader  middleware.CurrentUserLoader
	RateLimiter *middleware.RateLimiter

	// メトリクス
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ストーリー
	StoryService StoryServiceInterface

	// ビュー
	Renderer PageRenderer

	// 死活監視
	DB Pinger
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Session → Logging → Metrics → MethodOverride
//
// セッションミドルウェアは認証済みユーザーをコンテキストに注入するだけで、
// アクセス制御はルートグループごとのRequireAuth / RequireGuestが行う。
// Sessionをloggingより先に実行することで、アクセスログにuser_idが載る。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.UserLoader))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(metrics.NewHTTPMiddleware(deps.Metrics))
	r.Use(middleware.NewMethodOverrideMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.Metrics, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.StoryService, deps.Renderer)
	storyHandler := NewStoryHandler(deps.StoryService, deps.Renderer, deps.Metrics)
	healthHandler := NewHealthHandler(deps.DB)

	// 未定義ルートもHTMLのnot-foundページを返す
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		renderNotFound(w, req, deps.Renderer)
	})

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- 未認証専用のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireGuest())

		r.Get("/", pageHandler.Login)
		r.Get("/auth/google", authHandler.Login)
	})

	// --- ゲート外の認証フロー ---
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Get("/auth/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequireAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuth())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/dashboard", pageHandler.Dashboard)

		r.Route("/stories", func(r chi.Router) {
			r.Get("/", storyHandler.ListPublic)
			r.Get("/add", storyHandler.AddForm)
			r.Get("/user/{userID}", storyHandler.ListByUser)
			r.Get("/edit/{id}", storyHandler.EditForm)
			r.Get("/{id}", storyHandler.Show)

			// 書き込み系は専用のレート制限を追加
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.StoryWriteMiddleware())

				r.Post("/", storyHandler.Create)
				r.Put("/{id}", storyHandler.Update)
				r.Delete("/{id}", storyHandler.Delete)
			})
		})
	})

	return r
}
