package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storybook/internal/middleware"
	"github.com/hitoshi/storybook/internal/view"
)

// PageHandler はログイン画面とダッシュボードのHTTPハンドラー。
type PageHandler struct {
	stories  StoryServiceInterface
	renderer PageRenderer
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(stories StoryServiceInterface, renderer PageRenderer) *PageHandler {
	return &PageHandler{
		stories:  stories,
		renderer: renderer,
	}
}

// Login はランディング兼ログイン画面を表示する。
// GET /
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, http.StatusOK, "login", nil)
}

// Dashboard はログインユーザー自身のストーリー一覧（公開状態問わず）を表示する。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	stories, err := h.stories.ListByOwner(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load dashboard stories",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		renderServerError(w, h.renderer)
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "dashboard", view.Data{
		"User":    user,
		"Stories": stories,
	})
}
