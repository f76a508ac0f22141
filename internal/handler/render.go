package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storybook/internal/middleware"
	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/view"
)

// currentUser はコンテキストから認証済みユーザーを取得する。未認証の場合はnil。
func currentUser(r *http.Request) *model.User {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		return nil
	}
	return user
}

// renderPage はページを描画し、失敗した場合はプレーンな500にフォールバックする。
func renderPage(w http.ResponseWriter, renderer PageRenderer, status int, page string, data view.Data) {
	if err := renderer.Render(w, status, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// renderNotFound は404ページを描画する。
func renderNotFound(w http.ResponseWriter, r *http.Request, renderer PageRenderer) {
	renderPage(w, renderer, http.StatusNotFound, "errors/notfound", view.Data{
		"User": currentUser(r),
	})
}

// renderServerError は500ページを描画する。
func renderServerError(w http.ResponseWriter, renderer PageRenderer) {
	renderPage(w, renderer, http.StatusInternalServerError, "errors/server", nil)
}
