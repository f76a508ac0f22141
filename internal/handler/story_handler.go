package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storybook/internal/middleware"
	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/story"
	"github.com/hitoshi/storybook/internal/view"
)

// StoryServiceInterface はストーリーハンドラーが必要とするサービスインターフェース。
type StoryServiceInterface interface {
	Create(ctx context.Context, ownerID string, in story.Input) (*model.Story, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Story, error)
	ListPublic(ctx context.Context) ([]*model.StoryWithOwner, error)
	ListPublicByUser(ctx context.Context, userID string) ([]*model.StoryWithOwner, error)
	Get(ctx context.Context, id string) (*model.Story, error)
	GetWithOwner(ctx context.Context, id string) (*model.StoryWithOwner, error)
	Update(ctx context.Context, id, viewerID string, in story.Input) (*model.Story, error)
	Delete(ctx context.Context, id, viewerID string) error
}

// StoryMetrics はストーリー操作で記録するメトリクスのインターフェース。
type StoryMetrics interface {
	RecordStoryCreated()
	RecordStoryUpdated()
	RecordStoryDeleted()
}

// StoryHandler はストーリーCRUDのHTTPハンドラー。
// 全ルートは認証ゲートの内側に配置される。
type StoryHandler struct {
	service  StoryServiceInterface
	renderer PageRenderer
	metrics  StoryMetrics
}

// NewStoryHandler はStoryHandlerを生成する。
func NewStoryHandler(service StoryServiceInterface, renderer PageRenderer, metrics StoryMetrics) *StoryHandler {
	return &StoryHandler{
		service:  service,
		renderer: renderer,
		metrics:  metrics,
	}
}

// mustUser はコンテキストから認証済みユーザーを取得する。
// 認証ゲートの内側のみで呼ばれる前提だが、取得できない場合は
// ログイン画面へリダイレクトしてfalseを返す。
func mustUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

// AddForm は空のストーリー作成フォームを表示する。
// GET /stories/add
func (h *StoryHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "stories/add", view.Data{
		"User":          user,
		"StatusOptions": view.StoryStatusOptions,
	})
}

// Create はフォーム入力からストーリーを作成する。
// 所有者はセッションのユーザーから設定され、フォーム入力では指定できない。
// POST /stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	in := story.Input{
		Title:  r.PostFormValue("title"),
		Body:   r.PostFormValue("body"),
		Status: r.PostFormValue("status"),
	}

	if _, err := h.service.Create(r.Context(), user.ID, in); err != nil {
		slog.Error("failed to create story",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		renderServerError(w, h.renderer)
		return
	}

	h.metrics.RecordStoryCreated()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ListPublic は全ユーザーの公開ストーリーを新しい順に表示する。
// GET /stories
func (h *StoryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	stories, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("failed to list public stories", slog.String("error", err.Error()))
		renderServerError(w, h.renderer)
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "stories/index", view.Data{
		"User":    user,
		"Stories": stories,
	})
}

// ListByUser は指定ユーザーの公開ストーリーを表示する。
// GET /stories/user/{userID}
func (h *StoryHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "userID")
	stories, err := h.service.ListPublicByUser(r.Context(), targetID)
	if err != nil {
		slog.Error("failed to list user stories",
			slog.String("target_user_id", targetID),
			slog.String("error", err.Error()),
		)
		renderServerError(w, h.renderer)
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "stories/index", view.Data{
		"User":    user,
		"Stories": stories,
	})
}

// Show はストーリー詳細を所有者情報付きで表示する。
// 存在しない場合はnot-foundページを表示する。
// GET /stories/{id}
func (h *StoryHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.service.GetWithOwner(r.Context(), id)
	if err != nil {
		slog.Error("failed to get story",
			slog.String("story_id", id),
			slog.String("error", err.Error()),
		)
		renderServerError(w, h.renderer)
		return
	}
	if s == nil {
		renderNotFound(w, r, h.renderer)
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "stories/show", view.Data{
		"User":  user,
		"Story": s,
	})
}

// EditForm はストーリー編集フォームを表示する。
// 存在しない場合はnot-found、所有者以外は一覧へリダイレクトする。
// GET /stories/edit/{id}
func (h *StoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		slog.Error("failed to get story for edit",
			slog.String("story_id", id),
			slog.String("error", err.Error()),
		)
		renderServerError(w, h.renderer)
		return
	}
	if s == nil {
		renderNotFound(w, r, h.renderer)
		return
	}
	if s.UserID != user.ID {
		http.Redirect(w, r, "/stories", http.StatusSeeOther)
		return
	}

	renderPage(w, h.renderer, http.StatusOK, "stories/edit", view.Data{
		"User":          user,
		"Story":         s,
		"Status":        string(s.Status),
		"StatusOptions": view.StoryStatusOptions,
	})
}

// Update はフォーム入力からストーリーを更新する。
// 存在しない場合はnot-found、所有者以外は一覧へリダイレクトする。
// PUT /stories/{id}（POSTフォームの_method上書き経由）
func (h *StoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	in := story.Input{
		Title:  r.PostFormValue("title"),
		Body:   r.PostFormValue("body"),
		Status: r.PostFormValue("status"),
	}

	if _, err := h.service.Update(r.Context(), id, user.ID, in); err != nil {
		switch {
		case errors.Is(err, story.ErrNotFound):
			renderNotFound(w, r, h.renderer)
		case errors.Is(err, story.ErrNotOwner):
			http.Redirect(w, r, "/stories", http.StatusSeeOther)
		default:
			slog.Error("failed to update story",
				slog.String("story_id", id),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			renderServerError(w, h.renderer)
		}
		return
	}

	h.metrics.RecordStoryUpdated()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Delete はストーリーを削除する。所有者チェックはサービス層が行う。
// DELETE /stories/{id}（POSTフォームの_method上書き経由）
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		switch {
		case errors.Is(err, story.ErrNotFound):
			renderNotFound(w, r, h.renderer)
		case errors.Is(err, story.ErrNotOwner):
			http.Redirect(w, r, "/stories", http.StatusSeeOther)
		default:
			slog.Error("failed to delete story",
				slog.String("story_id", id),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			renderServerError(w, h.renderer)
		}
		return
	}

	h.metrics.RecordStoryDeleted()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
