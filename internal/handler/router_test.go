package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/storybook/internal/model"
	"github.com/hitoshi/storybook/internal/story"
)

func testUser() *model.User {
	return &model.User{
		ID:          "user-1",
		ProviderID:  "google-sub-1",
		DisplayName: "Taro Yamada",
		FirstName:   "Taro",
	}
}

func TestRouter_Gates(t *testing.T) {
	user := testUser()
	sessions := map[string]*model.User{"sess-1": user}

	storySvc := &mockStoryService{
		listByOwnerFn: func(ctx context.Context, ownerID string) ([]*model.Story, error) {
			return nil, nil
		},
	}
	deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
	router := NewRouter(deps)

	t.Run("未認証で保護ルートにアクセスするとログイン画面へ", func(t *testing.T) {
		for _, path := range []string{"/dashboard", "/stories", "/stories/add", "/stories/abc"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusSeeOther {
				t.Errorf("%s: expected 303, got %d", path, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/" {
				t.Errorf("%s: expected redirect to /, got %q", path, loc)
			}
		}
	})

	t.Run("認証済みでログイン画面にアクセスするとダッシュボードへ", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(sessionCookie("sess-1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/dashboard" {
			t.Errorf("expected redirect to /dashboard, got %q", loc)
		}
	})

	t.Run("未認証はログイン画面を表示できる", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/auth/google") {
			t.Error("expected login page to link to /auth/google")
		}
	})

	t.Run("認証済みはダッシュボードを表示できる", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(sessionCookie("sess-1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Welcome, Taro") {
			t.Error("expected dashboard greeting with first name")
		}
	})

	t.Run("セキュリティヘッダーが全レスポンスに付与される", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("expected nosniff header, got %q", got)
		}
	})

	t.Run("未定義ルートはnot-foundページ", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("ヘルスチェックは未認証で到達できる", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("メトリクスは未認証で到達できる", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRouter_StoryCRUD(t *testing.T) {
	owner := testUser()
	other := &model.User{ID: "user-2", DisplayName: "Hanako Sato", FirstName: "Hanako"}
	sessions := map[string]*model.User{
		"owner-sess": owner,
		"other-sess": other,
	}

	publicStory := &model.StoryWithOwner{
		Story: model.Story{
			ID:     "story-1",
			Title:  "A Public Story",
			Body:   "<p>hello world</p>",
			Status: model.StatusPublic,
			UserID: owner.ID,
		},
		Owner: *owner,
	}

	authedGet := func(t *testing.T, router http.Handler, path, sess string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(sessionCookie(sess))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	authedForm := func(t *testing.T, router http.Handler, path, sess string, form url.Values) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(sessionCookie(sess))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("一覧は公開ストーリーを所有者付きで表示する", func(t *testing.T) {
		storySvc := &mockStoryService{
			listPublicFn: func(ctx context.Context) ([]*model.StoryWithOwner, error) {
				return []*model.StoryWithOwner{publicStory}, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories", "other-sess")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "A Public Story") {
			t.Error("expected story title in listing")
		}
		if !strings.Contains(body, "Taro Yamada") {
			t.Error("expected owner display name in listing")
		}
		// 所有者以外には編集アイコンが表示されない
		if strings.Contains(body, "/stories/edit/story-1") {
			t.Error("edit icon should not be shown to non-owner")
		}
	})

	t.Run("所有者の一覧には編集アイコンが表示される", func(t *testing.T) {
		storySvc := &mockStoryService{
			listPublicFn: func(ctx context.Context) ([]*model.StoryWithOwner, error) {
				return []*model.StoryWithOwner{publicStory}, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories", "owner-sess")
		if !strings.Contains(rec.Body.String(), "/stories/edit/story-1") {
			t.Error("expected edit icon for owner")
		}
	})

	t.Run("作成は所有者をセッションから設定して303を返す", func(t *testing.T) {
		var gotOwner string
		var gotInput story.Input
		storySvc := &mockStoryService{
			createFn: func(ctx context.Context, ownerID string, in story.Input) (*model.Story, error) {
				gotOwner = ownerID
				gotInput = in
				return &model.Story{ID: "new-story"}, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedForm(t, router, "/stories", "owner-sess", url.Values{
			"title":  {"New Story"},
			"body":   {"content"},
			"status": {"private"},
			// フォームが所有者を指定しても無視される
			"user": {"user-2"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/dashboard" {
			t.Errorf("expected redirect to /dashboard, got %q", loc)
		}
		if gotOwner != owner.ID {
			t.Errorf("expected owner from session %q, got %q", owner.ID, gotOwner)
		}
		if gotInput.Title != "New Story" || gotInput.Status != "private" {
			t.Errorf("unexpected input: %+v", gotInput)
		}
	})

	t.Run("作成失敗はサーバーエラーページを表示する", func(t *testing.T) {
		storySvc := &mockStoryService{
			createFn: func(ctx context.Context, ownerID string, in story.Input) (*model.Story, error) {
				return nil, errors.New("db down")
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedForm(t, router, "/stories", "owner-sess", url.Values{"title": {"t"}, "body": {"b"}})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("詳細は存在しないIDでnot-foundページ", func(t *testing.T) {
		storySvc := &mockStoryService{
			getWithOwnerFn: func(ctx context.Context, id string) (*model.StoryWithOwner, error) {
				return nil, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories/missing", "owner-sess")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("詳細は本文をHTMLとして表示する", func(t *testing.T) {
		storySvc := &mockStoryService{
			getWithOwnerFn: func(ctx context.Context, id string) (*model.StoryWithOwner, error) {
				return publicStory, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories/story-1", "other-sess")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		// サニタイズ済み本文はエスケープされずそのまま出力される
		if !strings.Contains(rec.Body.String(), "<p>hello world</p>") {
			t.Error("expected story body rendered as HTML")
		}
	})

	t.Run("編集フォームは所有者以外を一覧へリダイレクトする", func(t *testing.T) {
		storySvc := &mockStoryService{
			getFn: func(ctx context.Context, id string) (*model.Story, error) {
				return &publicStory.Story, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories/edit/story-1", "other-sess")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/stories" {
			t.Errorf("expected redirect to /stories, got %q", loc)
		}
	})

	t.Run("編集フォームは所有者に事前入力済みフォームを表示する", func(t *testing.T) {
		storySvc := &mockStoryService{
			getFn: func(ctx context.Context, id string) (*model.Story, error) {
				return &publicStory.Story, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories/edit/story-1", "owner-sess")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `value="A Public Story"`) {
			t.Error("expected pre-filled title")
		}
	})

	t.Run("_method=PUTのPOSTが更新ルートに到達する", func(t *testing.T) {
		var gotID, gotViewer string
		storySvc := &mockStoryService{
			updateFn: func(ctx context.Context, id, viewerID string, in story.Input) (*model.Story, error) {
				gotID = id
				gotViewer = viewerID
				return &model.Story{ID: id}, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedForm(t, router, "/stories/story-1", "owner-sess", url.Values{
			"_method": {"PUT"},
			"title":   {"Updated"},
			"body":    {"b"},
			"status":  {"public"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if gotID != "story-1" || gotViewer != owner.ID {
			t.Errorf("update called with id=%q viewer=%q", gotID, gotViewer)
		}
	})

	t.Run("所有者以外の更新は一覧へリダイレクトする", func(t *testing.T) {
		storySvc := &mockStoryService{
			updateFn: func(ctx context.Context, id, viewerID string, in story.Input) (*model.Story, error) {
				return nil, story.ErrNotOwner
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedForm(t, router, "/stories/story-1", "other-sess", url.Values{
			"_method": {"PUT"},
			"title":   {"x"},
			"body":    {"y"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/stories" {
			t.Errorf("expected redirect to /stories, got %q", loc)
		}
	})

	t.Run("_method=DELETEのPOSTが削除ルートに到達する", func(t *testing.T) {
		var gotID string
		storySvc := &mockStoryService{
			deleteFn: func(ctx context.Context, id, viewerID string) error {
				gotID = id
				return nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedForm(t, router, "/stories/story-1", "owner-sess", url.Values{
			"_method": {"DELETE"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/dashboard" {
			t.Errorf("expected redirect to /dashboard, got %q", loc)
		}
		if gotID != "story-1" {
			t.Errorf("expected delete of story-1, got %q", gotID)
		}
	})

	t.Run("ユーザー別一覧は対象ユーザーIDをサービスに渡す", func(t *testing.T) {
		var gotUserID string
		storySvc := &mockStoryService{
			listPublicByUserFn: func(ctx context.Context, userID string) ([]*model.StoryWithOwner, error) {
				gotUserID = userID
				return []*model.StoryWithOwner{publicStory}, nil
			},
		}
		deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)
		router := NewRouter(deps)

		rec := authedGet(t, router, "/stories/user/user-1", "other-sess")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUserID != "user-1" {
			t.Errorf("expected target user-1, got %q", gotUserID)
		}
	})
}

func TestRouter_AccessLogIncludesAuthenticatedUserID(t *testing.T) {
	user := testUser()
	sessions := map[string]*model.User{"sess-1": user}

	storySvc := &mockStoryService{
		listByOwnerFn: func(ctx context.Context, ownerID string) ([]*model.Story, error) {
			return nil, nil
		},
	}
	deps, _ := routerDeps(t, &mockAuthService{}, storySvc, sessions)

	var buf bytes.Buffer
	deps.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(sessionCookie("sess-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["msg"] != "http_request" {
		t.Errorf("expected msg http_request, got %v", entry["msg"])
	}
	if entry["user_id"] != user.ID {
		t.Errorf("expected user_id %q in access log, got %v", user.ID, entry["user_id"])
	}
}
