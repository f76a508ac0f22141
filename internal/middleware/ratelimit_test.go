package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/storybook/internal/model"
	"golang.org/x/time/rate"
)

func newTestRateLimiter(t *testing.T, general, storyWrite int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(general) / 60.0),
		GeneralBurst:    general,
		StoryWriteRate:  rate.Limit(float64(storyWrite) / 60.0),
		StoryWriteBurst: storyWrite,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	return req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGeneralMiddleware(t *testing.T) {
	t.Run("バースト内のリクエストは通過する", func(t *testing.T) {
		rl := newTestRateLimiter(t, 3, 1)
		handler := rl.GeneralMiddleware()(okHandler())

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest("user-1"))
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
			}
		}
	})

	t.Run("バースト超過で429とRetry-Afterを返す", func(t *testing.T) {
		rl := newTestRateLimiter(t, 2, 1)
		handler := rl.GeneralMiddleware()(okHandler())

		for i := 0; i < 2; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), authedRequest("user-1"))
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("user-1"))

		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	})

	t.Run("レート制限はユーザーごとに独立", func(t *testing.T) {
		rl := newTestRateLimiter(t, 1, 1)
		handler := rl.GeneralMiddleware()(okHandler())

		handler.ServeHTTP(httptest.NewRecorder(), authedRequest("user-1"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("user-2"))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 for different user, got %d", rec.Code)
		}

		if rl.GeneralLimiterCount() != 2 {
			t.Errorf("expected 2 limiter entries, got %d", rl.GeneralLimiterCount())
		}
	})

	t.Run("未認証リクエストはログイン画面へリダイレクト", func(t *testing.T) {
		rl := newTestRateLimiter(t, 1, 1)
		handler := rl.GeneralMiddleware()(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		if rec.Code != http.StatusSeeOther {
			t.Errorf("expected 303, got %d", rec.Code)
		}
	})
}

func TestStoryWriteMiddleware(t *testing.T) {
	t.Run("書き込み制限は全般制限と独立に動作する", func(t *testing.T) {
		rl := newTestRateLimiter(t, 100, 1)
		general := rl.GeneralMiddleware()(okHandler())
		storyWrite := rl.StoryWriteMiddleware()(okHandler())

		// 書き込み側のバーストを使い切る
		storyWrite.ServeHTTP(httptest.NewRecorder(), authedRequest("user-1"))

		rec := httptest.NewRecorder()
		storyWrite.ServeHTTP(rec, authedRequest("user-1"))
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429 on story write, got %d", rec.Code)
		}

		// 全般側には影響しない
		rec = httptest.NewRecorder()
		general.ServeHTTP(rec, authedRequest("user-1"))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 on general route, got %d", rec.Code)
		}
	})
}

func TestCleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		StoryWriteRate:  1,
		StoryWriteBurst: 1,
		CleanupInterval: 10 * time.Millisecond,
	})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), authedRequest("user-1"))

	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("expected 1 limiter entry, got %d", rl.GeneralLimiterCount())
	}

	// TTL（CleanupInterval * 2）経過後にエントリが削除されること
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("expected limiter entry to be cleaned up, got %d", rl.GeneralLimiterCount())
}
