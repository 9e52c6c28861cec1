package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authedRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/days", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

// TestDefaultRateLimiterConfig はデフォルト設定が1分あたり120/10であることを検証する。
func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.GeneralRate != rate.Limit(2) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.AuthBurst != 10 {
		t.Errorf("AuthBurst = %d, want 10", cfg.AuthBurst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}

// TestGeneralMiddleware_LimitsPerUser はユーザーごとにバーストを超えると429になることを検証する。
func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: rate.Limit(0.001), GeneralBurst: 2, AuthRate: 1, AuthBurst: 1})
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest(1))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}

	// 別ユーザーは影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(2))
	if w.Code != http.StatusOK {
		t.Errorf("other user status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

// TestGeneralMiddleware_RequiresUser はユーザーIDがなければ401になることを検証する。
func TestGeneralMiddleware_RequiresUser(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/days", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestAuthMiddleware_LimitsPerIP はクライアントIPごとに制限されることを検証する。
func TestAuthMiddleware_LimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 1, AuthRate: rate.Limit(0.001), AuthBurst: 1})
	defer rl.Stop()
	handler := rl.AuthMiddleware()(okHandler())

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if got := send("10.0.0.1:1234"); got != http.StatusOK {
		t.Fatalf("first status = %d, want %d", got, http.StatusOK)
	}
	// ポートが違っても同じIPとして扱う
	if got := send("10.0.0.1:5678"); got != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", got, http.StatusTooManyRequests)
	}
	if got := send("10.0.0.2:1234"); got != http.StatusOK {
		t.Errorf("other IP status = %d, want %d", got, http.StatusOK)
	}
	if got := rl.AuthLimiterCount(); got != 2 {
		t.Errorf("AuthLimiterCount = %d, want 2", got)
	}
}

// TestRateLimiter_Cleanup は長時間アクセスのないエントリが削除されることを検証する。
func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 5, AuthRate: 1, AuthBurst: 5, CleanupInterval: time.Hour})
	defer rl.Stop()

	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), authedRequest(1))
	current = current.Add(90 * time.Minute)
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), authedRequest(2))

	current = current.Add(time.Hour)
	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Errorf("GeneralLimiterCount = %d, want 1", got)
	}
}

// TestRateLimiter_StopIsIdempotent はStopを複数回呼んでもpanicしないことを検証する。
func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestWriteRateLimitResponse_RetryAfter(t *testing.T) {
	tests := []struct {
		limit rate.Limit
		want  string
	}{
		{rate.Limit(2), "1"},
		{rate.Limit(10.0 / 60.0), "6"},
		{rate.Limit(0), "1"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeRateLimitResponse(w, tt.limit)
		if got := w.Header().Get("Retry-After"); got != tt.want {
			t.Errorf("limit %v: Retry-After = %q, want %q", tt.limit, got, tt.want)
		}
	}
}
