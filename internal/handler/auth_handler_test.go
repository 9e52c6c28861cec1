package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mpfit/internal/auth"
	"github.com/hitoshi/mpfit/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn    func(ctx context.Context, name, email, password string) (*model.User, error)
	loginFn       func(ctx context.Context, email, password string) (*model.User, error)
	currentUserFn func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.ErrInvalidCredentials
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, model.ErrNotFound
}

var (
	_ AuthServiceInterface = (*mockAuthService)(nil)
	_ AuthServiceInterface = (*auth.Service)(nil)
	_ TokenIssuerInterface = (*auth.TokenIssuer)(nil)
)

func findSessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("cookie %q not set", auth.CookieName)
	return nil
}

func newTestAuthHandler(svc AuthServiceInterface) *AuthHandler {
	return NewAuthHandler(svc, auth.NewTokenIssuer("test-secret", time.Hour), AuthHandlerConfig{CookieSecure: true})
}

func TestAuthHandler_Register_SetsCookie(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return &model.User{ID: 1, Name: name, Email: email}, nil
		},
	}
	h := newTestAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register",
		encodeBody(t, map[string]string{"name": "John", "email": "john@example.com", "password": "pw"})))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	c := findSessionCookie(t, w)
	if c.Value == "" {
		t.Error("expected token value")
	}
	if !c.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v, want Strict", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"メール重複", model.ErrDuplicateEmail, http.StatusBadRequest},
		{"入力不足", model.NewValidationError("name"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
					return nil, tt.err
				},
			}
			w := httptest.NewRecorder()
			newTestAuthHandler(svc).Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, `{}`)))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(w.Result().Cookies()) != 0 {
				t.Error("no cookie should be set on failure")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("必須項目なし", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestAuthHandler(&mockAuthService{}).Login(w,
			httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(t, `{"email":"a@b.c"}`)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("認証情報不一致", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestAuthHandler(&mockAuthService{}).Login(w,
			httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(t, `{"email":"a@b.c","password":"x"}`)))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if body := decodeError(t, w); body.Error != "invalid credentials" {
			t.Errorf("error = %q, want invalid credentials", body.Error)
		}
	})

	t.Run("成功", func(t *testing.T) {
		svc := &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
				return &model.User{ID: 3, Email: email}, nil
			},
		}
		w := httptest.NewRecorder()
		newTestAuthHandler(svc).Login(w,
			httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(t, `{"email":"a@b.c","password":"x"}`)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		findSessionCookie(t, w)
	})
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	w := httptest.NewRecorder()
	newTestAuthHandler(&mockAuthService{}).Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if c := findSessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cookie = %+v, want cleared", c)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("削除済みユーザーは401", func(t *testing.T) {
		w := serve(http.MethodGet, "/auth/me", newTestAuthHandler(&mockAuthService{}).Me,
			httptest.NewRequest(http.MethodGet, "/auth/me", nil), 5)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("成功", func(t *testing.T) {
		svc := &mockAuthService{
			currentUserFn: func(ctx context.Context, userID int64) (*model.User, error) {
				return &model.User{ID: userID, Email: "a@b.c", Admin: true}, nil
			},
		}
		w := serve(http.MethodGet, "/auth/me", newTestAuthHandler(svc).Me,
			httptest.NewRequest(http.MethodGet, "/auth/me", nil), 5)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		want := `{"id":5,"email":"a@b.c","name":null,"admin":true}` + "\n"
		if got := w.Body.String(); got != want {
			t.Errorf("body = %s, want %s", got, want)
		}
	})
}
