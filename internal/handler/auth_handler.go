// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/mpfit/internal/auth"
	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// TokenIssuerInterface はセッショントークンの発行。auth.TokenIssuerが満たす。
type TokenIssuerInterface interface {
	Issue(user *model.User) (string, error)
	TTL() time.Duration
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はメールアドレスとパスワードによる認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	tokens  TokenIssuerInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, tokens TokenIssuerInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		tokens:  tokens,
		config:  config,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register はユーザーを登録し、そのままログイン状態にする。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	if !h.setSessionCookie(w, r, user) {
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newUserResponse(user))
}

// Login はログインしてセッションCookieを設定する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("email,password"))
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return
	}

	if !h.setSessionCookie(w, r, user) {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// Logout はセッションCookieをクリアする。
// トークンはサーバー側に保持しないため、Cookieの削除のみを行う。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	middleware.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		// トークンは有効だがユーザーが削除済みの場合も未認証として扱う
		if errors.Is(err, model.ErrNotFound) {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		handleServiceError(w, r, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// setSessionCookie はトークンを発行してHttpOnly Cookieに設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, user *model.User) bool {
	token, err := h.tokens.Issue(user)
	if err != nil {
		handleServiceError(w, r, err, nil)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}
