package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"videoquiz-backend/internal/models"
)

type AuthAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

// CookieSettings controls the auth cookies.
type CookieSettings struct {
	AccessName  string
	RefreshName string
	Secure      bool
	SameSite    http.SameSite
}

type AuthHandler struct {
	authService AuthAPI
	cookies     CookieSettings
	log         *zap.Logger
}

func NewAuthHandler(authService AuthAPI, cookies CookieSettings, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, log: log}
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.DetailResponse{Detail: "User created successfully!"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	h.setCookie(w, h.cookies.AccessName, tokens.AccessToken, tokens.AccessExpiresAt)
	h.setCookie(w, h.cookies.RefreshName, tokens.RefreshToken, tokens.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detail": "Login successfully!",
		"user":   user.Public(),
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refresh string
	if c, err := r.Cookie(h.cookies.RefreshName); err == nil {
		refresh = c.Value
	}

	tokens, err := h.authService.Refresh(r.Context(), refresh)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	h.setCookie(w, h.cookies.AccessName, tokens.AccessToken, tokens.AccessExpiresAt)
	writeJSON(w, http.StatusOK, map[string]string{
		"detail": "Token refreshed",
		"access": tokens.AccessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var refresh string
	if c, err := r.Cookie(h.cookies.RefreshName); err == nil {
		refresh = c.Value
	}

	if err := h.authService.Logout(r.Context(), refresh); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	h.clearCookie(w, h.cookies.AccessName)
	h.clearCookie(w, h.cookies.RefreshName)
	writeJSON(w, http.StatusOK, models.DetailResponse{
		Detail: "Log-Out successfully! All Tokens will be deleted. Refresh token is now invalid.",
	})
}
