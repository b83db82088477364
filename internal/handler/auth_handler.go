package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-shop-backend/internal/middleware"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/service"
	"go-shop-backend/pkg/apierror"
)

type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
}

func NewAuthHandler(service *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, tokens, err := h.service.Signup(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, tokens, h.secureCookies)
	writeSuccess(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, tokens, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, tokens, h.secureCookies)
	writeSuccess(w, http.StatusOK, user)
}

// Refresh reads the refresh token from its cookie, falling back to the
// request body for non-browser clients, and issues a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	presented := refreshTokenFromRequest(r)

	accessToken, expiresAt, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	setAccessCookie(w, accessToken, expiresAt, h.secureCookies)
	writeSuccess(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"expires_at":   expiresAt,
	})
}

// Logout revokes the server-side session and always clears both cookies,
// even when revocation cannot reach the store.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	h.service.Logout(r.Context(), refreshTokenFromRequest(r))

	clearAuthCookies(w, h.secureCookies)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	writeSuccess(w, http.StatusOK, user.Public())
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return strings.TrimSpace(payload.RefreshToken)
	}

	return ""
}
