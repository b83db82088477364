package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-shop-backend/internal/model"
)

// AccessTokenCookie carries the short-lived access token for browser clients.
const AccessTokenCookie = "accessToken"

type contextKey string

const userContextKey contextKey = "auth_user"

type tokenVerifier interface {
	Verify(tokenString string, kind model.TokenKind) (*model.AuthClaims, error)
}

type userResolver interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

type AuthMiddleware struct {
	verifier tokenVerifier
	users    userResolver
}

func NewAuthMiddleware(verifier tokenVerifier, users userResolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

// RequireAuth verifies the access token and resolves it to a live account.
// The token is read from the session cookie first, then from a Bearer
// header for non-browser clients. Expiry gets its own error code so the
// client knows to refresh instead of forcing a re-login.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractAccessToken(r)
		if tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No access token provided")
			return
		}

		claims, err := m.verifier.Verify(tokenString, model.TokenAccess)
		if err != nil {
			if errors.Is(err, model.ErrTokenExpired) {
				writeAuthError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token expired")
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access token")
			return
		}

		user, err := m.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole composes after RequireAuth and rejects accounts outside the
// given role with a 403.
func (m *AuthMiddleware) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if user.Role != role {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated account stashed by RequireAuth.
func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
