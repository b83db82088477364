//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/model"
)

func TestSignupLoginProfileFlow(t *testing.T) {
	e := newTestEnv(t)

	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decodeData[model.PublicUser](t, resp)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, model.RoleCustomer, profile.Role)

	status, resp = e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestProfileWithoutSession(t *testing.T) {
	e := newTestEnv(t)

	status, resp := e.do(t, http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

// The core session lifecycle: the access token expires while the refresh
// token is still good, the expiry is reported with its own code, and a
// refresh restores access without a new login.
func TestAccessExpiryThenRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	issued := time.Now()
	e.issuer.SetClock(func() time.Time { return issued.Add(20 * time.Minute) })

	status, resp := e.do(t, http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TOKEN_EXPIRED", resp.Error.Code)

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = e.do(t, http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decodeData[model.PublicUser](t, resp)
	assert.Equal(t, "ada@example.com", profile.Email)
}

func TestRefreshFailsOnceRefreshTokenExpires(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	issued := time.Now()
	e.issuer.SetClock(func() time.Time { return issued.Add(8 * 24 * time.Hour) })

	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TOKEN_EXPIRED", resp.Error.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	stolenRefresh := e.refreshCookieValue(t)

	status, _ := e.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	// Replaying the old refresh token after logout must fail even though
	// its signature is still valid.
	status, resp := e.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": stolenRefresh,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestSecondLoginInvalidatesEarlierRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "Ada", "ada@example.com", "secret123")

	firstRefresh := e.refreshCookieValue(t)

	status, _ := e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)

	// Replay the first session's refresh token without the cookie jar so
	// the newer cookie cannot mask it.
	status, resp := e.doBare(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": firstRefresh,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}
