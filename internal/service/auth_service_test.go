package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/credstore"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/token"
)

type authFixture struct {
	svc    *AuthService
	issuer *token.Issuer
	creds  *credstore.RedisStore
	redis  *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	issuer, err := token.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	creds := credstore.NewRedisStore(client)
	return &authFixture{
		svc:    NewAuthService(newFakeUserRepo(), issuer, creds),
		issuer: issuer,
		creds:  creds,
		redis:  mr,
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("login after signup returns the same account", func(t *testing.T) {
		f := newAuthFixture(t)

		created, _, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, model.RoleCustomer, created.Role)

		loggedIn, pair, err := f.svc.Login(ctx, "a@x.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, created.ID, loggedIn.ID)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		_, _, err = f.svc.Signup(ctx, "Eve", "a@x.com", "other12")
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Signup(ctx, "Ada", "a@x.com", "short")
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		_, _, err = f.svc.Login(ctx, "a@x.com", "wrong-pass")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		_, _, err = f.svc.Login(ctx, "nobody@x.com", "secret1")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("signup stores the refresh token under the account key", func(t *testing.T) {
		f := newAuthFixture(t)

		created, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		stored, found, err := f.creds.Get(ctx, credstore.RefreshTokenKey(created.ID))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, pair.RefreshToken, stored)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh succeeds repeatedly with the same token", func(t *testing.T) {
		f := newAuthFixture(t)

		_, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			accessToken, _, err := f.svc.Refresh(ctx, pair.RefreshToken)
			require.NoError(t, err)

			claims, err := f.issuer.Verify(accessToken, model.TokenAccess)
			require.NoError(t, err)
			require.NotEmpty(t, claims.UserID)
		}

		// The stored refresh token is untouched by refresh.
		_, nextErr := f.issuer.Verify(pair.RefreshToken, model.TokenRefresh)
		require.NoError(t, nextErr)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Refresh(ctx, "")
		require.ErrorIs(t, err, model.ErrTokenMissing)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("reuse after logout is revoked", func(t *testing.T) {
		f := newAuthFixture(t)

		_, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		f.svc.Logout(ctx, pair.RefreshToken)

		_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenRevoked)
	})

	t.Run("second login invalidates the first refresh token", func(t *testing.T) {
		f := newAuthFixture(t)

		_, first, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		_, second, err := f.svc.Login(ctx, "a@x.com", "secret1")
		require.NoError(t, err)

		_, _, err = f.svc.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenRevoked)

		_, _, err = f.svc.Refresh(ctx, second.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("cryptographically valid token absent from the store is revoked", func(t *testing.T) {
		f := newAuthFixture(t)

		// A token signed with the right secret but never stored (e.g. the
		// store entry expired).
		signed, _, err := f.issuer.IssueRefresh("ghost-user")
		require.NoError(t, err)

		_, _, err = f.svc.Refresh(ctx, signed)
		require.ErrorIs(t, err, model.ErrTokenRevoked)
	})

	t.Run("store outage is a hard failure, not unauthenticated", func(t *testing.T) {
		f := newAuthFixture(t)

		_, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		f.redis.Close()

		_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrStoreUnavailable)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the stored token", func(t *testing.T) {
		f := newAuthFixture(t)

		created, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)

		f.svc.Logout(ctx, pair.RefreshToken)

		_, found, err := f.creds.Get(ctx, credstore.RefreshTokenKey(created.ID))
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("never fails visibly", func(t *testing.T) {
		f := newAuthFixture(t)

		// Invalid token, empty token, and a store outage all degrade
		// silently.
		f.svc.Logout(ctx, "garbage")
		f.svc.Logout(ctx, "")

		_, pair, err := f.svc.Signup(ctx, "Ada", "a@x.com", "secret1")
		require.NoError(t, err)
		f.redis.Close()
		f.svc.Logout(ctx, pair.RefreshToken)
	})
}
