package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-shop-backend/internal/model"
)

// Issuer creates and verifies the two signed credentials. Access and
// refresh tokens are signed with distinct secrets so a leaked access
// secret cannot forge refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// SetClock overrides the issuer's time source. Used by tests to simulate
// token expiry without sleeping.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) IssueAccess(userID string) (string, time.Time, error) {
	return i.sign(userID, model.TokenAccess, i.accessSecret, i.accessTTL)
}

func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	return i.sign(userID, model.TokenRefresh, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) sign(userID string, kind model.TokenKind, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"typ": string(kind),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry for a token of the expected kind.
// It is a pure function of the token and the clock; no external I/O.
// Expired tokens are reported as model.ErrTokenExpired so callers can
// distinguish them from tampering.
func (i *Issuer) Verify(tokenString string, kind model.TokenKind) (*model.AuthClaims, error) {
	secret := i.accessSecret
	if kind == model.TokenRefresh {
		secret = i.refreshSecret
	}

	parsed, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, model.ErrTokenInvalid
			}
			return secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != string(kind) {
		return nil, model.ErrTokenInvalid
	}

	claims := &model.AuthClaims{Kind: model.TokenKind(typ)}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if claims.UserID == "" {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
