package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-shop-backend/internal/credstore"
	"go-shop-backend/internal/model"
	"go-shop-backend/internal/token"
)

// UserRepo is the slice of the user repository the session manager needs.
type UserRepo interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

// AuthService orchestrates signup, login, refresh and logout around the
// token issuer and the credential store. The store holds the single valid
// refresh token per account; every login or signup overwrites it, which is
// the one point where previously issued refresh tokens become unusable.
type AuthService struct {
	users  UserRepo
	tokens *token.Issuer
	creds  credstore.Store
	now    func() time.Time
}

func NewAuthService(users UserRepo, tokens *token.Issuer, creds credstore.Store) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		creds:  creds,
		now:    time.Now,
	}
}

func (s *AuthService) AccessTTL() time.Duration  { return s.tokens.AccessTTL() }
func (s *AuthService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }

func (s *AuthService) Signup(ctx context.Context, name string, email string, password string) (model.PublicUser, model.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return model.PublicUser{}, model.TokenPair{}, fmt.Errorf("%w: name, email and password are required", model.ErrInvalidInput)
	}
	if len(password) < 6 {
		return model.PublicUser{}, model.TokenPair{}, fmt.Errorf("%w: password must be at least 6 characters", model.ErrInvalidInput)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if exists {
		return model.PublicUser{}, model.TokenPair{}, model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	pair, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	return user.Public(), pair, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.PublicUser, model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Not-found collapses into invalid credentials so the response
		// does not reveal which accounts exist.
		return model.PublicUser{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.PublicUser{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	return user.Public(), pair, nil
}

// Refresh exchanges a still-valid refresh token for a new access token.
// The stored value is read only after signature verification and compared
// byte-for-byte, so a token replaced by a later login or removed by logout
// is rejected as revoked even if its own signature is still good.
func (s *AuthService) Refresh(ctx context.Context, presented string) (string, time.Time, error) {
	if strings.TrimSpace(presented) == "" {
		return "", time.Time{}, model.ErrTokenMissing
	}

	claims, err := s.tokens.Verify(presented, model.TokenRefresh)
	if err != nil {
		return "", time.Time{}, err
	}

	stored, found, err := s.creds.Get(ctx, credstore.RefreshTokenKey(claims.UserID))
	if err != nil {
		return "", time.Time{}, err
	}
	if !found || stored != presented {
		return "", time.Time{}, model.ErrTokenRevoked
	}

	// The refresh token itself is reused until its own expiry; only a new
	// access token is issued here.
	return s.tokens.IssueAccess(claims.UserID)
}

// Logout revokes the account's stored refresh token. It is best-effort: an
// invalid or absent token, or a store failure, never fails the caller, who
// clears cookies regardless.
func (s *AuthService) Logout(ctx context.Context, presented string) {
	if strings.TrimSpace(presented) == "" {
		return
	}

	claims, err := s.tokens.Verify(presented, model.TokenRefresh)
	if err != nil {
		return
	}

	if err := s.creds.Del(ctx, credstore.RefreshTokenKey(claims.UserID)); err != nil {
		slog.Warn("logout: failed to delete stored refresh token", "user_id", claims.UserID, "error", err)
	}
}

// GetUserByID resolves an authenticated account for the request gate.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (model.TokenPair, error) {
	accessToken, accessExpiresAt, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, refreshExpiresAt, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return model.TokenPair{}, err
	}

	err = s.creds.Set(ctx, credstore.RefreshTokenKey(userID), refreshToken, s.tokens.RefreshTTL())
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}
