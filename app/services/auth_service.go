package services

import (
	"context"
	"errors"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/auth"
	"github.com/pizzanova/backend/pkg/logger"
)

// RegisterRequest creates a customer account. Role is never client-settable;
// admins are created through the CLI.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the login/registration response payload.
type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// AccountStore is the slice of the user repository authentication needs.
type AccountStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// AuthService handles registration and credential login.
type AuthService struct {
	users AccountStore
}

func NewAuthService(users AccountStore) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (TokenPair, error) {
	var pair TokenPair

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return pair, err
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return pair, ErrEmailTaken
		}
		return pair, err
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID.Hex())
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (TokenPair, error) {
	var pair TokenPair

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return pair, ErrBadCredentials
	}
	if err != nil {
		return pair, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		audit.Security(ctx, "login_failed", user.ID.Hex(), user.Role, "/auth/login", "unauthenticated", nil)
		return pair, ErrBadCredentials
	}

	// Blocked accounts can authenticate but every guarded route rejects
	// them, so the stored reason reaches the client via the middleware.
	return s.issue(user)
}

func (s *AuthService) issue(user models.User) (TokenPair, error) {
	var pair TokenPair

	access, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return pair, err
	}
	refresh, err := auth.GenerateRefreshToken(user.ID.Hex(), user.Role)
	if err != nil {
		return pair, err
	}

	pair.AccessToken = access
	pair.RefreshToken = refresh
	pair.User = user
	return pair, nil
}
